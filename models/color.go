package models

import "strings"

// NormalizeColor folds the NULL/empty-string duality of the color attribute
// into one canonical form: a color is present only if it is non-nil and
// non-blank after trimming, otherwise it is nil. Every stock, reservation and
// note code path must pass its color through here before using it as a key.
func NormalizeColor(color *string) *string {
	if color == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*color)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ColorString renders a normalized color for lock keys and log output.
func ColorString(color *string) string {
	if c := NormalizeColor(color); c != nil {
		return *c
	}
	return ""
}
