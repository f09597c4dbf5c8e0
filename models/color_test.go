package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColor(t *testing.T) {
	red := "Red"
	padded := "  Red  "
	empty := ""
	blank := "   "

	assert.Nil(t, NormalizeColor(nil))
	assert.Nil(t, NormalizeColor(&empty))
	assert.Nil(t, NormalizeColor(&blank))

	got := NormalizeColor(&red)
	if assert.NotNil(t, got) {
		assert.Equal(t, "Red", *got)
	}

	got = NormalizeColor(&padded)
	if assert.NotNil(t, got) {
		assert.Equal(t, "Red", *got)
	}
}

func TestColorString(t *testing.T) {
	red := "Red"
	assert.Equal(t, "Red", ColorString(&red))
	assert.Equal(t, "", ColorString(nil))
}
