package repositories

import (
	"errors"
	"fmt"

	"stok-takip/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteRepository stores the per-product reservation notes. Notes are keyed by
// (product_code, color) only; they survive stock rows coming and going.
//
// Writes always normalize a blank color to NULL. Lookups for the colorless
// identity additionally match legacy rows stored with '' so that both spell
// the same note.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// noteKey names the lock for one note identity. Color goes through
// NormalizeColor so NULL and '' writers contend on the same key.
func noteKey(productCode string, color *string) string {
	return fmt.Sprintf("note|%s|%s", productCode, models.ColorString(color))
}

func (r *NoteRepository) lookup(q *gorm.DB, productCode string, color *string) *gorm.DB {
	q = q.Where("product_code = ?", productCode)
	if c := models.NormalizeColor(color); c != nil {
		return q.Where("color = ?", *c)
	}
	return q.Where("(color IS NULL OR color = '')")
}

// Save upserts the note text for (product_code, color). It reports success as
// a boolean so callers can treat a failed save as soft; it never panics on a
// store error.
func (r *NoteRepository) Save(productCode string, color *string, text string) bool {
	if productCode == "" {
		return false
	}

	color = models.NormalizeColor(color)

	// The check-then-insert below is two statements; without this lock two
	// concurrent saves for the same identity can both miss the lookup and
	// both insert.
	key := noteKey(productCode, color)
	if !positionLocks.Acquire(key, lockTimeout()) {
		zap.S().Errorw("reservation note save timed out", "product", productCode)
		return false
	}
	defer positionLocks.Release(key)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ReservationNote
		err := r.lookup(tx.Model(&models.ReservationNote{}), productCode, color).First(&existing).Error

		switch {
		case err == nil:
			existing.Note = text
			return tx.Save(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.ReservationNote{
				ProductCode: productCode,
				Color:       color,
				Note:        text,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		zap.S().Errorw("reservation note save failed", "product", productCode, "error", err)
		return false
	}
	return true
}

// Get returns the stored note text and whether a note exists. A clean miss
// and a store failure both come back as absent, never as an error.
func (r *NoteRepository) Get(productCode string, color *string) (string, bool) {
	if productCode == "" {
		return "", false
	}

	var note models.ReservationNote
	err := r.lookup(r.db.Model(&models.ReservationNote{}), productCode, color).First(&note).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.S().Errorw("reservation note lookup failed", "product", productCode, "error", err)
		}
		return "", false
	}
	return note.Note, true
}

// Delete removes the note for (product_code, color). Deleting a note that
// does not exist is a success; the end state is the same.
func (r *NoteRepository) Delete(productCode string, color *string) bool {
	if productCode == "" {
		return false
	}

	err := r.lookup(r.db, productCode, color).Delete(&models.ReservationNote{}).Error
	if err != nil {
		zap.S().Errorw("reservation note delete failed", "product", productCode, "error", err)
		return false
	}
	return true
}
