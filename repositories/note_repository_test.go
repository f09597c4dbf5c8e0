package repositories

import (
	"sync"
	"testing"
	"time"

	"stok-takip/config"
	"stok-takip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteSaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	require.True(t, repo.Save("A1", strptr("Red"), "hold for project X"))

	note, ok := repo.Get("A1", strptr("Red"))
	require.True(t, ok)
	assert.Equal(t, "hold for project X", note)
}

func TestNoteGetAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	_, ok := repo.Get("A1", strptr("Red"))
	assert.False(t, ok)
}

func TestNoteReplacesOnResave(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	require.True(t, repo.Save("A1", nil, "first"))
	require.True(t, repo.Save("A1", nil, "second"))

	note, ok := repo.Get("A1", nil)
	require.True(t, ok)
	assert.Equal(t, "second", note)

	var count int64
	db.Model(&models.ReservationNote{}).Where("product_code = ?", "A1").Count(&count)
	assert.EqualValues(t, 1, count)
}

// A blank color and no color at all name the same note.
func TestNoteColorlessIdentityFolds(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	require.True(t, repo.Save("A1", strptr(""), "written with empty color"))
	note, ok := repo.Get("A1", nil)
	require.True(t, ok)
	assert.Equal(t, "written with empty color", note)

	require.True(t, repo.Save("A1", nil, "rewritten with nil color"))
	note, ok = repo.Get("A1", strptr("   "))
	require.True(t, ok)
	assert.Equal(t, "rewritten with nil color", note)

	var count int64
	db.Model(&models.ReservationNote{}).Where("product_code = ?", "A1").Count(&count)
	assert.EqualValues(t, 1, count)
}

// Rows persisted with '' by older writers still resolve for colorless lookups.
func TestNoteLegacyEmptyStringRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	empty := ""
	require.NoError(t, db.Create(&models.ReservationNote{
		ProductCode: "A1",
		Color:       &empty,
		Note:        "legacy row",
	}).Error)

	note, ok := repo.Get("A1", nil)
	require.True(t, ok)
	assert.Equal(t, "legacy row", note)

	require.True(t, repo.Delete("A1", nil))
	_, ok = repo.Get("A1", nil)
	assert.False(t, ok)
}

func TestNoteDistinctColorsKeepDistinctNotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	require.True(t, repo.Save("A1", strptr("Red"), "red note"))
	require.True(t, repo.Save("A1", strptr("Blue"), "blue note"))
	require.True(t, repo.Save("A1", nil, "plain note"))

	note, _ := repo.Get("A1", strptr("Red"))
	assert.Equal(t, "red note", note)
	note, _ = repo.Get("A1", strptr("Blue"))
	assert.Equal(t, "blue note", note)
	note, _ = repo.Get("A1", nil)
	assert.Equal(t, "plain note", note)
}

func TestNoteDeleteIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	require.True(t, repo.Save("A1", strptr("Red"), "to be removed"))

	assert.True(t, repo.Delete("A1", strptr("Red")))
	_, ok := repo.Get("A1", strptr("Red"))
	assert.False(t, ok)

	// deleting again lands in the same state and still succeeds
	assert.True(t, repo.Delete("A1", strptr("Red")))
}

// The store itself rejects a second row for one identity: the unique index
// folds NULL and '' with COALESCE, so even writers that bypass the repository
// cannot leave two rows behind.
func TestNoteIdentityUniqueIndex(t *testing.T) {
	db := setupTestDB(t)
	empty := ""

	require.NoError(t, db.Create(&models.ReservationNote{
		ProductCode: "A1",
		Color:       nil,
		Note:        "first",
	}).Error)

	err := db.Create(&models.ReservationNote{
		ProductCode: "A1",
		Color:       &empty,
		Note:        "second",
	}).Error
	assert.Error(t, err)

	var count int64
	db.Model(&models.ReservationNote{}).Where("product_code = ?", "A1").Count(&count)
	assert.EqualValues(t, 1, count)
}

// Concurrent saves for the same identity serialize on the note key; none of
// them may slip a duplicate row past the lookup.
func TestConcurrentNoteSavesKeepOneRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.Save("A1", nil, "hello")
		}()
	}
	wg.Wait()

	var count int64
	db.Model(&models.ReservationNote{}).Where("product_code = ?", "A1").Count(&count)
	assert.EqualValues(t, 1, count)

	note, ok := repo.Get("A1", nil)
	require.True(t, ok)
	assert.Equal(t, "hello", note)
}

func TestNoteSaveWaitsForIdentityLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	prev := config.LockTimeout
	config.LockTimeout = 50 * time.Millisecond
	t.Cleanup(func() { config.LockTimeout = prev })

	key := noteKey("A1", nil)
	require.True(t, positionLocks.Acquire(key, time.Second))

	assert.False(t, repo.Save("A1", nil, "blocked"))

	positionLocks.Release(key)
	assert.True(t, repo.Save("A1", nil, "through"))

	note, ok := repo.Get("A1", nil)
	require.True(t, ok)
	assert.Equal(t, "through", note)
}

func TestNoteRequiresProductCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNoteRepository(db)

	assert.False(t, repo.Save("", nil, "nope"))
	_, ok := repo.Get("", nil)
	assert.False(t, ok)
	assert.False(t, repo.Delete("", nil))
}
