package repositories

import (
	"sync"
	"testing"

	"stok-takip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStock(t *testing.T, repo *StockRepository, code string, color *string, location string, qty int) {
	t.Helper()
	require.NoError(t, repo.Entry(entryReq(code, color, location, qty)))
}

func TestCreateReservation(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", strptr("Red"), "L1", 10)

	id, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1",
		ProductName: "Test Profile",
		Color:       strptr("Red"),
		Location:    "L1",
		Quantity:    6,
		ReservedBy:  "mehmet",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	var reservation models.Reservation
	require.NoError(t, db.First(&reservation, id).Error)
	assert.Equal(t, models.ReservationActive, reservation.Status)

	var movement models.ReservationMovement
	require.NoError(t, db.Where("reservation_id = ?", id).First(&movement).Error)
	assert.Equal(t, models.ReservationMovementReserve, movement.Kind)
	assert.Equal(t, 6, movement.Quantity)

	// reservations never move stock by themselves
	var stock models.Stock
	require.NoError(t, db.Where("product_code = ?", "A1").First(&stock).Error)
	assert.Equal(t, 10, stock.Quantity)
}

func TestCreateReservationUnknownPosition(t *testing.T) {
	db := setupTestDB(t)
	reservations := NewReservationRepository(db)

	_, err := reservations.Create(CreateReservationRequest{
		ProductCode: "NOPE",
		Location:    "L1",
		Quantity:    1,
		ReservedBy:  "mehmet",
	})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReservationBound(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)

	_, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 7, ReservedBy: "ayse",
	})
	require.NoError(t, err)

	_, err = reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 4, ReservedBy: "fatma",
	})
	var unavailable *InsufficientAvailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 10, unavailable.Stock)
	assert.Equal(t, 7, unavailable.Reserved)
	assert.Equal(t, 3, unavailable.Available)
	assert.Equal(t, 4, unavailable.Requested)

	// a request that fits the remainder still goes through
	_, err = reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 3, ReservedBy: "fatma",
	})
	assert.NoError(t, err)
}

func TestReservationColorIdentity(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 5)
	seedStock(t, stocks, "A1", strptr("Red"), "L1", 5)

	// colorless reservation counts only against the colorless position
	_, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Color: strptr(""), Location: "L1", Quantity: 5, ReservedBy: "ali",
	})
	require.NoError(t, err)

	_, err = reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Color: strptr("Red"), Location: "L1", Quantity: 5, ReservedBy: "ali",
	})
	require.NoError(t, err)

	_, err = reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 1, ReservedBy: "ali",
	})
	var unavailable *InsufficientAvailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestCancelReservation(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)
	id, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 6, ReservedBy: "ali",
	})
	require.NoError(t, err)

	require.NoError(t, reservations.Cancel(id, "ali", ""))

	var reservation models.Reservation
	require.NoError(t, db.First(&reservation, id).Error)
	assert.Equal(t, models.ReservationCancelled, reservation.Status)

	var movements []models.ReservationMovement
	require.NoError(t, db.Where("reservation_id = ?", id).Order("id").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, models.ReservationMovementCancel, movements[1].Kind)

	var stock models.Stock
	require.NoError(t, db.Where("product_code = ?", "A1").First(&stock).Error)
	assert.Equal(t, 10, stock.Quantity)

	// cancelled quantity is available again
	_, err = reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 10, ReservedBy: "veli",
	})
	assert.NoError(t, err)
}

func TestCancelTerminalReservationIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)
	id, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 2, ReservedBy: "ali",
	})
	require.NoError(t, err)
	require.NoError(t, reservations.Cancel(id, "ali", ""))

	var notFound *NotFoundError
	assert.ErrorAs(t, reservations.Cancel(id, "ali", ""), &notFound)

	_, err = reservations.Fulfill(id, "ali", "")
	assert.ErrorAs(t, err, &notFound)
}

func TestFulfillReservationEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", strptr("Red"), "L1", 10)
	id, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Color: strptr("Red"), Location: "L1", Quantity: 6, ReservedBy: "ali",
	})
	require.NoError(t, err)

	stock, err := reservations.Fulfill(id, "depo", "")
	require.NoError(t, err)
	assert.Equal(t, 4, stock.Quantity)

	var reservation models.Reservation
	require.NoError(t, db.First(&reservation, id).Error)
	assert.Equal(t, models.ReservationFulfilled, reservation.Status)

	var exits []models.StockMovement
	require.NoError(t, db.Where("kind = ?", models.MovementExit).Find(&exits).Error)
	require.Len(t, exits, 1)
	assert.Equal(t, 6, exits[0].Quantity)

	var movement models.ReservationMovement
	require.NoError(t, db.Where("reservation_id = ? AND kind = ?", id, models.ReservationMovementFulfill).First(&movement).Error)
	assert.Equal(t, "depo", movement.Actor)
}

func TestFulfillFailureKeepsReservationActive(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)
	id, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 6, ReservedBy: "ali",
	})
	require.NoError(t, err)

	// stock drains below the reserved amount before fulfillment
	_, err = stocks.Exit(ExitRequest{ProductCode: "A1", Location: "L1", Quantity: 8, Actor: "depo"})
	require.NoError(t, err)

	_, err = reservations.Fulfill(id, "depo", "")
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	var reservation models.Reservation
	require.NoError(t, db.First(&reservation, id).Error)
	assert.Equal(t, models.ReservationActive, reservation.Status)

	var count int64
	db.Model(&models.ReservationMovement{}).
		Where("reservation_id = ? AND kind = ?", id, models.ReservationMovementFulfill).
		Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestListActiveAnnotations(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)
	first, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 3, ReservedBy: "ali",
	})
	require.NoError(t, err)
	second, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Location: "L1", Quantity: 4, ReservedBy: "veli",
	})
	require.NoError(t, err)
	require.NoError(t, reservations.Cancel(first, "ali", ""))

	rows, err := reservations.ListActive(ActiveReservationFilter{ProductCode: "A1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second, rows[0].ID)
	assert.Equal(t, 10, rows[0].StockQuantity)
	assert.Equal(t, 4, rows[0].TotalReserved)

	rows, err = reservations.ListActive(ActiveReservationFilter{ReservedBy: "ali"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStatusReportsAvailability(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)
	notes := NewNoteRepository(db)

	seedStock(t, stocks, "A1", strptr("Red"), "L1", 10)
	seedStock(t, stocks, "A1", strptr("Red"), "L2", 5)
	_, err := reservations.Create(CreateReservationRequest{
		ProductCode: "A1", Color: strptr("Red"), Location: "L1", Quantity: 4, ReservedBy: "ali",
	})
	require.NoError(t, err)
	require.True(t, notes.Save("A1", strptr("Red"), "hold for project X"))

	rows, err := reservations.Status("A1", strptr("Red"), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byLocation := map[string]ReservationStatusRow{}
	for _, row := range rows {
		byLocation[row.Location] = row
	}
	assert.Equal(t, 10, byLocation["L1"].Stock)
	assert.Equal(t, 4, byLocation["L1"].Reserved)
	assert.Equal(t, 6, byLocation["L1"].Available)
	assert.Equal(t, 0, byLocation["L2"].Reserved)
	assert.Equal(t, "hold for project X", byLocation["L1"].Note)
}

// Two concurrent admissions reading the same available quantity must not both
// succeed; the per-key lock serializes the check-then-insert sequence.
func TestConcurrentReservationsNeverOversell(t *testing.T) {
	db := setupTestDB(t)
	stocks := NewStockRepository(db)
	reservations := NewReservationRepository(db)

	seedStock(t, stocks, "A1", nil, "L1", 10)

	const workers = 25
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reservations.Create(CreateReservationRequest{
				ProductCode: "A1", Location: "L1", Quantity: 1, ReservedBy: "racer",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			var unavailable *InsufficientAvailableError
			require.ErrorAs(t, err, &unavailable)
		}
	}
	assert.Equal(t, 10, succeeded)

	var total int
	require.NoError(t, db.Model(&models.Reservation{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("status = ?", models.ReservationActive).
		Scan(&total).Error)
	assert.Equal(t, 10, total)
}
