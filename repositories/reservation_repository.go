package repositories

import (
	"errors"
	"fmt"

	"stok-takip/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReservationRepository struct {
	db     *gorm.DB
	stocks *StockRepository
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db, stocks: NewStockRepository(db)}
}

type CreateReservationRequest struct {
	ProductCode string
	ProductName string
	Color       *string
	Location    string
	Quantity    int
	ReservedBy  string
	Note        string
}

// Create admits a reservation against the unreserved portion of a position.
// The whole check-then-insert sequence runs under the position lock shared
// with the stock engine, so two concurrent requests cannot both see the same
// available quantity.
func (r *ReservationRepository) Create(req CreateReservationRequest) (uint, error) {
	if req.ProductCode == "" || req.Location == "" {
		return 0, &ValidationError{Message: "product code and location are required"}
	}
	if req.Quantity <= 0 {
		return 0, &ValidationError{Message: "quantity must be positive"}
	}
	if req.ReservedBy == "" {
		return 0, &ValidationError{Message: "reserved_by is required"}
	}

	req.Color = models.NormalizeColor(req.Color)

	key := positionKey(req.ProductCode, req.Color, req.Location)
	if !positionLocks.Acquire(key, lockTimeout()) {
		return 0, &PersistenceError{Err: fmt.Errorf("timed out waiting for position %s", key)}
	}
	defer positionLocks.Release(key)

	var reservationID uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var stock models.Stock
		q := tx.Where("product_code = ? AND location = ?", req.ProductCode, req.Location)
		if err := whereColor(q, req.Color).First(&stock).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Message: "no stock at this location"}
			}
			return err
		}

		reserved, err := r.activeReservedTx(tx, req.ProductCode, req.Color, req.Location)
		if err != nil {
			return err
		}

		available := stock.Quantity - reserved
		if available < req.Quantity {
			return &InsufficientAvailableError{
				Stock:     stock.Quantity,
				Reserved:  reserved,
				Available: available,
				Requested: req.Quantity,
			}
		}

		reservation := models.Reservation{
			ProductCode: req.ProductCode,
			ProductName: req.ProductName,
			Color:       req.Color,
			Location:    req.Location,
			Quantity:    req.Quantity,
			ReservedBy:  req.ReservedBy,
			Note:        req.Note,
			Status:      models.ReservationActive,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		reservationID = reservation.ID

		description := req.Note
		if description == "" {
			description = "New reservation"
		}
		return tx.Create(&models.ReservationMovement{
			ReservationID: reservation.ID,
			Kind:          models.ReservationMovementReserve,
			ProductCode:   req.ProductCode,
			Color:         req.Color,
			Location:      req.Location,
			Quantity:      req.Quantity,
			Actor:         req.ReservedBy,
			Description:   description,
		}).Error
	})
	if err != nil {
		if IsBusinessError(err) {
			return 0, err
		}
		zap.S().Errorw("reservation create failed", "product", req.ProductCode, "location", req.Location, "error", err)
		return 0, &PersistenceError{Err: err}
	}
	return reservationID, nil
}

// activeReservedTx sums the ACTIVE reservation quantity for a position key.
// Color matching is exact on the normalized value: NULL matches only NULL.
func (r *ReservationRepository) activeReservedTx(tx *gorm.DB, productCode string, color *string, location string) (int, error) {
	var reserved int
	q := tx.Model(&models.Reservation{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_code = ? AND location = ? AND status = ?", productCode, location, models.ReservationActive)
	if err := whereColor(q, color).Scan(&reserved).Error; err != nil {
		return 0, err
	}
	return reserved, nil
}

// Cancel releases an ACTIVE reservation without touching stock. A terminal
// reservation reports not-found rather than idempotent success.
func (r *ReservationRepository) Cancel(id uint, actor, note string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		reservation, err := activeReservationTx(tx, id)
		if err != nil {
			return err
		}

		reservation.Status = models.ReservationCancelled
		if err := tx.Save(reservation).Error; err != nil {
			return err
		}

		description := note
		if description == "" {
			description = "Reservation cancelled"
		}
		return tx.Create(&models.ReservationMovement{
			ReservationID: reservation.ID,
			Kind:          models.ReservationMovementCancel,
			ProductCode:   reservation.ProductCode,
			Color:         reservation.Color,
			Location:      reservation.Location,
			Quantity:      reservation.Quantity,
			Actor:         actor,
			Description:   description,
		}).Error
	})
	if err != nil {
		if IsBusinessError(err) {
			return err
		}
		zap.S().Errorw("reservation cancel failed", "reservation", id, "error", err)
		return &PersistenceError{Err: err}
	}
	return nil
}

// Fulfill converts an ACTIVE reservation into a stock exit of the same
// quantity. The exit and the status change commit together; if the exit fails
// the reservation stays ACTIVE with no movement recorded.
func (r *ReservationRepository) Fulfill(id uint, actor, note string) (*models.Stock, error) {
	var probe models.Reservation
	if err := r.db.Where("id = ? AND status = ?", id, models.ReservationActive).First(&probe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Message: "no active reservation with this id"}
		}
		return nil, &PersistenceError{Err: err}
	}

	key := positionKey(probe.ProductCode, probe.Color, probe.Location)
	if !positionLocks.Acquire(key, lockTimeout()) {
		return nil, &PersistenceError{Err: fmt.Errorf("timed out waiting for position %s", key)}
	}
	defer positionLocks.Release(key)

	var stock *models.Stock
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Re-read under the lock; the reservation may have been resolved
		// while we waited.
		reservation, err := activeReservationTx(tx, id)
		if err != nil {
			return err
		}

		stock, err = r.stocks.exitTx(tx, ExitRequest{
			ProductCode: reservation.ProductCode,
			Color:       reservation.Color,
			Location:    reservation.Location,
			Quantity:    reservation.Quantity,
			Actor:       actor,
			Description: fmt.Sprintf("Reservation fulfilled (ID: %d)", reservation.ID),
		})
		if err != nil {
			return err
		}

		reservation.Status = models.ReservationFulfilled
		if err := tx.Save(reservation).Error; err != nil {
			return err
		}

		description := note
		if description == "" {
			description = "Reservation fulfilled, stock booked out"
		}
		return tx.Create(&models.ReservationMovement{
			ReservationID: reservation.ID,
			Kind:          models.ReservationMovementFulfill,
			ProductCode:   reservation.ProductCode,
			Color:         reservation.Color,
			Location:      reservation.Location,
			Quantity:      reservation.Quantity,
			Actor:         actor,
			Description:   description,
		}).Error
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		zap.S().Errorw("reservation fulfill failed", "reservation", id, "error", err)
		return nil, &PersistenceError{Err: err}
	}
	return stock, nil
}

func activeReservationTx(tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.Where("id = ? AND status = ?", id, models.ReservationActive).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Message: "no active reservation with this id"}
		}
		return nil, err
	}
	return &reservation, nil
}

type ActiveReservationFilter struct {
	ProductCode string
	Location    string
	ReservedBy  string
}

type ActiveReservationRow struct {
	models.Reservation
	StockQuantity int `json:"stock_quantity"`
	TotalReserved int `json:"total_reserved"`
}

// ListActive returns ACTIVE reservations newest first, each annotated with
// the live position quantity and the total ACTIVE reserved quantity of its
// group.
func (r *ReservationRepository) ListActive(filter ActiveReservationFilter) ([]ActiveReservationRow, error) {
	sql := `SELECT r.*,
	COALESCE(s.quantity, 0) AS stock_quantity,
	(SELECT COALESCE(SUM(r2.quantity), 0)
	 FROM reservations r2
	 WHERE r2.product_code = r.product_code
	   AND r2.location = r.location
	   AND r2.status = 'ACTIVE'
	   AND (r2.color = r.color OR (r2.color IS NULL AND r.color IS NULL))
	) AS total_reserved
	FROM reservations r
	LEFT JOIN stocks s ON (r.product_code = s.product_code
	                   AND r.location = s.location
	                   AND (r.color = s.color OR (r.color IS NULL AND s.color IS NULL)))
	WHERE r.status = 'ACTIVE'`

	var params []interface{}
	if filter.ProductCode != "" {
		sql += " AND r.product_code = ?"
		params = append(params, filter.ProductCode)
	}
	if filter.Location != "" {
		sql += " AND r.location = ?"
		params = append(params, filter.Location)
	}
	if filter.ReservedBy != "" {
		sql += " AND r.reserved_by = ?"
		params = append(params, filter.ReservedBy)
	}
	sql += " ORDER BY r.created_at DESC"

	var rows []ActiveReservationRow
	if err := r.db.Raw(sql, params...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type ReservationStatusRow struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Color       *string `json:"color"`
	Location    string  `json:"location"`
	Stock       int     `json:"stock"`
	Reserved    int     `json:"reserved"`
	Available   int     `json:"available"`
	Note        string  `json:"note"`
}

// Status summarizes availability per position for a product, merged with the
// product's reservation note (which is keyed by product+color only).
func (r *ReservationRepository) Status(productCode string, color *string, location string) ([]ReservationStatusRow, error) {
	if productCode == "" {
		return nil, &ValidationError{Message: "product code is required"}
	}

	sql := `SELECT s.product_code, s.product_name, s.color, s.location,
	s.quantity AS stock,
	COALESCE(SUM(CASE WHEN r.status = 'ACTIVE' THEN r.quantity ELSE 0 END), 0) AS reserved,
	s.quantity - COALESCE(SUM(CASE WHEN r.status = 'ACTIVE' THEN r.quantity ELSE 0 END), 0) AS available
	FROM stocks s
	LEFT JOIN reservations r ON (s.product_code = r.product_code
	                         AND s.location = r.location
	                         AND (s.color = r.color OR (s.color IS NULL AND r.color IS NULL)))
	WHERE s.product_code = ? AND s.quantity > 0`

	params := []interface{}{productCode}
	if c := models.NormalizeColor(color); c != nil {
		sql += " AND s.color = ?"
		params = append(params, *c)
	}
	if location != "" {
		sql += " AND s.location = ?"
		params = append(params, location)
	}
	sql += ` GROUP BY s.product_code, s.product_name, s.color, s.location, s.quantity
	ORDER BY s.location`

	var rows []ReservationStatusRow
	if err := r.db.Raw(sql, params...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	notes := NewNoteRepository(r.db)
	if note, ok := notes.Get(productCode, color); ok {
		for i := range rows {
			rows[i].Note = note
		}
	}
	return rows, nil
}
