package repositories

import (
	"errors"
	"fmt"
	"time"

	"stok-takip/config"
	"stok-takip/models"
	"stok-takip/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// positionLocks serializes every mutating operation touching a position key,
// shared by the stock and reservation repositories. The admission check and
// the following insert are separate statements; holding the key for the whole
// read-validate-write sequence is what keeps concurrent requests from
// overselling a position.
var positionLocks = utils.NewKeyLock()

func lockTimeout() time.Duration {
	if config.LockTimeout > 0 {
		return config.LockTimeout
	}
	return 20 * time.Second
}

// positionKey builds the canonical lock key for (product_code, color,
// location). Color goes through NormalizeColor so "" and NULL contend on the
// same key.
func positionKey(productCode string, color *string, location string) string {
	return fmt.Sprintf("%s|%s|%s", productCode, models.ColorString(color), location)
}

// whereColor appends the color predicate for an exact normalized match.
// NULL matches only NULL.
func whereColor(q *gorm.DB, color *string) *gorm.DB {
	if c := models.NormalizeColor(color); c != nil {
		return q.Where("color = ?", *c)
	}
	return q.Where("color IS NULL")
}

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

type EntryRequest struct {
	ProductCode string
	ProductName string
	Series      string
	Color       *string
	Location    string
	Quantity    int
	Length      int     // profile length in mm
	UnitWeight  float64 // kg per meter
	Actor       string
	Description string
}

type ExitRequest struct {
	ProductCode string
	Color       *string
	Location    string
	Quantity    int
	Actor       string
	Description string
}

type TransferRequest struct {
	ProductCode    string
	Color          *string
	SourceLocation string
	DestLocation   string
	Quantity       int
	Actor          string
}

// Entry books stock in: merges into the existing position or creates one, and
// appends the ENTRY movement in the same transaction.
func (r *StockRepository) Entry(req EntryRequest) error {
	if req.ProductCode == "" || req.Location == "" {
		return &ValidationError{Message: "product code and location are required"}
	}
	if req.Quantity <= 0 {
		return &ValidationError{Message: "quantity must be positive"}
	}

	req.Color = models.NormalizeColor(req.Color)

	key := positionKey(req.ProductCode, req.Color, req.Location)
	if !positionLocks.Acquire(key, lockTimeout()) {
		return &PersistenceError{Err: fmt.Errorf("timed out waiting for position %s", key)}
	}
	defer positionLocks.Release(key)

	// Piece weight from length and per-meter weight; the entry adds its own
	// weight contribution to the aggregate instead of recomputing it from a
	// fixed constant, because unit weight can differ between batches.
	pieceWeight := float64(req.Length) / 1000 * req.UnitWeight
	addedWeight := float64(req.Quantity) * pieceWeight

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var stock models.Stock
		q := tx.Where("product_code = ? AND location = ?", req.ProductCode, req.Location)
		err := whereColor(q, req.Color).First(&stock).Error

		description := req.Description

		switch {
		case err == nil:
			before := stock.Quantity
			stock.Quantity = before + req.Quantity
			stock.TotalWeight += addedWeight
			if err := tx.Save(&stock).Error; err != nil {
				return err
			}
			if description == "" {
				description = fmt.Sprintf("Stock entry: %d added", req.Quantity)
			}
			return tx.Create(&models.StockMovement{
				ProductCode:    req.ProductCode,
				Kind:           models.MovementEntry,
				Quantity:       req.Quantity,
				QuantityBefore: before,
				QuantityAfter:  stock.Quantity,
				Location:       req.Location,
				Description:    description,
				Actor:          req.Actor,
			}).Error

		case errors.Is(err, gorm.ErrRecordNotFound):
			stock = models.Stock{
				ProductCode: req.ProductCode,
				ProductName: req.ProductName,
				Series:      req.Series,
				Color:       req.Color,
				Length:      req.Length,
				UnitWeight:  req.UnitWeight,
				PieceWeight: pieceWeight,
				Quantity:    req.Quantity,
				TotalWeight: addedWeight,
				Location:    req.Location,
			}
			if err := tx.Create(&stock).Error; err != nil {
				return err
			}
			if description == "" {
				description = fmt.Sprintf("Initial stock entry: %d", req.Quantity)
			}
			return tx.Create(&models.StockMovement{
				ProductCode:    req.ProductCode,
				Kind:           models.MovementEntry,
				Quantity:       req.Quantity,
				QuantityBefore: 0,
				QuantityAfter:  req.Quantity,
				Location:       req.Location,
				Description:    description,
				Actor:          req.Actor,
			}).Error

		default:
			return err
		}
	})
	if err != nil {
		zap.S().Errorw("stock entry failed", "product", req.ProductCode, "location", req.Location, "error", err)
		return &PersistenceError{Err: err}
	}
	return nil
}

// Exit books stock out and returns the updated position. Callers use the
// returned row to check the critical stock limit.
func (r *StockRepository) Exit(req ExitRequest) (*models.Stock, error) {
	if req.ProductCode == "" || req.Location == "" {
		return nil, &ValidationError{Message: "product code and location are required"}
	}
	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: "quantity must be positive"}
	}

	req.Color = models.NormalizeColor(req.Color)

	key := positionKey(req.ProductCode, req.Color, req.Location)
	if !positionLocks.Acquire(key, lockTimeout()) {
		return nil, &PersistenceError{Err: fmt.Errorf("timed out waiting for position %s", key)}
	}
	defer positionLocks.Release(key)

	var stock *models.Stock
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		stock, txErr = r.exitTx(tx, req)
		return txErr
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		zap.S().Errorw("stock exit failed", "product", req.ProductCode, "location", req.Location, "error", err)
		return nil, &PersistenceError{Err: err}
	}
	return stock, nil
}

// exitTx performs the exit inside an existing transaction. The caller must
// already hold the position lock.
func (r *StockRepository) exitTx(tx *gorm.DB, req ExitRequest) (*models.Stock, error) {
	var stock models.Stock
	q := tx.Where("product_code = ? AND location = ?", req.ProductCode, req.Location)
	if err := whereColor(q, req.Color).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Message: "no stock at this location"}
		}
		return nil, err
	}

	before := stock.Quantity
	if before < req.Quantity {
		return nil, &InsufficientStockError{Available: before, Requested: req.Quantity}
	}

	// Unit weight is derived from the pre-mutation aggregate so rounding
	// never compounds across operations.
	unitWeight := 0.0
	if before > 0 {
		unitWeight = stock.TotalWeight / float64(before)
	}
	stock.Quantity = before - req.Quantity
	stock.TotalWeight -= float64(req.Quantity) * unitWeight

	if err := tx.Save(&stock).Error; err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Stock exit: %d removed", req.Quantity)
	}
	if err := tx.Create(&models.StockMovement{
		ProductCode:    req.ProductCode,
		Kind:           models.MovementExit,
		Quantity:       req.Quantity,
		QuantityBefore: before,
		QuantityAfter:  stock.Quantity,
		Location:       req.Location,
		Description:    description,
		Actor:          req.Actor,
	}).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// Transfer moves stock between two locations, carrying the proportional
// weight along and creating the destination position from the source metadata
// when it does not exist yet. Writes two TRANSFER movements.
func (r *StockRepository) Transfer(req TransferRequest) (*models.Stock, error) {
	if req.ProductCode == "" || req.SourceLocation == "" || req.DestLocation == "" {
		return nil, &ValidationError{Message: "product code, source and destination are required"}
	}
	if req.SourceLocation == req.DestLocation {
		return nil, &ValidationError{Message: "source and destination must differ"}
	}
	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: "quantity must be positive"}
	}

	req.Color = models.NormalizeColor(req.Color)

	keys := []string{
		positionKey(req.ProductCode, req.Color, req.SourceLocation),
		positionKey(req.ProductCode, req.Color, req.DestLocation),
	}
	if !positionLocks.AcquireAll(keys, lockTimeout()) {
		return nil, &PersistenceError{Err: fmt.Errorf("timed out waiting for positions of %s", req.ProductCode)}
	}
	defer positionLocks.ReleaseAll(keys)

	var source models.Stock
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("product_code = ? AND location = ?", req.ProductCode, req.SourceLocation)
		if err := whereColor(q, req.Color).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Message: "no stock at source location"}
			}
			return err
		}

		sourceBefore := source.Quantity
		if sourceBefore < req.Quantity {
			return &InsufficientStockError{Available: sourceBefore, Requested: req.Quantity}
		}

		unitWeight := 0.0
		if sourceBefore > 0 {
			unitWeight = source.TotalWeight / float64(sourceBefore)
		}
		movedWeight := float64(req.Quantity) * unitWeight

		source.Quantity = sourceBefore - req.Quantity
		source.TotalWeight -= movedWeight
		if err := tx.Save(&source).Error; err != nil {
			return err
		}

		var dest models.Stock
		destBefore := 0
		q = tx.Where("product_code = ? AND location = ?", req.ProductCode, req.DestLocation)
		err := whereColor(q, req.Color).First(&dest).Error
		switch {
		case err == nil:
			destBefore = dest.Quantity
			dest.Quantity = destBefore + req.Quantity
			dest.TotalWeight += movedWeight
			if err := tx.Save(&dest).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			dest = models.Stock{
				ProductCode: source.ProductCode,
				ProductName: source.ProductName,
				Series:      source.Series,
				Color:       req.Color,
				Length:      source.Length,
				UnitWeight:  source.UnitWeight,
				PieceWeight: source.PieceWeight,
				Quantity:    req.Quantity,
				TotalWeight: movedWeight,
				Location:    req.DestLocation,
			}
			if err := tx.Create(&dest).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Create(&models.StockMovement{
			ProductCode:    req.ProductCode,
			Kind:           models.MovementTransfer,
			Quantity:       req.Quantity,
			QuantityBefore: sourceBefore,
			QuantityAfter:  source.Quantity,
			Location:       req.SourceLocation,
			Description:    fmt.Sprintf("Transfer out: %d to %s", req.Quantity, req.DestLocation),
			Actor:          req.Actor,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.StockMovement{
			ProductCode:    req.ProductCode,
			Kind:           models.MovementTransfer,
			Quantity:       req.Quantity,
			QuantityBefore: destBefore,
			QuantityAfter:  destBefore + req.Quantity,
			Location:       req.DestLocation,
			Description:    fmt.Sprintf("Transfer in: %d from %s", req.Quantity, req.SourceLocation),
			Actor:          req.Actor,
		}).Error
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		zap.S().Errorw("stock transfer failed", "product", req.ProductCode,
			"source", req.SourceLocation, "dest", req.DestLocation, "error", err)
		return nil, &PersistenceError{Err: err}
	}
	return &source, nil
}

// ImportRecord reconciles one supplier sheet row against the position table.
// The sheet value overwrites the position and the quantity delta is journaled
// as an ENTRY or EXIT movement. Each row commits in its own transaction under
// the position lock, so a concurrent admission or exit never reads a quantity
// the import is halfway through overwriting. Reports whether an existing
// position was updated (false means a new one was created).
func (r *StockRepository) ImportRecord(record *models.Stock, actor string) (bool, error) {
	if record.ProductCode == "" || record.Location == "" {
		return false, &ValidationError{Message: "product code and location are required"}
	}

	record.Color = models.NormalizeColor(record.Color)

	key := positionKey(record.ProductCode, record.Color, record.Location)
	if !positionLocks.Acquire(key, lockTimeout()) {
		return false, &PersistenceError{Err: fmt.Errorf("timed out waiting for position %s", key)}
	}
	defer positionLocks.Release(key)

	updated := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Stock
		q := tx.Where("product_code = ? AND location = ?", record.ProductCode, record.Location)
		err := whereColor(q, record.Color).First(&existing).Error

		switch {
		case err == nil:
			updated = true
			oldQuantity := existing.Quantity
			existing.ProductName = record.ProductName
			existing.Series = record.Series
			existing.Length = record.Length
			existing.UnitWeight = record.UnitWeight
			existing.PieceWeight = record.PieceWeight
			existing.Quantity = record.Quantity
			existing.TotalWeight = record.TotalWeight
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}

			if oldQuantity == record.Quantity {
				return nil
			}
			kind := models.MovementEntry
			delta := record.Quantity - oldQuantity
			if delta < 0 {
				kind = models.MovementExit
				delta = -delta
			}
			return tx.Create(&models.StockMovement{
				ProductCode:    record.ProductCode,
				Kind:           kind,
				Quantity:       delta,
				QuantityBefore: oldQuantity,
				QuantityAfter:  record.Quantity,
				Location:       record.Location,
				Description:    "Excel import update",
				Actor:          actor,
			}).Error

		case errors.Is(err, gorm.ErrRecordNotFound):
			fresh := *record
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			if record.Quantity <= 0 {
				return nil
			}
			return tx.Create(&models.StockMovement{
				ProductCode:    record.ProductCode,
				Kind:           models.MovementEntry,
				Quantity:       record.Quantity,
				QuantityBefore: 0,
				QuantityAfter:  record.Quantity,
				Location:       record.Location,
				Description:    "Excel import new record",
				Actor:          actor,
			}).Error

		default:
			return err
		}
	})
	if err != nil {
		if IsBusinessError(err) {
			return updated, err
		}
		zap.S().Errorw("stock import failed", "product", record.ProductCode, "location", record.Location, "error", err)
		return updated, &PersistenceError{Err: err}
	}
	return updated, nil
}

type StockSummaryRow struct {
	ProductCode   string  `json:"product_code"`
	ProductName   string  `json:"product_name"`
	Color         *string `json:"color"`
	Location      string  `json:"location"`
	Quantity      int     `json:"quantity"`
	TotalWeight   float64 `json:"total_weight"`
	GroupQuantity int     `json:"group_quantity"`
	GroupWeight   float64 `json:"group_weight"`
}

// Summary lists per-location rows with quantity > 0, each annotated with the
// (product_code, color) group totals.
func (r *StockRepository) Summary(productCode string, color *string) ([]StockSummaryRow, error) {
	sql := `SELECT product_code, product_name, color, location, quantity, total_weight,
	SUM(quantity) OVER (PARTITION BY product_code, color) AS group_quantity,
	SUM(total_weight) OVER (PARTITION BY product_code, color) AS group_weight
	FROM stocks WHERE quantity > 0`

	var params []interface{}
	if productCode != "" {
		sql += " AND product_code = ?"
		params = append(params, productCode)
	}
	if c := models.NormalizeColor(color); c != nil {
		sql += " AND color = ?"
		params = append(params, *c)
	}
	sql += " ORDER BY product_code, color, location"

	var rows []StockSummaryRow
	if err := r.db.Raw(sql, params...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Movements lists the audit trail, newest first.
func (r *StockRepository) Movements(productCode, location, kind string, limit int) ([]models.StockMovement, error) {
	q := r.db.Model(&models.StockMovement{})
	if productCode != "" {
		q = q.Where("product_code = ?", productCode)
	}
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if limit <= 0 {
		limit = 100
	}

	var movements []models.StockMovement
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
