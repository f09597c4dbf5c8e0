package models

import (
	"time"

	"stok-takip/controllers/idgen"

	"gorm.io/gorm"
)

// Movement kinds recorded in stock_movements.
const (
	MovementEntry    = "ENTRY"
	MovementExit     = "EXIT"
	MovementTransfer = "TRANSFER"
)

// Stock is one position: the quantity of a product+color sitting at a location.
// Uniqueness is (product_code, color, location); color is nullable and blank
// strings are folded to NULL before any write (see NormalizeColor).
// Rows are never hard-deleted, quantity may reach zero.
type Stock struct {
	ID            uint     `json:"ID" gorm:"primaryKey"`
	ProductCode   string   `json:"product_code" gorm:"not null;index;uniqueIndex:idx_stocks_key"`
	ProductName   string   `json:"product_name" gorm:"not null;index"`
	Series        string   `json:"series"`
	Color         *string  `json:"color" gorm:"uniqueIndex:idx_stocks_key"`
	Length        int      `json:"length"`
	UnitWeight    float64  `json:"unit_weight"`
	PieceWeight   float64  `json:"piece_weight"`
	Quantity      int      `json:"quantity" gorm:"default:0"`
	TotalWeight   float64  `json:"total_weight"`
	Location      string   `json:"location" gorm:"index;uniqueIndex:idx_stocks_key"`
	CriticalLimit int      `json:"critical_limit" gorm:"default:5"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockMovement is the append-only audit record of a quantity change.
// Transfers write two rows: one at the source, one at the destination.
type StockMovement struct {
	ID             int64     `json:"ID" gorm:"primaryKey"`
	ProductCode    string    `json:"product_code" gorm:"not null;index"`
	Kind           string    `json:"kind" gorm:"not null;index"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Location       string    `json:"location" gorm:"index"`
	Description    string    `json:"description"`
	Actor          string    `json:"actor"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == 0 {
		m.ID = idgen.GenerateID()
	}
	return
}
