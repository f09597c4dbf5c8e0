package models

import (
	"time"

	"stok-takip/controllers/idgen"

	"gorm.io/gorm"
)

// Reservation statuses. A reservation starts ACTIVE and ends in exactly one of
// the two terminal states; terminal rows are never reactivated.
const (
	ReservationActive    = "ACTIVE"
	ReservationCancelled = "CANCELLED"
	ReservationFulfilled = "FULFILLED"
)

// Reservation movement kinds, mirroring StockMovement for the reservation side.
const (
	ReservationMovementReserve = "RESERVE"
	ReservationMovementCancel  = "CANCEL"
	ReservationMovementFulfill = "FULFILL"
)

// Reservation is a soft hold against available (unreserved) stock at one
// position. Fulfilling it converts the hold into a real stock exit.
type Reservation struct {
	ID          uint      `json:"ID" gorm:"primaryKey"`
	ProductCode string    `json:"product_code" gorm:"not null;index"`
	ProductName string    `json:"product_name"`
	Color       *string   `json:"color"`
	Location    string    `json:"location" gorm:"index"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	ReservedBy  string    `json:"reserved_by" gorm:"index"`
	Note        string    `json:"note"`
	Status      string    `json:"status" gorm:"default:ACTIVE;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReservationMovement is the append-only audit trail of reservation state
// transitions.
type ReservationMovement struct {
	ID            int64     `json:"ID" gorm:"primaryKey"`
	ReservationID uint      `json:"reservation_id" gorm:"not null;index"`
	Kind          string    `json:"kind" gorm:"not null"`
	ProductCode   string    `json:"product_code" gorm:"index"`
	Color         *string   `json:"color"`
	Location      string    `json:"location"`
	Quantity      int       `json:"quantity"`
	Actor         string    `json:"actor"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func (m *ReservationMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == 0 {
		m.ID = idgen.GenerateID()
	}
	return
}

// ReservationNote is a free-text annotation keyed by product+color only, not
// by location. One row per (product_code, normalized color); NULL and empty
// string are the same identity.
type ReservationNote struct {
	ID          uint      `json:"ID" gorm:"primaryKey"`
	ProductCode string    `json:"product_code" gorm:"not null;index"`
	Color       *string   `json:"color" gorm:"index"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
