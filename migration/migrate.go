package migration

import (
	"stok-takip/models"

	"gorm.io/gorm"
)

// Migrate runs GORM auto-migration for all ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Stock{},
		&models.StockMovement{},
		&models.Reservation{},
		&models.ReservationMovement{},
		&models.ReservationNote{},
	); err != nil {
		return err
	}
	return noteIdentityIndex(db)
}

// noteIdentityIndex enforces one note per (product_code, normalized color).
// NULL and '' spell the same colorless identity, so a plain unique index on
// the nullable column cannot hold it; the index folds them with COALESCE.
func noteIdentityIndex(db *gorm.DB) error {
	if db.Migrator().HasIndex(&models.ReservationNote{}, "idx_reservation_notes_key") {
		return nil
	}
	switch db.Dialector.Name() {
	case "mysql":
		// functional index parts need their own parentheses
		return db.Exec("CREATE UNIQUE INDEX idx_reservation_notes_key ON reservation_notes (product_code, (COALESCE(color, '')))").Error
	case "sqlserver":
		// no expression indexes; note writes stay serialized by the identity
		// lock in the note repository
		return nil
	default:
		return db.Exec("CREATE UNIQUE INDEX idx_reservation_notes_key ON reservation_notes (product_code, COALESCE(color, ''))").Error
	}
}
