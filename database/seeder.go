package database

import (
	"errors"
	"log"

	"stok-takip/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunSeeders creates the default admin account when the users table is empty.
func RunSeeders(db *gorm.DB) {
	var existing models.User
	err := db.Where("username = ?", "admin").First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check admin user: %v", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash default password: %v", err)
		return
	}

	admin := models.User{
		Username: "admin",
		Password: string(hashed),
		Name:     "Administrator",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin user: %v", err)
	}
}
