package main

import (
	"fmt"
	"log"
	"time"

	"stok-takip/config"
	"stok-takip/controllers/idgen"
	"stok-takip/database"
	"stok-takip/migration"
	"stok-takip/routes"

	"github.com/gofiber/fiber/v2"
)

func main() {

	config.LoadConfig()
	config.SetupLogger()

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // uploads are capped at 16MB
	})

	db, err := database.OpenDatabaseConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate models
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	idgen.Init()
	database.RunSeeders(db)

	// Setup CORS middleware
	config.SetupCORS(app)

	// Setup routes
	routes.SetupAuthRoutes(app, db)
	routes.SetupStockRoutes(app, db)
	routes.SetupReservationRoutes(app, db)
	routes.SetupImportRoutes(app, db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	port := config.APP_PORT
	fmt.Println("🚀 Server running on port " + port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
