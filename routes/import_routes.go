package routes

import (
	"stok-takip/config"
	"stok-takip/controllers"
	"stok-takip/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupImportRoutes(app *fiber.App, db *gorm.DB) {
	importController := controllers.NewImportController(db)
	api := app.Group(config.MAIN_ROUTES+"/import", middleware.AuthMiddleware)

	api.Post("/stocks", importController.ImportStocks)
}
