package routes

import (
	"stok-takip/config"
	"stok-takip/controllers"
	"stok-takip/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupStockRoutes(app *fiber.App, db *gorm.DB) {
	stockController := controllers.NewStockController(db)
	api := app.Group(config.MAIN_ROUTES+"/stocks", middleware.AuthMiddleware)

	api.Post("/entry", stockController.Entry)
	api.Post("/exit", stockController.Exit)
	api.Post("/transfer", stockController.Transfer)
	api.Get("/summary", stockController.Summary)
	api.Get("/movements", stockController.Movements)
	api.Get("/excel", stockController.ExportExcel)
}
