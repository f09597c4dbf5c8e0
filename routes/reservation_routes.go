package routes

import (
	"stok-takip/config"
	"stok-takip/controllers"
	"stok-takip/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupReservationRoutes(app *fiber.App, db *gorm.DB) {
	reservationController := controllers.NewReservationController(db)
	api := app.Group(config.MAIN_ROUTES+"/reservations", middleware.AuthMiddleware)

	api.Post("/", reservationController.Create)
	api.Get("/", reservationController.ListActive)
	api.Get("/status", reservationController.Status)
	api.Put("/:id/cancel", reservationController.Cancel)
	api.Put("/:id/fulfill", reservationController.Fulfill)

	noteController := controllers.NewNoteController(db)
	notes := app.Group(config.MAIN_ROUTES+"/notes", middleware.AuthMiddleware)

	notes.Post("/", noteController.Save)
	notes.Get("/", noteController.Get)
	notes.Delete("/", noteController.Delete)
}
