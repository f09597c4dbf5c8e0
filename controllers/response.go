package controllers

import (
	"errors"

	"stok-takip/repositories"

	"github.com/gofiber/fiber/v2"
)

// errorResponse translates a repository error into the {success, message,
// detail?} shape the UI consumes. Store faults surface as a generic soft
// failure; the typed business errors carry their numeric context along.
func errorResponse(ctx *fiber.Ctx, err error) error {
	var validation *repositories.ValidationError
	if errors.As(err, &validation) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": validation.Message,
		})
	}

	var notFound *repositories.NotFoundError
	if errors.As(err, &notFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": notFound.Message,
		})
	}

	var insufficient *repositories.InsufficientStockError
	if errors.As(err, &insufficient) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Insufficient stock",
			"detail": fiber.Map{
				"available": insufficient.Available,
				"requested": insufficient.Requested,
			},
		})
	}

	var unavailable *repositories.InsufficientAvailableError
	if errors.As(err, &unavailable) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Insufficient available stock",
			"detail": fiber.Map{
				"stock":     unavailable.Stock,
				"reserved":  unavailable.Reserved,
				"available": unavailable.Available,
				"requested": unavailable.Requested,
			},
		})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Operation failed, please try again",
	})
}
