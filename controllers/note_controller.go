package controllers

import (
	"strings"

	"stok-takip/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NoteController struct {
	DB *gorm.DB
}

func NewNoteController(DB *gorm.DB) *NoteController {
	return &NoteController{DB: DB}
}

type noteInput struct {
	ProductCode string  `json:"product_code"`
	Color       *string `json:"color"`
	Note        string  `json:"note"`
}

func (c *NoteController) Save(ctx *fiber.Ctx) error {
	var input noteInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	input.ProductCode = strings.TrimSpace(input.ProductCode)
	if input.ProductCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Product code is required"})
	}

	repo := repositories.NewNoteRepository(c.DB)
	if !repo.Save(input.ProductCode, input.Color, strings.TrimSpace(input.Note)) {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Reservation note could not be saved",
		})
	}

	savedNote, _ := repo.Get(input.ProductCode, input.Color)
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "Reservation note saved",
		"saved_note": savedNote,
	})
}

func (c *NoteController) Get(ctx *fiber.Ctx) error {
	productCode := strings.TrimSpace(ctx.Query("product_code"))
	if productCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Product code is required"})
	}

	var color *string
	if v := ctx.Query("color"); v != "" {
		color = &v
	}

	repo := repositories.NewNoteRepository(c.DB)
	note, found := repo.Get(productCode, color)

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"found":   found,
		"note":    note,
	})
}

func (c *NoteController) Delete(ctx *fiber.Ctx) error {
	var input noteInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	input.ProductCode = strings.TrimSpace(input.ProductCode)
	if input.ProductCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Product code is required"})
	}

	repo := repositories.NewNoteRepository(c.DB)
	if !repo.Delete(input.ProductCode, input.Color) {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Reservation note could not be deleted",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reservation note deleted",
	})
}
