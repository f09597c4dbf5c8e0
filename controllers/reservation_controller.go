package controllers

import (
	"stok-takip/middleware"
	"stok-takip/repositories"
	"stok-takip/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReservationController struct {
	DB *gorm.DB
}

func NewReservationController(DB *gorm.DB) *ReservationController {
	return &ReservationController{DB: DB}
}

type createReservationInput struct {
	ProductCode string  `json:"product_code" validate:"required"`
	ProductName string  `json:"product_name"`
	Color       *string `json:"color"`
	Location    string  `json:"location" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	ReservedBy  string  `json:"reserved_by" validate:"required"`
	Note        string  `json:"note"`
}

func (c *ReservationController) Create(ctx *fiber.Ctx) error {
	var input createReservationInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewReservationRepository(c.DB)
	id, err := repo.Create(repositories.CreateReservationRequest{
		ProductCode: input.ProductCode,
		ProductName: input.ProductName,
		Color:       input.Color,
		Location:    input.Location,
		Quantity:    input.Quantity,
		ReservedBy:  input.ReservedBy,
		Note:        input.Note,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"message":        "Reservation created",
		"reservation_id": id,
	})
}

type reservationActionInput struct {
	Note string `json:"note"`
}

func (c *ReservationController) Cancel(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid reservation id"})
	}

	var input reservationActionInput
	_ = ctx.BodyParser(&input)

	repo := repositories.NewReservationRepository(c.DB)
	if err := repo.Cancel(uint(id), middleware.Actor(ctx), input.Note); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reservation cancelled",
	})
}

func (c *ReservationController) Fulfill(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid reservation id"})
	}

	var input reservationActionInput
	_ = ctx.BodyParser(&input)

	repo := repositories.NewReservationRepository(c.DB)
	stock, err := repo.Fulfill(uint(id), middleware.Actor(ctx), input.Note)
	if err != nil {
		return errorResponse(ctx, err)
	}

	utils.CheckCriticalStock(stock)

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reservation fulfilled, stock booked out",
	})
}

func (c *ReservationController) ListActive(ctx *fiber.Ctx) error {
	repo := repositories.NewReservationRepository(c.DB)
	rows, err := repo.ListActive(repositories.ActiveReservationFilter{
		ProductCode: ctx.Query("product_code"),
		Location:    ctx.Query("location"),
		ReservedBy:  ctx.Query("reserved_by"),
	})
	if err != nil {
		rows = []repositories.ActiveReservationRow{}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"reservations": rows},
	})
}

func (c *ReservationController) Status(ctx *fiber.Ctx) error {
	productCode := ctx.Query("product_code")
	if productCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Product code is required"})
	}

	var color *string
	if v := ctx.Query("color"); v != "" {
		color = &v
	}

	repo := repositories.NewReservationRepository(c.DB)
	rows, err := repo.Status(productCode, color, ctx.Query("location"))
	if err != nil {
		rows = []repositories.ReservationStatusRow{}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"positions": rows},
	})
}
