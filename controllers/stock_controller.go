package controllers

import (
	"fmt"
	"net/http"

	"stok-takip/middleware"
	"stok-takip/repositories"
	"stok-takip/utils"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type StockController struct {
	DB *gorm.DB
}

func NewStockController(DB *gorm.DB) *StockController {
	return &StockController{DB: DB}
}

type stockEntryInput struct {
	ProductCode string  `json:"product_code" validate:"required"`
	ProductName string  `json:"product_name" validate:"required"`
	Series      string  `json:"series"`
	Color       *string `json:"color"`
	Location    string  `json:"location" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Length      int     `json:"length"`
	UnitWeight  float64 `json:"unit_weight"`
	Description string  `json:"description"`
}

func (c *StockController) Entry(ctx *fiber.Ctx) error {
	var input stockEntryInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewStockRepository(c.DB)
	err := repo.Entry(repositories.EntryRequest{
		ProductCode: input.ProductCode,
		ProductName: input.ProductName,
		Series:      input.Series,
		Color:       input.Color,
		Location:    input.Location,
		Quantity:    input.Quantity,
		Length:      input.Length,
		UnitWeight:  input.UnitWeight,
		Actor:       middleware.Actor(ctx),
		Description: input.Description,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stock entry successful",
	})
}

type stockExitInput struct {
	ProductCode string  `json:"product_code" validate:"required"`
	Color       *string `json:"color"`
	Location    string  `json:"location" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Description string  `json:"description"`
}

func (c *StockController) Exit(ctx *fiber.Ctx) error {
	var input stockExitInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewStockRepository(c.DB)
	stock, err := repo.Exit(repositories.ExitRequest{
		ProductCode: input.ProductCode,
		Color:       input.Color,
		Location:    input.Location,
		Quantity:    input.Quantity,
		Actor:       middleware.Actor(ctx),
		Description: input.Description,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	utils.CheckCriticalStock(stock)

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stock exit successful",
	})
}

type stockTransferInput struct {
	ProductCode    string  `json:"product_code" validate:"required"`
	Color          *string `json:"color"`
	SourceLocation string  `json:"source_location" validate:"required"`
	DestLocation   string  `json:"dest_location" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
}

func (c *StockController) Transfer(ctx *fiber.Ctx) error {
	var input stockTransferInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewStockRepository(c.DB)
	source, err := repo.Transfer(repositories.TransferRequest{
		ProductCode:    input.ProductCode,
		Color:          input.Color,
		SourceLocation: input.SourceLocation,
		DestLocation:   input.DestLocation,
		Quantity:       input.Quantity,
		Actor:          middleware.Actor(ctx),
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	utils.CheckCriticalStock(source)

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stock transfer successful",
	})
}

// Summary degrades to an empty list on store failure; display endpoints never
// surface raw store errors.
func (c *StockController) Summary(ctx *fiber.Ctx) error {
	productCode := ctx.Query("product_code")
	var color *string
	if v := ctx.Query("color"); v != "" {
		color = &v
	}

	repo := repositories.NewStockRepository(c.DB)
	rows, err := repo.Summary(productCode, color)
	if err != nil {
		rows = []repositories.StockSummaryRow{}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"stocks": rows},
	})
}

func (c *StockController) Movements(ctx *fiber.Ctx) error {
	repo := repositories.NewStockRepository(c.DB)
	movements, err := repo.Movements(
		ctx.Query("product_code"),
		ctx.Query("location"),
		ctx.Query("kind"),
		ctx.QueryInt("limit", 100),
	)
	if err != nil {
		movements = nil
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"movements": movements},
	})
}

// ExportExcel streams the current stock summary as an xlsx download.
func (c *StockController) ExportExcel(ctx *fiber.Ctx) error {
	repo := repositories.NewStockRepository(c.DB)
	rows, err := repo.Summary(ctx.Query("product_code"), nil)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to load stock"})
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Product Code")
	f.SetCellValue(sheet, "B1", "Product Name")
	f.SetCellValue(sheet, "C1", "Color")
	f.SetCellValue(sheet, "D1", "Location")
	f.SetCellValue(sheet, "E1", "Quantity")
	f.SetCellValue(sheet, "F1", "Total Weight")

	for i, row := range rows {
		color := ""
		if row.Color != nil {
			color = *row.Color
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.ProductCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.ProductName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), color)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), row.Location)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), row.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), row.TotalWeight)
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="stock_report.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}

	return nil
}
