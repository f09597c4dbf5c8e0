package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"stok-takip/config"
	"stok-takip/middleware"
	"stok-takip/models"
	"stok-takip/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportController struct {
	DB *gorm.DB
}

func NewImportController(DB *gorm.DB) *ImportController {
	return &ImportController{DB: DB}
}

// Column positions of the supplier stock sheet. The export is a raw grid
// without headers; the stock block sits far to the right of the sheet and the
// first data row comes after the sixth row.
const (
	colLocation    = 93
	colProductCode = 95
	colProductName = 96
	colSeries      = 97
	colColor       = 98
	colLength      = 99
	colUnitWeight  = 100
	colPieceWeight = 101
	colQuantity    = 102
	colTotalWeight = 103
)

type StockImportResult struct {
	TotalRows     int      `json:"total_rows"`
	ImportedCount int      `json:"imported_count"`
	UpdatedCount  int      `json:"updated_count"`
	ErrorCount    int      `json:"error_count"`
	ErrorMessages []string `json:"error_messages"`
}

// ImportStocks loads the supplier Excel export and reconciles it against the
// positions table. Existing rows are overwritten with the sheet values and a
// movement for the quantity delta is recorded; new rows get an initial ENTRY.
// Rows commit one at a time through the stock engine, which holds the position
// lock per row; a failed row is reported and skipped, it does not abort the
// rest of the sheet.
func (c *ImportController) ImportStocks(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "File is required",
		})
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") &&
		!strings.HasSuffix(strings.ToLower(file.Filename), ".xls") {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Only Excel files (.xlsx, .xls) are allowed",
		})
	}

	fileContent, err := file.Open()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to open file",
		})
	}
	defer fileContent.Close()

	f, err := excelize.OpenReader(fileContent)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Failed to read Excel file",
		})
	}
	defer f.Close()

	sheet := config.ImportSheetName
	if sheet == "" {
		sheet = "3"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Sheet %q not found", sheet),
		})
	}

	skip := config.ImportSkipRows
	if skip <= 0 {
		skip = 6
	}
	if len(rows) <= skip {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "No data rows found in sheet",
		})
	}

	actor := middleware.Actor(ctx)
	result := StockImportResult{}
	repo := repositories.NewStockRepository(c.DB)

	for i, row := range rows[skip:] {
		rowNum := i + skip + 1

		productCode := strings.ToUpper(cell(row, colProductCode))
		if productCode == "" || productCode == "NAN" {
			continue
		}
		result.TotalRows++

		productName := cell(row, colProductName)
		if productName == "" {
			result.ErrorCount++
			result.ErrorMessages = append(result.ErrorMessages,
				fmt.Sprintf("Row %d: product name is required", rowNum))
			continue
		}

		record := models.Stock{
			ProductCode: productCode,
			ProductName: productName,
			Series:      cell(row, colSeries),
			Color:       models.NormalizeColor(cellPtr(row, colColor)),
			Length:      cellInt(row, colLength),
			UnitWeight:  cellFloat(row, colUnitWeight),
			Quantity:    cellInt(row, colQuantity),
			Location:    cell(row, colLocation),
		}
		// Derived weights are recomputed from length and per-meter weight;
		// the sheet's own piece/total columns are only a fallback.
		record.PieceWeight = float64(record.Length) / 1000 * record.UnitWeight
		if record.PieceWeight == 0 {
			record.PieceWeight = cellFloat(row, colPieceWeight)
		}
		record.TotalWeight = float64(record.Quantity) * record.PieceWeight
		if record.TotalWeight == 0 {
			record.TotalWeight = cellFloat(row, colTotalWeight)
		}

		updated, err := repo.ImportRecord(&record, actor)
		if err != nil {
			result.ErrorCount++
			result.ErrorMessages = append(result.ErrorMessages,
				fmt.Sprintf("Row %d: %s", rowNum, err.Error()))
			continue
		}

		if updated {
			result.UpdatedCount++
		} else {
			result.ImportedCount++
		}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Import completed: %d new, %d updated, %d errors",
			result.ImportedCount, result.UpdatedCount, result.ErrorCount),
		"data": result,
	})
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellPtr(row []string, idx int) *string {
	v := cell(row, idx)
	if v == "" {
		return nil
	}
	return &v
}

// cellInt coerces a numeric cell, treating anything unparsable as zero the
// same way the import has always handled dirty sheets.
func cellInt(row []string, idx int) int {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, idx), ",", "."), 64)
	if err != nil {
		return 0
	}
	return int(v)
}

func cellFloat(row []string, idx int) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, idx), ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
