package utils

import (
	"fmt"

	"stok-takip/config"
	"stok-takip/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SendCriticalStockAlert mails a warning when a position drops to or below
// its critical limit. Best effort: callers fire it from a goroutine and the
// stock operation result never depends on it.
func SendCriticalStockAlert(stock *models.Stock) {
	if config.SMTPHost == "" || len(config.AlertEmails) == 0 {
		return
	}

	subject := fmt.Sprintf("⚠ Critical stock: %s @ %s", stock.ProductCode, stock.Location)
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Stock below critical limit</h3>
				<p>Product: <strong>%s</strong> %s</p>
				<p>Color: %s</p>
				<p>Location: %s</p>
				<p>Remaining quantity: <strong>%d</strong> (limit %d)</p>
				<p>This is an auto-generated email. Please do not reply.</p>
			</body>
		</html>
	`, stock.ProductCode, stock.ProductName, models.ColorString(stock.Color),
		stock.Location, stock.Quantity, stock.CriticalLimit)

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.SMTPUser)
	msg.SetHeader("To", config.AlertEmails...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		zap.S().Errorw("critical stock alert mail failed", "product", stock.ProductCode, "error", err)
	}
}

// CheckCriticalStock fires the alert mail in the background when needed.
func CheckCriticalStock(stock *models.Stock) {
	if stock == nil || stock.Quantity > stock.CriticalLimit {
		return
	}
	go SendCriticalStockAlert(stock)
}
