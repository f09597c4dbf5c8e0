package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

var (
	MAIN_ROUTES   string
	APP_PORT      string
	JWTSecret     string
	JWTExpiration int

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	// LockTimeout bounds how long a mutating operation waits for its
	// position key before giving up with a transient failure.
	LockTimeout time.Duration

	// Excel import layout of the supplier stock sheet.
	ImportSheetName string
	ImportSkipRows  int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AlertEmails  []string

	allowedOrigins map[string]bool
)

// LoadConfig reads .env and initializes the configuration variables.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Server Configuration
	MAIN_ROUTES = getEnv("MAIN_ROUTES", "/api/v1")
	APP_PORT = getEnv("APP_PORT", "5001")

	// JWT Configuration
	JWTSecret = getEnv("JWT_SECRET", "dev-secret-key-change-in-production")
	JWTExpiration = getEnvAsInt("JWT_EXPIRATION", 86400)

	// Database Configuration
	DBDriver = getEnv("DB_DRIVER", "sqlite")
	DBHost = getEnv("DB_HOST", "localhost")
	DBPort = getEnv("DB_PORT", "5432")
	DBUser = getEnv("DB_USER", "postgres")
	DBPassword = getEnv("DB_PASSWORD", "password")
	DBName = getEnv("DB_NAME", "stok_takip")
	DBPath = getEnv("DB_PATH", "stok_takip_dev.db")

	LockTimeout = time.Duration(getEnvAsInt("LOCK_TIMEOUT_SECONDS", 20)) * time.Second

	// Excel Import Configuration
	ImportSheetName = getEnv("IMPORT_SHEET_NAME", "3")
	ImportSkipRows = getEnvAsInt("IMPORT_SKIP_ROWS", 6)

	// SMTP Configuration for critical stock alerts
	SMTPHost = getEnv("SMTP_HOST", "")
	SMTPPort = getEnvAsInt("SMTP_PORT", 465)
	SMTPUser = getEnv("SMTP_USER", "")
	SMTPPassword = getEnv("SMTP_PASSWORD", "")
	AlertEmails = splitAndTrim(getEnv("ALERT_EMAILS", ""))

	loadAllowedOrigins()
}

// getEnv reads an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadAllowedOrigins loads the allowed origin list from the environment.
func loadAllowedOrigins() {
	allowedOrigins = make(map[string]bool)
	originsStr := getEnv("ALLOWED_ORIGINS", "")

	if originsStr == "" {
		allowedOrigins = map[string]bool{
			"http://127.0.0.1:3000": true,
		}
		return
	}

	for _, origin := range splitAndTrim(originsStr) {
		allowedOrigins[origin] = true
	}
}

func SetupCORS(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if allowedOrigins[origin] {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		// Handle preflight request
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	})
}
