package config

import (
	"log"

	"go.uber.org/zap"
)

// SetupLogger installs the global zap logger. Repositories log through
// zap.S() so tests get the default no-op logger without extra wiring.
func SetupLogger() {
	logger, err := zap.NewDevelopment()
	if getEnv("APP_ENV", "development") == "production" {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
}
