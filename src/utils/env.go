package utils

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const envFilename = ".env"

// InitEnvironmentVariables loads the local .env file in development.
// Production deployments provide real environment variables instead.
func InitEnvironmentVariables() error {
	if os.Getenv("GO_ENV") == "production" {
		log.Info("running in production environment")
		return nil
	}

	if err := godotenv.Load(envFilename); err != nil {
		log.Warnf("InitEnvironmentVariables: no %s file loaded: %v", envFilename, err)
	}

	return nil
}

// GetEnv returns the value of key, or fallback if unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
