package config

import (
	"os"

	"github.com/joho/godotenv"
)

var envPaths = []string{".env", ".env.local"}

// loadEnvFile loads the first of .env and .env.local that exists. Variables
// already set in the process environment are not overwritten.
func loadEnvFile() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return "", err
		}
		return envPath, nil
	}
	return "", os.ErrNotExist
}
