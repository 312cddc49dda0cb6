package bootstrap

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env into the process environment. Variables already set win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Println("No .env file found, using system environment variables")
			return
		}
		log.Printf("Failed to read .env: %v", err)
	}
}
