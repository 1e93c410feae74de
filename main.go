package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"ledgerdoc/cmd"
	"ledgerdoc/internal/config"
	"ledgerdoc/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting ledgerdoc")

	cmd.Execute()

	log.Debug().Msg("ledgerdoc shutdown")
	os.Exit(0)
}
