package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/yourusername/verification-mailer/internal/config"
	"github.com/yourusername/verification-mailer/pkg/database"
)

func main() {
	force := flag.Int("force", -1, "force the schema version and clear the dirty flag instead of migrating up")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *force >= 0 {
		log.Printf("Forcing migration version to %d to clean dirty state...", *force)
		if err := database.ForceVersion(db, cfg.Database.Driver, *force); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		log.Println("Dirty state cleaned. Run the migrator again without -force.")
		return
	}

	if err := database.MigrateDB(db, cfg.Database.Driver); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
