package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"

	"dispatch-service/internal/adapters/repositories"
	"dispatch-service/internal/config"
	"dispatch-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool initializes the dispatch schema and loads the registry seed
// (areas, SMEs, warehouses, shippers) from JSON.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(context.Background(), databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/registry.json")
	if err := initAndSeed(sqlDB, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(sqlDB *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(sqlDB); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Printf("Seeding registries from %s...", seedPath)
	if err := repositories.SeedFromJSON(sqlDB, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
