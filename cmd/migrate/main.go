package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/taskhub-io/taskhub/internal/config"
	"github.com/taskhub-io/taskhub/internal/database"
	"github.com/taskhub-io/taskhub/internal/store"
)

// migrate applies pending migrations and reports the state of the database.
func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML)")
	envFile := flag.String("env", ".env", "Optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load %s: %v", *envFile, err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	applied, err := database.AppliedMigrations(db)
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	for _, m := range database.GetMigrations(db.DriverName()) {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		log.Printf("Migration %d (%s): %s", m.Version, m.Description, state)
	}

	users, err := store.New(db).CountUsers(context.Background())
	if err != nil {
		log.Fatalf("Database check failed: %v", err)
	}
	log.Printf("Database ready (%s), %d registered user(s)", db.DriverName(), users)
}
