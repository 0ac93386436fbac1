package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/taskhub-io/taskhub/internal/api"
	"github.com/taskhub-io/taskhub/internal/config"
	"github.com/taskhub-io/taskhub/internal/database"
	"github.com/taskhub-io/taskhub/internal/storage"
	"github.com/taskhub-io/taskhub/internal/store"
)

const version = "0.1.0"

// configInit is swapped out in tests
var configInit = config.LoadConfig

func initializeAPI(configPath string) (*api.Api, func(), error) {
	cfg, err := configInit(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { db.Close() }

	var opts []api.Option
	if cfg.Export.Enabled() {
		exporter, err := storage.NewS3Client(context.Background(), cfg.Export)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, api.WithExporter(exporter))
	}

	a, err := api.NewApi(*cfg, store.New(db), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return a, cleanup, nil
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML)")
	envFile := flag.String("env", ".env", "Optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load %s: %v", *envFile, err)
	}

	log.Printf("Starting TaskHub API v%s with config: %q", version, *configPath)

	a, cleanup, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err := a.Serve(); err != nil {
		log.Printf("Server error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
