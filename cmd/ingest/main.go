// Command ingest loads formulary source files into the database.
//
// It parses the preferred drug list CSV and the prior authorization /
// medical necessity determination list, merges them, and upserts the
// result so the API picks it up on the next catalog refresh.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/formulary-api/config"
	"github.com/giygas/formulary-api/formularyparser"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/storage"
)

func main() {
	drugsPath := flag.String("drugs", "", "path to the preferred drug list CSV")
	paMNDPath := flag.String("pa-mnd", "", "path to the PA/MND drug list CSV (optional)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLoggerForConfig("logs", cfg)

	if *drugsPath == "" {
		logging.Error("Missing required -drugs flag")
		flag.Usage()
		os.Exit(2)
	}

	parser := formularyparser.NewFormularyParser()

	records, err := parser.LoadPreferredDrugs(*drugsPath)
	if err != nil {
		logging.Error("Failed to parse preferred drug list", "path", *drugsPath, "error", err)
		os.Exit(1)
	}

	if *paMNDPath != "" {
		paMNDNames, err := parser.LoadPAMNDList(*paMNDPath)
		if err != nil {
			logging.Error("Failed to parse PA/MND list", "path", *paMNDPath, "error", err)
			os.Exit(1)
		}
		records = formularyparser.MergeDrugData(records, paMNDNames)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logging.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	upserted, err := store.UpsertRecords(ctx, records)
	if err != nil {
		logging.Error("Failed to upsert records", "error", err)
		os.Exit(1)
	}

	logging.Info("Ingest complete",
		"parsed", len(records),
		"upserted", upserted)
}
