// Command fuelreport builds a fuel allocation report for one trip from the
// local database and writes it as a CSV ledger, without going through the
// HTTP API. Intended for month-end batch runs and ad hoc audits.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sanjay-madala/intellicarrier-backend/internal/fuel"
	"github.com/sanjay-madala/intellicarrier-backend/internal/infrastructure/config"
	"github.com/sanjay-madala/intellicarrier-backend/internal/infrastructure/logging"
	"github.com/sanjay-madala/intellicarrier-backend/internal/infrastructure/storage"
	"github.com/sanjay-madala/intellicarrier-backend/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrEnv()

	dbPath := flag.String("db", cfg.Storage.DatabasePath, "path to the sqlite database")
	tripID := flag.String("trip", "", "trip ID to report on (required)")
	outPath := flag.String("out", "", "output CSV path (default: stdout)")
	flag.Parse()

	if *tripID == "" {
		fmt.Fprintln(os.Stderr, "usage: fuelreport -trip <trip-id> [-db path] [-out file.csv]")
		os.Exit(2)
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "fuelreport")

	store, err := storage.NewStorage(*dbPath)
	if err != nil {
		logger.Error("failed to open storage", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	service := reconcile.NewService(store, logger, cfg.Fleet.DefaultBusinessUnit)

	report, err := service.BuildFuelReport(*tripID)
	if err != nil {
		logger.Error("failed to build fuel report", "trip_id", *tripID, "error", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("failed to create output file", "path", *outPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := fuel.WriteCSV(out, report.Result()); err != nil {
		logger.Error("failed to write ledger", "error", err)
		os.Exit(1)
	}

	if report.EstimatedStart {
		logger.Warn("trip had no starting odometer, start was estimated from the first refill")
	}
	logger.Info("fuel report written",
		"trip_id", *tripID,
		"report_id", report.ID,
		"total_allocated", report.TotalAllocated,
		"total_refilled", report.TotalRefilled,
		"variance", report.Variance)
}
