// CLI tool to import a browser storage export into the configured storage
// backend. The export is a JSON object of storage key to stored string, as
// produced by dumping the browser's localStorage. Structured history and
// the older flat meals/target keys are both understood.
// Usage: go run ./cmd/import-legacy -file export.json [-date YYYY-MM-DD]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/config"
	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/logger"
	"lg/calorie-dashboard-api/internal/storage"
)

func main() {
	file := flag.String("file", "", "path to the browser storage export")
	date := flag.String("date", "", "date to file legacy entries under (default today)")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	today := *date
	if today == "" {
		today = time.Now().In(cfg.Location).Format(diet.DateLayout)
	}
	if _, err := diet.ParseDate(today); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -date: %v\n", err)
		os.Exit(2)
	}

	stats, source, err := run(context.Background(), cfg, *file, today, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %s history: %d day(s), %d meal(s), %d activit(ies), %d skipped.\n",
		source, stats.Days, stats.Meals, stats.Activities, stats.Skipped)
}

func run(ctx context.Context, cfg *config.Config, path, today string, log *zap.Logger) (diet.ImportStats, diet.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return diet.ImportStats{}, diet.SourceEmpty, err
	}
	decoded, err := decodeExport(data, today)
	if err != nil {
		return diet.ImportStats{}, diet.SourceEmpty, err
	}

	repo, closeRepo, err := storage.Open(ctx, cfg, today, log)
	if err != nil {
		return diet.ImportStats{}, decoded.Source, err
	}
	defer closeRepo()

	stats, err := diet.Import(ctx, repo, decoded.History)
	return stats, decoded.Source, err
}

// decodeExport refuses an export that only decodes to the seeded example
// log; importing that would add sample meals to real data.
func decodeExport(data []byte, today string) (diet.Decoded, error) {
	blobs, err := diet.BlobsFromExport(data)
	if err != nil {
		return diet.Decoded{}, err
	}
	decoded := diet.DecodeStored(blobs, today)
	switch decoded.Source {
	case diet.SourceSeeded:
		return decoded, fmt.Errorf("export is unreadable: %w", decoded.Err)
	case diet.SourceEmpty:
		return decoded, fmt.Errorf("export holds no calorie history")
	}
	return decoded, nil
}
