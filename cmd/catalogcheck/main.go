package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/catalog"
	"github.com/seongmin-dev/welfare-report/internal/common"
)

// catalogcheck loads the service catalog and reports normalization counts.
// Run it after updating the source workbook to catch malformed rows before
// a deploy.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	path := common.LoadConfig().Catalog.Path
	if len(os.Args) >= 2 {
		path = os.Args[1]
	}

	src, err := catalog.NewFileSource(path, logger)
	if err != nil {
		logger.Error("catalog source", "path", path, "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := catalog.Load(ctx, src, logger)
	if err != nil {
		logger.Error("catalog load failed", "path", path, "error", err)
		os.Exit(1)
	}

	var mobility, disability, lowIncome, elder int
	for _, e := range cat.Entries() {
		if e.Tags.Mobility {
			mobility++
		}
		if e.Tags.Disability {
			disability++
		}
		if e.Tags.LowIncome {
			lowIncome++
		}
		if e.Tags.AgeGroup == constants.AgeGroupElder {
			elder++
		}
	}

	logger.Info("catalog.summary",
		"path", path,
		"entries", cat.Len(),
		"mobility", mobility,
		"disability", disability,
		"low_income", lowIncome,
		"elder", elder,
	)
}
