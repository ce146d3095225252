package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"stock-service/internal/config"
	"stock-service/internal/importer"
	"stock-service/internal/repository"
	"stock-service/internal/services"
	"stock-service/internal/storage"
)

func main() {
	flavorName := flag.String("flavor", "catalog", "Import type: catalog, transfer or expiry")
	path := flag.String("file", "", "Required: path to an .xlsx or .csv file")
	dryRun := flag.Bool("dry-run", false, "Parse and merge into an empty in-memory catalog (no database writes)")
	flag.Parse()

	_ = godotenv.Load()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	flavor, err := importer.FlavorByName(*flavorName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %q\n", err, *flavorName)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	opts := importer.Options{MaxRows: cfg.ImportMaxRows, Timeout: cfg.ImportTimeout, TempDir: cfg.UploadTempDir}

	var svc *importer.Service
	if *dryRun {
		svc = importer.NewService(repository.NewMemoryItemStore(), nil, nil, nil, nil, opts, logger)
	} else {
		db, err := config.InitDB(cfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		// The server's list cache must see CLI imports too.
		redisClient, err := config.InitRedis(cfg)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, server item list cache will not be invalidated")
			redisClient = nil
		}
		if redisClient != nil {
			defer redisClient.Close()
		}
		archive, closeArchive, err := storage.OpenArchive(context.Background(), cfg.ArchiveBackend, cfg.ArchiveDir, cfg.GCSBucket)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open upload archive")
		}
		defer closeArchive()
		svc = importer.NewService(
			repository.NewItemRepository(db, redisClient, logger),
			repository.NewUploadRepository(db),
			archive,
			services.NewAuditService(repository.NewActivityRepository(db), logger),
			nil,
			opts,
			logger,
		)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	outcome, err := svc.Import(context.Background(), importer.Request{
		Flavor:   flavor,
		FileName: filepath.Base(*path),
		File:     f,
	})
	if err != nil {
		var se *importer.StructuralError
		if errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, se.Message())
			os.Exit(2)
		}
		logger.WithError(err).Fatal("Import failed")
	}

	fmt.Fprintln(os.Stderr, outcome.Summary())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		logger.WithError(err).Fatal("Failed to write outcome")
	}
}
