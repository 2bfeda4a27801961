package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/natserract/mkto/leadsync/schema/postgres"
	"github.com/natserract/mkto/leadsync/services"
	"github.com/natserract/mkto/pkg/config"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path := "leads.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open leads file", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to open leads file: %v\n", err)
		os.Exit(1)
	}
	leads, err := services.ReadLeads(f)
	f.Close()
	if err != nil {
		logger.Error("Failed to read leads", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to read leads: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, postgres.NewConfig(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Error("Failed to initialize schema", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to initialize schema: %v\n", err)
		os.Exit(1)
	}

	transport, err := cfg.NewTransport(logger)
	if err != nil {
		logger.Error("Failed to create transport", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to create transport: %v\n", err)
		os.Exit(1)
	}
	// Each batch gets its own client; they share the transport
	newClient := func() services.LeadSyncer {
		return cfg.NewClientWithTransport(transport, logger)
	}

	syncSvc := services.NewSyncService(newClient, services.NewPostgresStore(db, logger), logger)

	metrics, err := syncSvc.SyncAll(ctx, leads)
	if err != nil {
		logger.Error("Lead sync interrupted", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	fmt.Printf("Sync Metrics:\n")
	fmt.Printf("  Batches: %d (%d failed)\n", metrics.Batches(), metrics.FailedBatches())
	fmt.Printf("  Leads: %d succeeded, %d failed\n", metrics.Succeeded(), metrics.Failed())

	if err != nil || metrics.Failed() > 0 {
		os.Exit(1)
	}
}
