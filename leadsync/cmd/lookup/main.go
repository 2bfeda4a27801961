package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/natserract/mkto/pkg/config"
	"github.com/natserract/mkto/pkg/marketo"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: lookup <email|id> [list-name]\n")
		os.Exit(2)
	}
	key := os.Args[1]

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	client, err := cfg.NewClient(logger)
	if err != nil {
		logger.Error("Failed to create client", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var lead *marketo.LeadRecord
	if strings.Contains(key, "@") {
		lead = client.GetLeadByEmail(ctx, key)
	} else {
		lead = client.GetLeadByID(ctx, key)
	}
	if lead == nil {
		fmt.Fprintf(os.Stderr, "Lead not found: %s\n", key)
		os.Exit(1)
	}

	fmt.Printf("Lead %s <%s>\n", lead.ID, lead.Email)
	for a := range lead.Attributes().All() {
		fmt.Printf("  %-30s %-9s %s\n", a.Name, a.Type, a.Value)
	}

	if len(os.Args) > 2 && lead.Email != "" {
		listName := os.Args[2]
		result := client.IsMemberOfList(ctx, marketo.ListByName(listName), lead.Email)
		if result == nil {
			fmt.Fprintf(os.Stderr, "Failed to check membership of list %s\n", listName)
			os.Exit(1)
		}
		fmt.Printf("List %s: %v\n", listName, result)
	}
}
