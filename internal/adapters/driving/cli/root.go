// Package cli implements the planilha command-line interface using cobra.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	broadcastmem "github.com/planilha-labs/planilha-cli/internal/adapters/driven/broadcast/memory"
	configfile "github.com/planilha-labs/planilha-cli/internal/adapters/driven/config/file"
	"github.com/planilha-labs/planilha-cli/internal/adapters/driven/registry/brasilapi"
	storagemem "github.com/planilha-labs/planilha-cli/internal/adapters/driven/storage/memory"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
	"github.com/planilha-labs/planilha-cli/internal/core/services"
	"github.com/planilha-labs/planilha-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in initServices and shared by the commands.
var (
	configStore        driven.ConfigStore
	sheetService       driving.SheetService
	presenceTracker    driving.PresenceTracker
	enrichOrchestrator driving.EnrichmentOrchestrator
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "planilha",
	Short: "Collaborative sheets with CNPJ enrichment",
	Long: `Planilha manages collaborative spreadsheets whose rows can be
enriched with Brazilian company registry (CNPJ) data.

Sheets live in memory and are served to AI assistants and other clients
over the Model Context Protocol.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// initServices wires the adapters and core services before any command runs.
// Already-wired services are left alone so tests can inject fakes.
func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if sheetService != nil {
		return nil
	}

	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initialising config store: %w", err)
	}
	configStore = cfg

	sheets := storagemem.NewSheetStore()
	sessions := storagemem.NewSessionStore(storagemem.DefaultSessionCap)
	relay := broadcastmem.NewRelay()

	registry := brasilapi.NewClient(brasilapi.Options{
		BaseURL:           cfg.GetString(configfile.KeyRegistryBaseURL),
		Timeout:           time.Duration(cfg.GetInt(configfile.KeyRegistryTimeout)) * time.Second,
		RequestsPerSecond: cfg.GetFloat(configfile.KeyRegistryRate),
	})

	sheetService = services.NewSheetService(sheets, relay)
	presenceTracker = services.NewPresenceTracker(relay)
	enrichOrchestrator = services.NewEnrichmentOrchestrator(sheets, sessions, registry, relay)

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
