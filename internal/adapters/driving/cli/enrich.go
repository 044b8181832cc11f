package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/planilha-labs/planilha-cli/internal/adapters/driven/config/file"
	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <csv-file>",
	Short: "Enrich a CSV of companies with registry data",
	Long: `Loads a CSV file into a sheet, enriches every row that carries a
CNPJ against the company registry, and optionally writes the enriched
table back out as CSV.

The first CSV line is treated as the header; a column named cnpj (or
tax_id, documento, ...) provides the tax ids.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringP("kind", "k", "company", "enrichment kind: company, address, email or phone")
	enrichCmd.Flags().String("tax-id-field", "", "column holding the CNPJ")
	enrichCmd.Flags().Int("batch-size", 0, "rows per batch")
	enrichCmd.Flags().Int("concurrency", 0, "batches in flight at once")
	enrichCmd.Flags().StringP("output", "o", "", "write the enriched sheet to this CSV file")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if sheetService == nil || enrichOrchestrator == nil {
		return errors.New("enrichment service not configured")
	}

	rows, err := readCSV(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if len(rows) == 0 {
		return errors.New("no data rows in CSV")
	}

	ctx := cmd.Context()

	sheet, err := sheetService.Create(ctx, args[0], rows, "cli")
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	cmd.Printf("Loaded %d rows into sheet %s.\n", len(sheet.Rows), sheet.ID)

	kindFlag, _ := cmd.Flags().GetString("kind")           //nolint:errcheck // flag is registered
	taxIDField, _ := cmd.Flags().GetString("tax-id-field") //nolint:errcheck // flag is registered
	batchSize, _ := cmd.Flags().GetInt("batch-size")       //nolint:errcheck // flag is registered
	concurrency, _ := cmd.Flags().GetInt("concurrency")    //nolint:errcheck // flag is registered
	output, _ := cmd.Flags().GetString("output")           //nolint:errcheck // flag is registered

	opts := domain.EnrichmentOptions{
		TaxIDField:  taxIDField,
		BatchSize:   batchSize,
		Concurrency: concurrency,
	}
	applyConfigDefaults(&opts)

	sessionID, err := enrichOrchestrator.Enrich(ctx, sheet.ID, domain.EnrichmentKind(kindFlag), opts, "cli")
	if err != nil {
		return fmt.Errorf("starting enrichment: %w", err)
	}
	cmd.Printf("Enriching (session %s)...\n", sessionID)

	if err := enrichWithProgress(ctx, cmd, enrichOrchestrator, sessionID); err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	stats, err := sheetService.Stats(ctx, sheet.ID, opts.TaxIDField)
	if err == nil {
		cmd.Printf("Enriched %d of %d rows (%d without tax id).\n",
			stats.Enriched, stats.Total, stats.Total-stats.WithTaxID)
	}

	if output != "" {
		if err := writeCSV(ctx, output, sheet.ID); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		cmd.Printf("Wrote enriched sheet to %s.\n", output)
	}
	return nil
}

// applyConfigDefaults fills unset options from the config store; anything
// still unset falls back to the built-in defaults.
func applyConfigDefaults(opts *domain.EnrichmentOptions) {
	if configStore == nil {
		return
	}
	if opts.TaxIDField == "" {
		opts.TaxIDField = configStore.GetString(configfile.KeyEnrichmentTaxIDField)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = configStore.GetInt(configfile.KeyEnrichmentBatchSize)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = configStore.GetInt(configfile.KeyEnrichmentConcurrency)
	}
}

// enrichWithProgress waits for the session while displaying progress updates.
func enrichWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.EnrichmentOrchestrator,
	sessionID string,
) error {
	// Wait in a goroutine so we can poll progress alongside.
	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Wait(ctx, sessionID)
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastProcessed := -1
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
			session, sessErr := orch.Session(ctx, sessionID)
			if sessErr != nil {
				return sessErr
			}
			cmd.Printf("\rProcessed %d of %d rows.\n",
				session.Progress.Processed, session.Progress.Total)
			switch session.Status {
			case domain.SessionError:
				return errors.New(session.Error)
			case domain.SessionCancelled:
				return errors.New("session was cancelled")
			default:
				return nil
			}
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			session, sessErr := orch.Session(ctx, sessionID)
			if sessErr == nil && session.Progress.Processed > lastProcessed {
				cmd.Printf("\rProcessing... %d/%d (%.0f%%)",
					session.Progress.Processed, session.Progress.Total,
					session.Progress.Percentage)
				lastProcessed = session.Progress.Processed
			}
		}
	}
}

// readCSV loads a headered CSV into row maps keyed by header name.
func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeCSV renders the sheet snapshot back out as a headered CSV.
func writeCSV(ctx context.Context, path, sheetID string) error {
	snap, err := sheetService.Snapshot(ctx, sheetID)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, len(snap.Columns))
	for i, col := range snap.Columns {
		header[i] = col.Name
	}
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(snap.Columns))
	for _, row := range snap.Rows {
		for i, col := range snap.Columns {
			record[i] = ""
			if cell, ok := row[col.ID]; ok && cell.Value != nil {
				record[i] = fmt.Sprintf("%v", cell.Value)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
