package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Inspect sheets",
	Long:  `Commands for listing sheets and inspecting their contents and history.`,
}

var sheetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sheets",
	RunE:  runSheetList,
}

var sheetShowCmd = &cobra.Command{
	Use:   "show <sheet-id>",
	Short: "Show a sheet's contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetShow,
}

var sheetStatsCmd = &cobra.Command{
	Use:   "stats <sheet-id>",
	Short: "Show a sheet's enrichment coverage",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetStats,
}

var sheetHistoryCmd = &cobra.Command{
	Use:   "history <sheet-id>",
	Short: "Show a sheet's recent operations",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetHistory,
}

func init() {
	sheetHistoryCmd.Flags().IntP("limit", "n", 20, "maximum operations to show")
	sheetStatsCmd.Flags().String("tax-id-field", "", "column holding the CNPJ (default cnpj)")
	sheetCmd.AddCommand(sheetListCmd)
	sheetCmd.AddCommand(sheetShowCmd)
	sheetCmd.AddCommand(sheetStatsCmd)
	sheetCmd.AddCommand(sheetHistoryCmd)
	rootCmd.AddCommand(sheetCmd)
}

func runSheetList(cmd *cobra.Command, _ []string) error {
	if sheetService == nil {
		return errors.New("sheet service not configured")
	}

	sheets, err := sheetService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sheets: %w", err)
	}

	if len(sheets) == 0 {
		cmd.Println("No sheets.")
		return nil
	}

	for i := range sheets {
		cmd.Printf("%s  %s (%d rows, %d columns, v%d)\n",
			sheets[i].ID, sheets[i].Name,
			len(sheets[i].Rows), len(sheets[i].Columns),
			sheets[i].Metadata.Version)
	}
	return nil
}

func runSheetShow(cmd *cobra.Command, args []string) error {
	if sheetService == nil {
		return errors.New("sheet service not configured")
	}

	snap, err := sheetService.Snapshot(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("reading sheet: %w", err)
	}

	cmd.Printf("%s (v%d)\n", snap.Name, snap.Metadata.Version)

	// Header row.
	for i, col := range snap.Columns {
		if i > 0 {
			cmd.Print("\t")
		}
		cmd.Print(col.Name)
	}
	cmd.Println()

	for _, row := range snap.Rows {
		for i, col := range snap.Columns {
			if i > 0 {
				cmd.Print("\t")
			}
			cell := row[col.ID]
			if cell.IsLoading {
				cmd.Print("...")
				continue
			}
			if cell.Value != nil {
				cmd.Printf("%v", cell.Value)
			}
		}
		cmd.Println()
	}
	return nil
}

func runSheetStats(cmd *cobra.Command, args []string) error {
	if sheetService == nil {
		return errors.New("sheet service not configured")
	}

	taxIDField, err := cmd.Flags().GetString("tax-id-field")
	if err != nil {
		return fmt.Errorf("getting tax-id-field flag: %w", err)
	}

	stats, err := sheetService.Stats(cmd.Context(), args[0], taxIDField)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	cmd.Printf("Rows:        %d\n", stats.Total)
	cmd.Printf("With tax id: %d\n", stats.WithTaxID)
	cmd.Printf("Enriched:    %d\n", stats.Enriched)
	cmd.Printf("Unenriched:  %d\n", stats.Unenriched)
	return nil
}

func runSheetHistory(cmd *cobra.Command, args []string) error {
	if sheetService == nil {
		return errors.New("sheet service not configured")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	ops, err := sheetService.History(cmd.Context(), args[0], limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(ops) == 0 {
		cmd.Println("No operations.")
		return nil
	}

	for _, op := range ops {
		cmd.Printf("v%-5d %-20s %-12s %s\n",
			op.Version, op.Type, op.UserID,
			op.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return nil
}
