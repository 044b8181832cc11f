package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

func TestSheetListCmd_Executes(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{
		sheets: []domain.Sheet{
			{
				ID:      "sheet-1",
				Name:    "Fornecedores",
				Columns: domain.DefaultColumns(),
				Rows:    []domain.Row{{}, {}},
				Metadata: domain.Metadata{
					Version: 7,
				},
			},
		},
	})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sheet", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "sheet-1")
	assert.Contains(t, buf.String(), "Fornecedores")
	assert.Contains(t, buf.String(), "2 rows")
	assert.Contains(t, buf.String(), "v7")
}

func TestSheetListCmd_Empty(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sheet", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No sheets.")
}

func TestSheetShowCmd_RendersCells(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{
		snapshot: &domain.Snapshot{
			SheetID: "sheet-1",
			Name:    "Fornecedores",
			Columns: []domain.Column{
				{ID: "name", Name: "Name"},
				{ID: "razao_social", Name: "Razao Social"},
			},
			Rows: []map[string]domain.SnapshotCell{
				{
					"name":         {Value: "Maria"},
					"razao_social": {IsLoading: true},
				},
			},
			Metadata: domain.Metadata{Version: 3},
		},
	})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sheet", "show", "sheet-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Fornecedores (v3)")
	assert.Contains(t, buf.String(), "Maria")
	assert.Contains(t, buf.String(), "...")
}

func TestSheetShowCmd_NotFound(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{err: domain.ErrNotFound})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sheet", "show", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSheetStatsCmd_Executes(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{
		stats: &domain.EnrichmentStats{
			Total:      10,
			WithTaxID:  8,
			Enriched:   5,
			Unenriched: 3,
		},
	})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sheet", "stats", "sheet-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Rows:        10")
	assert.Contains(t, buf.String(), "Unenriched:  3")
}

func TestSheetHistoryCmd_Executes(t *testing.T) {
	cleanup := setupSheetTest(&mockSheetService{
		history: []domain.Operation{
			{
				Type:      domain.OpCellUpdate,
				UserID:    "user-1",
				Version:   4,
				Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		},
	})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sheet", "history", "sheet-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "user-1")
	assert.Contains(t, buf.String(), "2026-03-01")
}
