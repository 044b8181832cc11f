package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

func TestExtractSheetID(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		suffix string
		want   string
	}{
		{"snapshot uri", "planilha://sheets/sheet-1", "", "sheet-1"},
		{"history uri", "planilha://sheets/sheet-1/history", "/history", "sheet-1"},
		{"wrong scheme", "other://sheets/sheet-1", "", ""},
		{"missing suffix", "planilha://sheets/sheet-1", "/history", ""},
		{"extra path segment", "planilha://sheets/sheet-1/extra", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSheetID(tt.uri, tt.suffix))
		})
	}
}

func TestServer_handleSnapshotResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns snapshot JSON", func(t *testing.T) {
		mockSheets := &mockSheetService{
			snapshot: &domain.Snapshot{
				SheetID: "sheet-1",
				Name:    "Fornecedores",
			},
		}
		server, err := NewServer(&Ports{Sheets: mockSheets})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "planilha://sheets/sheet-1"},
		}
		result, err := server.handleSnapshotResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "Fornecedores")
	})

	t.Run("rejects malformed uri", func(t *testing.T) {
		server, err := NewServer(&Ports{Sheets: &mockSheetService{}})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "planilha://nope"},
		}
		_, err = server.handleSnapshotResource(ctx, req)

		require.Error(t, err)
	})
}
