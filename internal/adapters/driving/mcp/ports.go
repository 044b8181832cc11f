package mcp

import (
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sheets manages sheet documents.
	Sheets driving.SheetService

	// Presence tracks connected users and cursors.
	Presence driving.PresenceTracker

	// Enrichment runs enrichment sessions.
	Enrichment driving.EnrichmentOrchestrator
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Sheets == nil {
		return ErrMissingSheetService
	}
	// Presence and Enrichment are optional; the matching tools degrade
	// when they are absent.
	return nil
}
