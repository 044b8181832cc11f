// Package domain defines the core business entities for Planilha.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Sheet: A collaborative spreadsheet with columns, rows and versioning
//   - Cell: A single value with loading state and modification metadata
//   - Operation: An append-only audit log entry for a sheet mutation
//   - UserCursor: A connected user's cursor/selection on a sheet
//   - EnrichmentSession: One run of the CNPJ enrichment pipeline
//   - Event: A broadcast message fanned out to sheet subscribers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
