package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrColumnExists indicates a new column's normalised id collides with
	// an existing column that has a different display name.
	ErrColumnExists = errors.New("column id already exists")

	// ErrNothingToEnrich indicates an enrichment pass found no eligible rows.
	// No session is created in this case.
	ErrNothingToEnrich = errors.New("no rows eligible for enrichment")

	// ErrEnrichmentRunning indicates a sheet already has an active
	// enrichment session. A fresh pass can start once it finishes.
	ErrEnrichmentRunning = errors.New("enrichment already in progress")
)

// LookupErrorKind classifies a registry lookup failure.
type LookupErrorKind string

// Lookup failure kinds. These are per-item conditions: they are recorded
// in the row's result payload and never abort a batch or session.
const (
	LookupInvalidFormat LookupErrorKind = "invalid_format"
	LookupNotFound      LookupErrorKind = "not_found"
	LookupRateLimited   LookupErrorKind = "rate_limited"
	LookupUpstream      LookupErrorKind = "upstream_error"
)

// LookupError is a typed registry lookup failure for a single tax id.
type LookupError struct {
	Kind    LookupErrorKind
	TaxID   string
	Message string
}

func (e *LookupError) Error() string {
	if e.TaxID != "" {
		return fmt.Sprintf("lookup %s: %s: %s", e.TaxID, e.Kind, e.Message)
	}
	return fmt.Sprintf("lookup: %s: %s", e.Kind, e.Message)
}

// AsLookupError extracts a LookupError from an error chain.
func AsLookupError(err error) (*LookupError, bool) {
	var le *LookupError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
