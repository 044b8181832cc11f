package driven

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// RegistryClient looks up company registry data for a tax id.
//
// Failures are typed domain.LookupError values (invalid format, not
// found, rate limited, upstream). The client enforces its own request
// timeout and may coalesce concurrent identical lookups into one physical
// call; callers must tolerate multiple logical lookups resolving from a
// single request.
type RegistryClient interface {
	// Lookup fetches the company record for a tax id in any rendering.
	Lookup(ctx context.Context, taxID string) (*domain.CompanyRecord, error)
}
