package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
	"github.com/planilha-labs/planilha-cli/internal/logger"
)

// Ensure EnrichmentOrchestrator implements the interface.
var _ driving.EnrichmentOrchestrator = (*EnrichmentOrchestrator)(nil)

// EnrichmentOrchestrator runs enrichment passes: it selects unenriched
// rows, partitions them into batches, dispatches batches against the
// registry client under a concurrency bound, and feeds results back into
// the sheet store while reporting per-item progress through the relay.
//
// The orchestrator never mutates rows or columns directly; every write
// goes through the sheet store's entry points.
type EnrichmentOrchestrator struct {
	sheets   driven.SheetStore
	sessions driven.SessionStore
	registry driven.RegistryClient
	relay    driven.Broadcaster

	mu   sync.Mutex
	done map[string]chan struct{}
}

// NewEnrichmentOrchestrator creates a new enrichment orchestrator.
func NewEnrichmentOrchestrator(
	sheets driven.SheetStore,
	sessions driven.SessionStore,
	registry driven.RegistryClient,
	relay driven.Broadcaster,
) *EnrichmentOrchestrator {
	return &EnrichmentOrchestrator{
		sheets:   sheets,
		sessions: sessions,
		registry: registry,
		relay:    relay,
		done:     make(map[string]chan struct{}),
	}
}

// Enrich starts one pass over a sheet's currently-unenriched rows and
// returns the session id. Setup runs synchronously; the batch pipeline
// continues in the background and reports through the relay. Clients also
// see the session id on the enrichment-started event.
func (o *EnrichmentOrchestrator) Enrich(ctx context.Context, sheetID string, kind domain.EnrichmentKind, opts domain.EnrichmentOptions, userID string) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown enrichment kind %q", domain.ErrInvalidInput, kind)
	}
	opts = opts.WithDefaults()

	if _, err := o.sheets.Get(ctx, sheetID); err != nil {
		return "", fmt.Errorf("get sheet: %w", err)
	}
	if _, err := o.sessions.ActiveForSheet(ctx, sheetID); err == nil {
		return "", domain.ErrEnrichmentRunning
	}

	rows, err := o.sheets.UnenrichedRows(ctx, sheetID, opts.TaxIDField)
	if err != nil {
		return "", fmt.Errorf("select rows: %w", err)
	}
	if len(rows) == 0 {
		return "", domain.ErrNothingToEnrich
	}

	session := domain.NewEnrichmentSession(sheetID, kind, rows, userID, time.Now())
	if err := o.sessions.Save(ctx, session); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	o.mu.Lock()
	o.done[session.ID] = make(chan struct{})
	o.mu.Unlock()

	// Pre-create every output column so clients can render the final
	// table shape before any data arrives, then mark the selected cells
	// loading and push the skeleton snapshot.
	cols := kind.Columns()
	colIDs := make([]string, len(cols))
	for i, col := range cols {
		colIDs[i] = col.ID
	}
	rowIndices := make([]int, len(rows))
	for i, row := range rows {
		rowIndices[i] = row.Index
	}
	if _, err := o.sheets.EnsureColumns(ctx, sheetID, cols, userID); err != nil {
		return session.ID, o.failSession(ctx, session.ID, sheetID, fmt.Errorf("ensure columns: %w", err))
	}
	if err := o.sheets.MarkCellsLoading(ctx, sheetID, rowIndices, colIDs); err != nil {
		return session.ID, o.failSession(ctx, session.ID, sheetID, fmt.Errorf("mark loading: %w", err))
	}

	o.relay.Publish(ctx, domain.NewEvent(domain.EventEnrichmentStarted, sheetID, domain.EnrichmentStartedPayload{
		SessionID: session.ID,
		Kind:      kind,
		UserID:    userID,
		Total:     len(rows),
	}))
	o.publishSnapshot(ctx, sheetID)

	logger.Info("enrichment %s: %d rows on sheet %s (batch %d, concurrency %d)",
		session.ID, len(rows), sheetID, opts.BatchSize, opts.Concurrency)

	go o.run(context.WithoutCancel(ctx), session.ID, sheetID, kind, opts, rows, userID)
	return session.ID, nil
}

// Cancel requests cooperative cancellation: no further batches start, but
// batches already in flight finish and applied results stay. Cancelling a
// finished session is a no-op.
func (o *EnrichmentOrchestrator) Cancel(ctx context.Context, sessionID string) error {
	session, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status.IsTerminal() {
		return nil
	}
	if err := o.sessions.SetStatus(ctx, sessionID, domain.SessionCancelled, ""); err != nil {
		return err
	}
	logger.Info("enrichment %s: cancelled", sessionID)
	o.relay.Publish(ctx, domain.NewEvent(domain.EventEnrichmentCancelled, session.SheetID, domain.EnrichmentCancelledPayload{
		SessionID: sessionID,
	}))
	return nil
}

// Wait blocks until the session reaches a terminal state.
func (o *EnrichmentOrchestrator) Wait(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	ch, ok := o.done[sessionID]
	o.mu.Unlock()
	if !ok {
		// Unknown to this process: terminal already, or never existed.
		_, err := o.sessions.Get(ctx, sessionID)
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// Session returns a session by id.
func (o *EnrichmentOrchestrator) Session(ctx context.Context, sessionID string) (*domain.EnrichmentSession, error) {
	return o.sessions.Get(ctx, sessionID)
}

// ActiveSession returns a sheet's running session, if any.
func (o *EnrichmentOrchestrator) ActiveSession(ctx context.Context, sheetID string) (*domain.EnrichmentSession, error) {
	return o.sessions.ActiveForSheet(ctx, sheetID)
}

// run drives the batch pipeline for one session. Batches run under an
// N-permit semaphore; items within a batch run sequentially. Per-item
// lookup failures are recorded in place and never abort the pass; only a
// failure of the orchestration machinery itself ends the session in the
// error state.
func (o *EnrichmentOrchestrator) run(ctx context.Context, sessionID, sheetID string, kind domain.EnrichmentKind, opts domain.EnrichmentOptions, rows []domain.RowRef, userID string) {
	defer o.finish(ctx, sessionID)
	defer func() {
		if r := recover(); r != nil {
			o.failSession(ctx, sessionID, sheetID, fmt.Errorf("enrichment pipeline panic: %v", r))
		}
	}()

	batches := partitionRows(rows, opts.BatchSize)
	total := len(rows)

	// Shared per-item progress counter across concurrent batches. The
	// record and the broadcast happen under the same lock so observed
	// percentages never run backwards.
	var progressMu sync.Mutex
	processed := 0

	report := func(batchNum int) error {
		progressMu.Lock()
		defer progressMu.Unlock()
		processed++
		progress := domain.Progress{
			Processed:    processed,
			Total:        total,
			Percentage:   float64(processed) / float64(total) * 100,
			CurrentBatch: batchNum,
		}
		if err := o.sessions.RecordProgress(ctx, sessionID, progress); err != nil {
			return fmt.Errorf("record progress: %w", err)
		}
		o.relay.Publish(ctx, domain.NewEvent(domain.EventEnrichmentProgress, sheetID, domain.EnrichmentProgressPayload{
			SessionID: sessionID,
			Progress:  progress,
		}))
		return nil
	}

	// A no-op when the session was cancelled before the pipeline got
	// scheduled: the dispatch loop below then stops before batch one.
	if err := o.sessions.SetStatus(ctx, sessionID, domain.SessionProcessing, ""); err != nil {
		o.failSession(ctx, sessionID, sheetID, fmt.Errorf("set processing: %w", err))
		return
	}

	sem := make(chan struct{}, opts.Concurrency)
	errCh := make(chan error, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		// Cooperative cancellation, checked as each permit is acquired:
		// batches already in flight run to completion.
		sem <- struct{}{}
		if o.cancelled(ctx, sessionID) {
			<-sem
			logger.Info("enrichment %s: stopping dispatch after batch %d", sessionID, i)
			break
		}
		wg.Add(1)
		go func(batchNum int, batch []domain.RowRef) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := o.processBatch(ctx, sessionID, sheetID, kind, opts, batchNum, batch, userID, report); err != nil {
				errCh <- err
			}
		}(i+1, batch)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		o.failSession(ctx, sessionID, sheetID, err)
		return
	}

	session, err := o.sessions.Get(ctx, sessionID)
	if err != nil || session.Status == domain.SessionCancelled {
		return
	}

	final := session.Progress
	final.Percentage = 100
	final.CurrentBatch = len(batches)
	if err := o.sessions.RecordProgress(ctx, sessionID, final); err != nil {
		o.failSession(ctx, sessionID, sheetID, fmt.Errorf("record final progress: %w", err))
		return
	}
	if err := o.sessions.SetStatus(ctx, sessionID, domain.SessionCompleted, ""); err != nil {
		o.failSession(ctx, sessionID, sheetID, fmt.Errorf("complete session: %w", err))
		return
	}
	logger.Info("enrichment %s: completed %d/%d rows", sessionID, final.Processed, total)
}

// processBatch enriches one batch's rows sequentially and applies the
// settled results to the sheet in a single store call.
func (o *EnrichmentOrchestrator) processBatch(ctx context.Context, sessionID, sheetID string, kind domain.EnrichmentKind, opts domain.EnrichmentOptions, batchNum int, batch []domain.RowRef, userID string, report func(int) error) error {
	results := make([]domain.RowResult, 0, len(batch))

	for _, row := range batch {
		results = append(results, o.enrichRow(ctx, kind, opts, row))
		if err := report(batchNum); err != nil {
			return err
		}
	}

	if err := o.sessions.AppendResults(ctx, sessionID, results); err != nil {
		return fmt.Errorf("append results: %w", err)
	}
	if _, err := o.sheets.ApplyEnrichmentResults(ctx, sheetID, results, userID); err != nil {
		return fmt.Errorf("apply results: %w", err)
	}
	o.relay.Publish(ctx, domain.NewEvent(domain.EventEnrichmentPartial, sheetID, domain.EnrichmentPartialPayload{
		SessionID: sessionID,
		Batch:     batchNum,
		Results:   results,
	}))
	o.publishSnapshot(ctx, sheetID)
	return nil
}

// enrichRow resolves one row: extract the tax id, validate it locally,
// and look the company up. Failures become an error payload written into
// the row rather than an aborted batch; invalid ids never reach the
// registry at all.
func (o *EnrichmentOrchestrator) enrichRow(ctx context.Context, kind domain.EnrichmentKind, opts domain.EnrichmentOptions, row domain.RowRef) domain.RowResult {
	result := domain.RowResult{RowIndex: row.Index}

	raw, ok := domain.ExtractTaxID(row.Data, opts.TaxIDField)
	if !ok {
		result.Err = &domain.LookupError{Kind: domain.LookupInvalidFormat, Message: "no tax id found in row"}
		result.Fields = errorFields(result.Err)
		return result
	}
	taxID := domain.NormalizeCNPJ(raw)
	result.TaxID = taxID
	if !domain.IsValidCNPJ(taxID) {
		result.Err = &domain.LookupError{Kind: domain.LookupInvalidFormat, TaxID: taxID, Message: "invalid CNPJ check digits"}
		result.Fields = errorFields(result.Err)
		return result
	}

	rec, err := o.registry.Lookup(ctx, taxID)
	if err != nil {
		le, ok := domain.AsLookupError(err)
		if !ok {
			le = &domain.LookupError{Kind: domain.LookupUpstream, TaxID: taxID, Message: err.Error()}
		}
		logger.Debug("enrichment: lookup %s failed: %v", taxID, le)
		result.Err = le
		result.Fields = errorFields(le)
		return result
	}

	result.Fields = kind.FieldsFrom(rec)
	return result
}

// errorFields renders a per-item failure as enriched fields so the error
// is visible in the grid.
func errorFields(le *domain.LookupError) map[string]any {
	return map[string]any{
		domain.FieldEnrichmentError:     le.Message,
		domain.FieldEnrichmentErrorCode: string(le.Kind),
	}
}

// publishSnapshot broadcasts the authoritative full snapshot.
func (o *EnrichmentOrchestrator) publishSnapshot(ctx context.Context, sheetID string) {
	snap, err := o.sheets.Snapshot(ctx, sheetID)
	if err != nil {
		logger.Warn("enrichment: snapshot %s: %v", sheetID, err)
		return
	}
	o.relay.Publish(ctx, domain.NewEvent(domain.EventSheetData, sheetID, snap))
}

// cancelled reports whether the session has been cancelled.
func (o *EnrichmentOrchestrator) cancelled(ctx context.Context, sessionID string) bool {
	session, err := o.sessions.Get(ctx, sessionID)
	return err == nil && session.Status == domain.SessionCancelled
}

// failSession flips the session to the error state and broadcasts the
// failure. Returns the original error for callers that propagate it.
func (o *EnrichmentOrchestrator) failSession(ctx context.Context, sessionID, sheetID string, err error) error {
	logger.Warn("enrichment %s: %v", sessionID, err)
	if serr := o.sessions.SetStatus(ctx, sessionID, domain.SessionError, err.Error()); serr != nil {
		logger.Warn("enrichment %s: record failure: %v", sessionID, serr)
	}
	o.relay.Publish(ctx, domain.NewEvent(domain.EventEnrichmentError, sheetID, domain.EnrichmentErrorPayload{
		SessionID: sessionID,
		Error:     err.Error(),
	}))
	o.closeDone(sessionID)
	return err
}

// finish releases Wait callers once the pipeline settles.
func (o *EnrichmentOrchestrator) finish(ctx context.Context, sessionID string) {
	// A pipeline that stopped without reaching a terminal state (should
	// not happen) is closed out as an error rather than left hanging.
	if session, err := o.sessions.Get(ctx, sessionID); err == nil && !session.Status.IsTerminal() {
		_ = o.sessions.SetStatus(ctx, sessionID, domain.SessionError, "pipeline exited before terminal state")
	}
	o.closeDone(sessionID)
}

// closeDone closes the session's done channel exactly once.
func (o *EnrichmentOrchestrator) closeDone(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ch, ok := o.done[sessionID]; ok {
		select {
		case <-ch:
		default:
			close(ch)
		}
		delete(o.done, sessionID)
	}
}

// partitionRows splits rows into fixed-size batches, preserving each
// row's original sheet index.
func partitionRows(rows []domain.RowRef, batchSize int) [][]domain.RowRef {
	var batches [][]domain.RowRef
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}
