package cli

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// mockSheetService implements driving.SheetService for testing.
type mockSheetService struct {
	sheet    *domain.Sheet
	sheets   []domain.Sheet
	snapshot *domain.Snapshot
	stats    *domain.EnrichmentStats
	history  []domain.Operation
	err      error
}

func (m *mockSheetService) Create(_ context.Context, _ string, _ []map[string]any, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) Get(_ context.Context, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) List(_ context.Context) ([]domain.Sheet, error) {
	return m.sheets, m.err
}

func (m *mockSheetService) UpdateCell(_ context.Context, _ string, _ int, _ string, _ any, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) AddRow(_ context.Context, _ string, _ map[string]any, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) AddColumn(_ context.Context, _ string, _ domain.Column, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) Snapshot(_ context.Context, _ string) (*domain.Snapshot, error) {
	return m.snapshot, m.err
}

func (m *mockSheetService) Stats(_ context.Context, _, _ string) (*domain.EnrichmentStats, error) {
	return m.stats, m.err
}

func (m *mockSheetService) History(_ context.Context, _ string, _ int) ([]domain.Operation, error) {
	return m.history, m.err
}

// mockOrchestrator implements driving.EnrichmentOrchestrator for testing.
type mockOrchestrator struct {
	sessionID string
	session   *domain.EnrichmentSession
	err       error
}

func (m *mockOrchestrator) Enrich(_ context.Context, _ string, _ domain.EnrichmentKind, _ domain.EnrichmentOptions, _ string) (string, error) {
	return m.sessionID, m.err
}

func (m *mockOrchestrator) Cancel(_ context.Context, _ string) error {
	return m.err
}

func (m *mockOrchestrator) Wait(_ context.Context, _ string) error {
	return m.err
}

func (m *mockOrchestrator) Session(_ context.Context, _ string) (*domain.EnrichmentSession, error) {
	return m.session, m.err
}

func (m *mockOrchestrator) ActiveSession(_ context.Context, _ string) (*domain.EnrichmentSession, error) {
	return m.session, m.err
}

// setupSheetTest installs a mock sheet service and returns a cleanup func.
func setupSheetTest(mock *mockSheetService) func() {
	old := sheetService
	sheetService = mock
	return func() {
		sheetService = old
	}
}
