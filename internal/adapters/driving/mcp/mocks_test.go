package mcp

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// mockSheetService is a mock implementation of driving.SheetService.
type mockSheetService struct {
	sheet    *domain.Sheet
	sheets   []domain.Sheet
	snapshot *domain.Snapshot
	stats    *domain.EnrichmentStats
	history  []domain.Operation
	err      error

	lastUserID string
}

func (m *mockSheetService) Create(_ context.Context, _ string, _ []map[string]any, ownerID string) (*domain.Sheet, error) {
	m.lastUserID = ownerID
	return m.sheet, m.err
}

func (m *mockSheetService) Get(_ context.Context, _ string) (*domain.Sheet, error) {
	return m.sheet, m.err
}

func (m *mockSheetService) List(_ context.Context) ([]domain.Sheet, error) {
	return m.sheets, m.err
}

func (m *mockSheetService) UpdateCell(_ context.Context, _ string, _ int, _ string, _ any, userID string) (*domain.Sheet, error) {
	m.lastUserID = userID
	return m.sheet, m.err
}

func (m *mockSheetService) AddRow(_ context.Context, _ string, _ map[string]any, userID string) (*domain.Sheet, error) {
	m.lastUserID = userID
	return m.sheet, m.err
}

func (m *mockSheetService) AddColumn(_ context.Context, _ string, _ domain.Column, userID string) (*domain.Sheet, error) {
	m.lastUserID = userID
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

// mockPresenceTracker is a mock implementation of driving.PresenceTracker.
type mockPresenceTracker struct {
	event  *domain.Event
	users  []domain.UserCursor
	sheets []string
	stats  domain.PresenceStats
	err    error

	lastUserID   string
	lastUserName string
	lastPos      domain.Position
	left         []string
}

func (m *mockPresenceTracker) Join(_ context.Context, _, userID, userName, _ string) (*domain.Event, error) {
	m.lastUserID = userID
	m.lastUserName = userName
	return m.event, m.err
}

func (m *mockPresenceTracker) Leave(_ context.Context, sheetID, userID string) (*domain.Event, error) {
	m.lastUserID = userID
	m.left = append(m.left, sheetID+"/"+userID)
	return m.event, m.err
}

func (m *mockPresenceTracker) UpdateCursor(_ context.Context, _, userID string, pos domain.Position, _ *domain.Selection) (*domain.Event, error) {
	m.lastUserID = userID
	m.lastPos = pos
	return m.event, m.err
}

func (m *mockPresenceTracker) ActiveUsers(_ context.Context, _ string) []domain.UserCursor {
	return m.users
}

func (m *mockPresenceTracker) UserSheets(_ context.Context, _ string) []string {
	return m.sheets
}

func (m *mockPresenceTracker) Stats(_ context.Context) domain.PresenceStats {
	return m.stats
}

// mockOrchestrator is a mock implementation of driving.EnrichmentOrchestrator.
type mockOrchestrator struct {
	sessionID string
	session   *domain.EnrichmentSession
	err       error

	cancelled []string
}

func (m *mockOrchestrator) Enrich(_ context.Context, _ string, _ domain.EnrichmentKind, _ domain.EnrichmentOptions, _ string) (string, error) {
	return m.sessionID, m.err
}

func (m *mockOrchestrator) Cancel(_ context.Context, sessionID string) error {
	m.cancelled = append(m.cancelled, sessionID)
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
