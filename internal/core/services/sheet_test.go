package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilha-labs/planilha-cli/internal/adapters/driven/storage/memory"
	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
)

// captureRelay records every published event. Shared by the service
// tests in this package.
type captureRelay struct {
	mu     sync.Mutex
	events []domain.Event
}

var _ driven.Broadcaster = (*captureRelay)(nil)

func (r *captureRelay) Publish(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *captureRelay) Subscribe(_ string) (<-chan domain.Event, func()) {
	return make(chan domain.Event), func() {}
}

func (r *captureRelay) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *captureRelay) ofType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range r.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newSheetServiceTest() (*SheetService, *captureRelay) {
	relay := &captureRelay{}
	return NewSheetService(memory.NewSheetStore(), relay), relay
}

func TestSheetService_Create(t *testing.T) {
	svc, relay := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", nil, "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), sheet.Metadata.Version)
	assert.Equal(t, "user-1", sheet.Permissions.OwnerID)
	// Creation is not broadcast; subscribers learn of new sheets when
	// they subscribe and receive the initial snapshot.
	assert.Empty(t, relay.all())
}

func TestSheetService_Create_PropagatesStoreError(t *testing.T) {
	svc, relay := newSheetServiceTest()

	_, err := svc.Create(context.Background(), "", nil, "user-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, relay.all())
}

func TestSheetService_UpdateCell_BroadcastsCellUpdated(t *testing.T) {
	svc, relay := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", []map[string]any{
		{"name": "Maria Ltda", "cnpj": "11222333000181"},
	}, "user-1")
	require.NoError(t, err)

	updated, err := svc.UpdateCell(ctx, sheet.ID, 0, "name", "Maria e Filhos Ltda", "user-2")

	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Metadata.Version)

	events := relay.ofType(domain.EventCellUpdated)
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(domain.CellUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, 0, payload.RowIndex)
	assert.Equal(t, "name", payload.ColumnID)
	assert.Equal(t, "Maria e Filhos Ltda", payload.Value)
	assert.Equal(t, "user-2", payload.UserID)
	assert.Equal(t, int64(2), payload.Version)
}

func TestSheetService_UpdateCell_ErrorIsNotBroadcast(t *testing.T) {
	svc, relay := newSheetServiceTest()

	_, err := svc.UpdateCell(context.Background(), "missing", 0, "name", "x", "user-1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, relay.all())
}

func TestSheetService_AddRow_BroadcastsRowAdded(t *testing.T) {
	svc, relay := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", []map[string]any{
		{"name": "Maria Ltda"},
	}, "user-1")
	require.NoError(t, err)

	_, err = svc.AddRow(ctx, sheet.ID, map[string]any{"name": "Jose SA"}, "user-1")

	require.NoError(t, err)
	events := relay.ofType(domain.EventRowAdded)
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(domain.RowAddedPayload)
	require.True(t, ok)
	assert.Equal(t, 1, payload.RowIndex)
	assert.Equal(t, "Jose SA", payload.Data["name"])
	assert.Equal(t, int64(2), payload.Version)
}

func TestSheetService_AddColumn_BroadcastsColumnAdded(t *testing.T) {
	svc, relay := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", nil, "user-1")
	require.NoError(t, err)

	_, err = svc.AddColumn(ctx, sheet.ID, domain.Column{
		Name:     "Notes Extra",
		Type:     domain.ColumnText,
		Editable: true,
	}, "user-1")

	require.NoError(t, err)
	events := relay.ofType(domain.EventColumnAdded)
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(domain.ColumnAddedPayload)
	require.True(t, ok)
	assert.Equal(t, "notes_extra", payload.Column.ID)
	assert.Equal(t, "Notes Extra", payload.Column.Name)
	assert.Equal(t, int64(2), payload.Version)
}

func TestSheetService_Stats(t *testing.T) {
	svc, _ := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", []map[string]any{
		{"name": "Maria Ltda", "cnpj": "11222333000181"},
		{"name": "Sem Documento", "cnpj": ""},
	}, "user-1")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, sheet.ID, "")

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.WithTaxID)
	assert.Equal(t, 0, stats.Enriched)
}

func TestSheetService_History(t *testing.T) {
	svc, _ := newSheetServiceTest()
	ctx := context.Background()

	sheet, err := svc.Create(ctx, "Clientes", []map[string]any{
		{"name": "Maria Ltda"},
	}, "user-1")
	require.NoError(t, err)
	_, err = svc.UpdateCell(ctx, sheet.ID, 0, "name", "Nova Razao", "user-1")
	require.NoError(t, err)

	ops, err := svc.History(ctx, sheet.ID, 10)

	require.NoError(t, err)
	require.NotEmpty(t, ops)
	assert.Equal(t, domain.OpCellUpdate, ops[0].Type)
	assert.Equal(t, int64(2), ops[0].Version)
}
