package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

func newPresenceTest() (*PresenceTracker, *captureRelay) {
	relay := &captureRelay{}
	return NewPresenceTracker(relay), relay
}

func TestPresenceTracker_Join(t *testing.T) {
	tracker, relay := newPresenceTest()
	ctx := context.Background()

	event, err := tracker.Join(ctx, "sheet-1", "user-1", "Maria", "conn-1")

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.EventUserJoined, event.Type)

	payload, ok := event.Payload.(domain.PresencePayload)
	require.True(t, ok)
	assert.Equal(t, "user-1", payload.UserID)
	require.NotNil(t, payload.Cursor)
	assert.Equal(t, "Maria", payload.Cursor.UserName)
	assert.Equal(t, domain.ColorForUser("user-1"), payload.Cursor.Color)
	require.Len(t, payload.ActiveUsers, 1)

	// The same event reaches the sheet's subscribers.
	require.Len(t, relay.ofType(domain.EventUserJoined), 1)
}

func TestPresenceTracker_Join_ActiveUsersSortedByID(t *testing.T) {
	tracker, _ := newPresenceTest()
	ctx := context.Background()

	_, err := tracker.Join(ctx, "sheet-1", "zoe", "Zoe", "conn-1")
	require.NoError(t, err)
	event, err := tracker.Join(ctx, "sheet-1", "ana", "Ana", "conn-2")
	require.NoError(t, err)

	payload := event.Payload.(domain.PresencePayload)
	require.Len(t, payload.ActiveUsers, 2)
	assert.Equal(t, "ana", payload.ActiveUsers[0].UserID)
	assert.Equal(t, "zoe", payload.ActiveUsers[1].UserID)
}

func TestPresenceTracker_Leave(t *testing.T) {
	tracker, _ := newPresenceTest()
	ctx := context.Background()

	_, err := tracker.Join(ctx, "sheet-1", "user-1", "Maria", "conn-1")
	require.NoError(t, err)

	event, err := tracker.Leave(ctx, "sheet-1", "user-1")

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.EventUserLeft, event.Type)
	payload := event.Payload.(domain.PresencePayload)
	assert.Empty(t, payload.ActiveUsers)
	assert.Empty(t, tracker.ActiveUsers(ctx, "sheet-1"))
}

func TestPresenceTracker_Leave_NeverJoined(t *testing.T) {
	tracker, relay := newPresenceTest()

	event, err := tracker.Leave(context.Background(), "sheet-1", "ghost")

	assert.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, relay.all())
}

func TestPresenceTracker_UpdateCursor(t *testing.T) {
	tracker, relay := newPresenceTest()
	ctx := context.Background()

	_, err := tracker.Join(ctx, "sheet-1", "user-1", "Maria", "conn-1")
	require.NoError(t, err)

	pos := domain.Position{Row: 3, Column: "cnpj"}
	sel := &domain.Selection{Start: pos, End: domain.Position{Row: 5, Column: "cnpj"}}
	event, err := tracker.UpdateCursor(ctx, "sheet-1", "user-1", pos, sel)

	require.NoError(t, err)
	require.NotNil(t, event)
	payload := event.Payload.(domain.CursorPayload)
	assert.Equal(t, pos, payload.Position)
	assert.Equal(t, sel, payload.Selection)

	users := tracker.ActiveUsers(ctx, "sheet-1")
	require.Len(t, users, 1)
	assert.Equal(t, pos, users[0].Position)

	require.Len(t, relay.ofType(domain.EventCursorUpdated), 1)
}

func TestPresenceTracker_UpdateCursor_NotJoined(t *testing.T) {
	tracker, relay := newPresenceTest()

	event, err := tracker.UpdateCursor(context.Background(), "sheet-1", "ghost", domain.Position{}, nil)

	assert.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, relay.all())
}

func TestPresenceTracker_UserSheets(t *testing.T) {
	tracker, _ := newPresenceTest()
	ctx := context.Background()

	_, err := tracker.Join(ctx, "sheet-b", "user-1", "Maria", "conn-1")
	require.NoError(t, err)
	_, err = tracker.Join(ctx, "sheet-a", "user-1", "Maria", "conn-2")
	require.NoError(t, err)

	assert.Equal(t, []string{"sheet-a", "sheet-b"}, tracker.UserSheets(ctx, "user-1"))
	assert.Empty(t, tracker.UserSheets(ctx, "ghost"))
}

func TestPresenceTracker_Stats(t *testing.T) {
	tracker, _ := newPresenceTest()
	ctx := context.Background()

	_, err := tracker.Join(ctx, "sheet-1", "user-1", "Maria", "conn-1")
	require.NoError(t, err)
	_, err = tracker.Join(ctx, "sheet-1", "user-2", "Jose", "conn-2")
	require.NoError(t, err)
	_, err = tracker.Join(ctx, "sheet-2", "user-1", "Maria", "conn-3")
	require.NoError(t, err)

	stats := tracker.Stats(ctx)

	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 2, stats.ActiveSheets)
	assert.Equal(t, 1, stats.SheetsWithMultipleUsers)
	assert.InDelta(t, 1.5, stats.AverageUsersPerSheet, 0.001)
}
