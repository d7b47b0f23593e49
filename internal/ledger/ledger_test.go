package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Close()
	})
	return l
}

func TestLedger_AppendAndList(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	events := []*Event{
		{ID: uuid.New().String(), ChatID: 42, Direction: DirectionOut, Text: "welcome", CreatedAt: base},
		{ID: uuid.New().String(), ChatID: 42, Direction: DirectionIn, Text: "book", CreatedAt: base.Add(time.Second)},
		{ID: uuid.New().String(), ChatID: 7, Direction: DirectionIn, Text: "other chat", CreatedAt: base},
	}
	for _, ev := range events {
		require.NoError(t, l.Append(ctx, ev))
	}

	got, err := l.ListByChat(ctx, 42, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "welcome", got[0].Text)
	assert.Equal(t, DirectionOut, got[0].Direction)
	assert.Equal(t, "book", got[1].Text)
	assert.Equal(t, DirectionIn, got[1].Direction)
}

func TestLedger_ListByChat_Limit(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(ctx, &Event{
			ID:        uuid.New().String(),
			ChatID:    1,
			Direction: DirectionIn,
			Text:      "msg",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := l.ListByChat(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLedger_EmptyChat(t *testing.T) {
	l := setupTestLedger(t)

	got, err := l.ListByChat(context.Background(), 999, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
