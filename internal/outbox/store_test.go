package outbox

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/msg"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPublish_StagesEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tp := 1.2345
	err := store.Publish(ctx, msg.DBUpdateMsg{
		Type:       msg.EventTakeProfitSet,
		OrderID:    "ord-1",
		UserID:     "u-1",
		UserType:   "live",
		TakeProfit: &tp,
	})
	require.NoError(t, err)

	events, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "ord-1", e.OrderID)
	assert.Equal(t, msg.TopicOrderDBUpdates, e.Topic)
	assert.Equal(t, "ord-1", e.Key, "events are keyed by order_id for per-order ordering")
	assert.NotEmpty(t, e.EventID)

	var update msg.DBUpdateMsg
	require.NoError(t, json.Unmarshal([]byte(e.PayloadJSON), &update))
	assert.Equal(t, msg.EventTakeProfitSet, update.Type)
	require.NotNil(t, update.TakeProfit)
	assert.InDelta(t, 1.2345, *update.TakeProfit, 1e-9)
}

func TestMarkPublished_RemovesFromBacklog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Publish(ctx, msg.DBUpdateMsg{
		Type:     msg.EventTakeProfitCancel,
		OrderID:  "ord-2",
		UserID:   "u-2",
		UserType: "demo",
	})
	require.NoError(t, err)

	events, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, store.MarkPublished(ctx, events[0].EventID, 2000))

	events, err = store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, events, "published events must leave the backlog")
}

func TestPublish_CancelOmitsTakeProfit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Publish(ctx, msg.DBUpdateMsg{
		Type:     msg.EventTakeProfitCancel,
		OrderID:  "ord-3",
		UserID:   "u-3",
		UserType: "demo",
	})
	require.NoError(t, err)

	events, err := store.ListUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].PayloadJSON, "take_profit")
}
