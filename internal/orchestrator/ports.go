package orchestrator

import (
	"context"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/msg"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/provider"
)

// TriggerRow is the monitoring state written to the trigger store. Score
// prices are the spread-adjusted values compared against live bid/ask;
// they are always derived here, never caller-supplied.
type TriggerRow struct {
	OrderID  string
	Symbol   string
	Side     string
	UserType string
	UserID   string

	StopLoss        *float64
	TakeProfit      *float64
	ScoreStopLoss   *float64
	ScoreTakeProfit *float64
}

// TriggerStore is the low-latency store the price monitor scans. Upsert is
// the authoritative enable of spread-based monitoring; Remove is
// best-effort from the caller's point of view.
type TriggerStore interface {
	Upsert(ctx context.Context, row TriggerRow) error
	Remove(ctx context.Context, orderID string) error
}

// SnapshotStore mirrors order state into the two read-optimized keyspaces:
// the canonical per-order record and the per-user holdings record. Both
// are best-effort mirrors except where the orchestrator says otherwise.
type SnapshotStore interface {
	SetOrderFields(ctx context.Context, orderID string, fields map[string]string) error
	SetHoldingFields(ctx context.Context, userType, userID, orderID string, fields map[string]string) error
	DeleteOrderFields(ctx context.Context, orderID string, fields ...string) error
	DeleteHoldingFields(ctx context.Context, userType, userID, orderID string, fields ...string) error

	// OrderRecord reads the canonical record; absent orders yield an empty map.
	OrderRecord(ctx context.Context, orderID string) (map[string]string, error)
	// OrderStatus reads back the canonical status field; absent yields "".
	OrderStatus(ctx context.Context, orderID string) (string, error)
}

// EventPublisher hands a state-transition intent to the durable queue
// feeding the system-of-record writer.
type EventPublisher interface {
	Publish(ctx context.Context, m msg.DBUpdateMsg) error
}

// ProviderGateway sends order-control messages to the execution venue. The
// returned channel names the transport that carried (or failed) the send.
type ProviderGateway interface {
	Send(ctx context.Context, order provider.Order) (channel string, err error)
}

// LifecycleRegistry records externally-issued correlation ids against an
// order. Kinds used here: "takeprofit_id", "takeprofit_cancel_id".
type LifecycleRegistry interface {
	Add(ctx context.Context, orderID, newID, kind string) error
}

// AccountConfig is the slice of account configuration the orchestrator
// needs: the pricing group and the order-routing preference.
type AccountConfig struct {
	Group         string
	SendingOrders string
}

// AccountSource resolves account configuration, fetched fresh per request.
type AccountSource interface {
	UserConfig(ctx context.Context, userType, userID string) (AccountConfig, error)
}
