package msg

// Topic names
const (
	TopicOrderDBUpdates = "orders.db-updates"
)

// DB update event types
const (
	EventTakeProfitSet    = "ORDER_TAKEPROFIT_SET"
	EventTakeProfitCancel = "ORDER_TAKEPROFIT_CANCEL"
)

// DBUpdateMsg carries a state-transition intent to the system-of-record
// writer consuming the durable queue.
type DBUpdateMsg struct {
	Type       string   `json:"type"`
	OrderID    string   `json:"order_id"`
	UserID     string   `json:"user_id"`
	UserType   string   `json:"user_type"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
}
