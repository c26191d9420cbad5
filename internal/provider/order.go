package provider

// Order statuses carried on the wire. The venue echoes the status back on
// its confirmation channel, so these strings must match what the ack
// dispatcher expects.
const (
	StatusTakeProfit       = "TAKEPROFIT"
	StatusTakeProfitCancel = "TAKEPROFIT-CANCEL"
)

// Order is an order-control message sent to the execution venue.
type Order struct {
	OrderID            string   `json:"order_id"`
	Symbol             string   `json:"symbol"`
	OrderStatus        string   `json:"order_status,omitempty"`
	Status             string   `json:"status"`
	OrderType          string   `json:"order_type"`
	TakeProfit         *float64 `json:"takeprofit,omitempty"`
	TakeProfitID       string   `json:"takeprofit_id,omitempty"`
	TakeProfitCancelID string   `json:"takeprofit_cancel_id,omitempty"`
	ContractValue      *float64 `json:"contract_value,omitempty"`
	OrderQuantity      *float64 `json:"order_quantity,omitempty"`
	Type               string   `json:"type"`
}
