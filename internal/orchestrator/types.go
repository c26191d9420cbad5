package orchestrator

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Request is the inbound payload for both AddTakeProfit and
// CancelTakeProfit. Numeric fields arrive as JSON numbers; empty string
// fields count as missing.
type Request struct {
	OrderID            string      `json:"order_id"`
	UserID             string      `json:"user_id"`
	UserType           string      `json:"user_type"`
	Symbol             string      `json:"symbol"`
	OrderType          string      `json:"order_type"`
	OrderStatus        string      `json:"order_status,omitempty"`
	TakeProfit         json.Number `json:"take_profit,omitempty"`
	OrderQuantity      json.Number `json:"order_quantity,omitempty"`
	OrderPrice         json.Number `json:"order_price,omitempty"`
	TakeProfitID       string      `json:"takeprofit_id,omitempty"`
	TakeProfitCancelID string      `json:"takeprofit_cancel_id,omitempty"`
}

// Result is the structured outcome of an orchestration call. Failures are
// reported here, never as errors across the orchestration boundary;
// callers branch on OK and Reason.
type Result struct {
	OK        bool   `json:"ok"`
	Flow      string `json:"flow,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	OrderType string `json:"order_type,omitempty"`

	TakeProfit         *float64 `json:"take_profit,omitempty"`
	ScoreTakeProfit    *float64 `json:"score_take_profit,omitempty"`
	TakeProfitSent     *float64 `json:"take_profit_sent,omitempty"`
	ProviderCancelSent bool     `json:"provider_cancel_sent,omitempty"`
	Note               string   `json:"note,omitempty"`

	Reason  string            `json:"reason,omitempty"`
	Fields  []string          `json:"fields,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Failure reasons. The routing-status reason string is part of the
// contract with the ack dispatcher's runbooks; do not rename casually.
const (
	ReasonMissingFields       = "missing_fields"
	ReasonInvalidOrderType    = "invalid_order_type"
	ReasonInvalidTakeProfit   = "invalid_take_profit"
	ReasonUnsupportedFlow     = "unsupported_flow"
	ReasonUpsertFailed        = "upsert_triggers_failed"
	ReasonProviderSendFailed  = "provider_send_failed"
	ReasonRoutingStatusFailed = "redis_status_update_failed"
)

// Snapshot status values readers branch on.
const (
	StatusOpen = "OPEN"
)

// Sides accepted in order_type.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// safeFloat parses a JSON number leniently, returning nil for absent or
// non-numeric values.
func safeFloat(n json.Number) *float64 {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// missingFields returns the names of required fields that are empty, in
// the order given.
func missingFields(req Request, required []string) []string {
	present := map[string]bool{
		"order_id":      req.OrderID != "",
		"user_id":       req.UserID != "",
		"user_type":     req.UserType != "",
		"symbol":        req.Symbol != "",
		"order_type":    req.OrderType != "",
		"take_profit":   req.TakeProfit.String() != "",
		"takeprofit_id": req.TakeProfitID != "",
	}

	var missing []string
	for _, f := range required {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	return missing
}
