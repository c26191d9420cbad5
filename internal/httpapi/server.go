// Package httpapi exposes the take-profit operations over HTTP. Results
// are always 200 with a structured body; callers branch on ok/reason.
// Only undecodable requests and wrong methods get non-200 statuses.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/ackwait"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/orchestrator"
)

const defaultAckTimeout = 6 * time.Second

// Orchestrator is the subset of the take-profit orchestrator the API uses.
type Orchestrator interface {
	AddTakeProfit(ctx context.Context, req orchestrator.Request) orchestrator.Result
	CancelTakeProfit(ctx context.Context, req orchestrator.Request) orchestrator.Result
}

// Server routes take-profit HTTP requests to the orchestrator and the
// ack waiter.
type Server struct {
	orch   Orchestrator
	waiter *ackwait.Waiter
	logger *zap.Logger
}

// NewServer creates the API server.
func NewServer(orch Orchestrator, waiter *ackwait.Waiter, logger *zap.Logger) *Server {
	return &Server{orch: orch, waiter: waiter, logger: logger}
}

// Register mounts the API routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/orders/takeprofit/add", s.handleAdd)
	mux.HandleFunc("/api/orders/takeprofit/cancel", s.handleCancel)
	mux.HandleFunc("/api/orders/provider-ack", s.handleProviderAck)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, s.orch.AddTakeProfit)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, s.orch.CancelTakeProfit)
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request, op func(context.Context, orchestrator.Request) orchestrator.Result) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("undecodable takeprofit request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":     false,
			"reason": "invalid_json",
		})
		return
	}

	result := op(r.Context(), req)
	if !result.OK {
		s.logger.Info("takeprofit operation rejected",
			zap.String("order_id", result.OrderID),
			zap.String("reason", result.Reason),
		)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleProviderAck retrieves the venue's asynchronous confirmation for a
// correlation id, waiting up to timeout_ms. Absence within the window is
// a normal outcome, reported as found=false.
func (s *Server) handleProviderAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	correlationID := r.URL.Query().Get("id")
	if correlationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":     false,
			"reason": "missing_fields",
			"fields": []string{"id"},
		})
		return
	}

	expected := r.URL.Query()["status"]
	if len(expected) == 0 {
		expected = []string{"CANCELLED"}
	}

	timeout := defaultAckTimeout
	if raw := r.URL.Query().Get("timeout_ms"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	status, found := s.waiter.Await(r.Context(), correlationID, expected, timeout)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"id":         correlationID,
		"found":      found,
		"ord_status": status,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
