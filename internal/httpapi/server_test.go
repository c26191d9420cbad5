package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/ackwait"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/orchestrator"
)

type stubOrchestrator struct {
	lastAdd    *orchestrator.Request
	lastCancel *orchestrator.Request
	result     orchestrator.Result
}

func (s *stubOrchestrator) AddTakeProfit(ctx context.Context, req orchestrator.Request) orchestrator.Result {
	s.lastAdd = &req
	return s.result
}

func (s *stubOrchestrator) CancelTakeProfit(ctx context.Context, req orchestrator.Request) orchestrator.Result {
	s.lastCancel = &req
	return s.result
}

type stubAckSource struct {
	status string
	ok     bool
}

func (s *stubAckSource) ProviderAck(ctx context.Context, correlationID string) (string, bool, error) {
	return s.status, s.ok, nil
}

func newTestServer(orch *stubOrchestrator, ack *stubAckSource) *httptest.Server {
	logger := zap.NewNop()
	srv := NewServer(orch, ackwait.NewWaiter(ack, logger), logger)
	mux := http.NewServeMux()
	srv.Register(mux)
	return httptest.NewServer(mux)
}

func TestHandleAdd_PassesPayloadAndReturnsResult(t *testing.T) {
	score := 1.2001
	orch := &stubOrchestrator{result: orchestrator.Result{
		OK:              true,
		Flow:            "local",
		OrderID:         "O1",
		Symbol:          "EURUSD",
		OrderType:       "BUY",
		ScoreTakeProfit: &score,
	}}
	ts := newTestServer(orch, &stubAckSource{})
	defer ts.Close()

	body := `{"order_id":"O1","user_id":"U1","user_type":"demo","symbol":"eurusd","order_type":"buy","take_profit":1.2}`
	resp, err := http.Post(ts.URL+"/api/orders/takeprofit/add", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result orchestrator.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.OK)
	assert.Equal(t, "local", result.Flow)
	require.NotNil(t, result.ScoreTakeProfit)
	assert.InDelta(t, 1.2001, *result.ScoreTakeProfit, 1e-9)

	require.NotNil(t, orch.lastAdd)
	assert.Equal(t, "O1", orch.lastAdd.OrderID)
	assert.Equal(t, "1.2", orch.lastAdd.TakeProfit.String())
}

func TestHandleCancel_RejectionStaysHTTP200(t *testing.T) {
	orch := &stubOrchestrator{result: orchestrator.Result{
		OK:     false,
		Reason: orchestrator.ReasonMissingFields,
		Fields: []string{"takeprofit_id"},
	}}
	ts := newTestServer(orch, &stubAckSource{})
	defer ts.Close()

	body := `{"order_id":"O1","user_id":"U1","user_type":"demo","symbol":"eurusd","order_type":"buy"}`
	resp, err := http.Post(ts.URL+"/api/orders/takeprofit/cancel", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "domain rejections are structured results, not HTTP errors")

	var result orchestrator.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.OK)
	assert.Equal(t, []string{"takeprofit_id"}, result.Fields)
	require.NotNil(t, orch.lastCancel)
}

func TestHandleAdd_BadJSONIs400(t *testing.T) {
	ts := newTestServer(&stubOrchestrator{}, &stubAckSource{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/orders/takeprofit/add", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAdd_GetIs405(t *testing.T) {
	ts := newTestServer(&stubOrchestrator{}, &stubAckSource{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/orders/takeprofit/add")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleProviderAck_FoundAndAbsent(t *testing.T) {
	ts := newTestServer(&stubOrchestrator{}, &stubAckSource{status: "CANCELLED", ok: true})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/orders/provider-ack?id=TPC1&status=CANCELLED&timeout_ms=200")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Found     bool   `json:"found"`
		OrdStatus string `json:"ord_status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Found)
	assert.Equal(t, "CANCELLED", body.OrdStatus)

	// timeout_ms=0 must answer immediately with found=false.
	ts2 := newTestServer(&stubOrchestrator{}, &stubAckSource{})
	defer ts2.Close()

	resp2, err := http.Get(ts2.URL + "/api/orders/provider-ack?id=TPC1&timeout_ms=0")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.False(t, body.Found)
}
