// Package orchestrator sequences take-profit lifecycle operations across
// the trigger-monitor store, the snapshot cache, the durable event queue
// and the external execution venue.
//
// No transaction spans those stores. The contract is explicit about which
// writes matter: the trigger upsert (local add) and the routing-status
// write (provider cancel) propagate failure; every other write is
// best-effort, counted and logged when it fails, and never changes the
// returned result. Provider confirmations arrive out of band and are
// reconciled by a separate dispatcher against the routing status written
// here; nothing in this package waits for them.
package orchestrator

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/flow"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/msg"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/provider"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/spread"
)

// Lifecycle id kinds recorded in the registry.
const (
	KindTakeProfitID       = "takeprofit_id"
	KindTakeProfitCancelID = "takeprofit_cancel_id"
)

const defaultGroup = "Standard"

var addRequired = []string{"order_id", "user_id", "user_type", "symbol", "order_type", "take_profit"}
var cancelRequired = []string{"order_id", "user_id", "user_type", "symbol", "order_type", "takeprofit_id"}

// Orchestrator implements AddTakeProfit and CancelTakeProfit over
// injected store and gateway ports.
type Orchestrator struct {
	triggers  TriggerStore
	snapshots SnapshotStore
	events    EventPublisher
	gateway   ProviderGateway
	registry  LifecycleRegistry
	accounts  AccountSource
	groups    spread.GroupSource
	spread    *spread.Calculator
	logger    *zap.Logger

	swallowedWrites int64
}

// New creates an orchestrator. All ports are required.
func New(
	triggers TriggerStore,
	snapshots SnapshotStore,
	events EventPublisher,
	gateway ProviderGateway,
	registry LifecycleRegistry,
	accounts AccountSource,
	groups spread.GroupSource,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		triggers:  triggers,
		snapshots: snapshots,
		events:    events,
		gateway:   gateway,
		registry:  registry,
		accounts:  accounts,
		groups:    groups,
		spread:    spread.NewCalculator(groups, logger),
		logger:    logger,
	}
}

// SwallowedWrites reports how many best-effort writes have failed since
// start. Exposed for stats logging and tests.
func (o *Orchestrator) SwallowedWrites() int64 {
	return atomic.LoadInt64(&o.swallowedWrites)
}

// bestEffort records a swallowed failure without propagating it.
func (o *Orchestrator) bestEffort(op, orderID string, err error) {
	if err == nil {
		return
	}
	atomic.AddInt64(&o.swallowedWrites, 1)
	o.logger.Warn("best-effort write failed",
		zap.String("op", op),
		zap.String("order_id", orderID),
		zap.Error(err),
	)
}

// resolveFlow fetches account config and applies the routing table. A
// config fetch failure degrades to the default group with no routing
// preference, which still fails closed for live accounts.
func (o *Orchestrator) resolveFlow(ctx context.Context, userType, userID string) (flow.Path, AccountConfig, *Result) {
	cfg, err := o.accounts.UserConfig(ctx, userType, userID)
	if err != nil {
		o.logger.Warn("user config fetch failed, using defaults",
			zap.String("user_type", userType),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		cfg = AccountConfig{Group: defaultGroup}
	}
	if cfg.Group == "" {
		cfg.Group = defaultGroup
	}

	path, err := flow.Resolve(userType, cfg.SendingOrders)
	if err != nil {
		return "", cfg, &Result{
			OK:     false,
			Reason: ReasonUnsupportedFlow,
			Details: map[string]string{
				"user_type":      userType,
				"sending_orders": strings.ToLower(strings.TrimSpace(cfg.SendingOrders)),
			},
		}
	}
	return path, cfg, nil
}

// AddTakeProfit attaches a take-profit trigger to an order.
//
// Local path: the trigger-store upsert is authoritative; cache mirrors and
// the durable event are best-effort. Provider path: the adjusted price is
// sent to the venue and the call returns without waiting for confirmation.
func (o *Orchestrator) AddTakeProfit(ctx context.Context, req Request) Result {
	if missing := missingFields(req, addRequired); len(missing) > 0 {
		return Result{OK: false, Reason: ReasonMissingFields, Fields: missing}
	}

	orderID := strings.TrimSpace(req.OrderID)
	userID := strings.TrimSpace(req.UserID)
	userType := strings.ToLower(strings.TrimSpace(req.UserType))
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	side := strings.ToUpper(strings.TrimSpace(req.OrderType))
	if side != SideBuy && side != SideSell {
		return Result{OK: false, Reason: ReasonInvalidOrderType}
	}
	tpPtr := safeFloat(req.TakeProfit)
	if tpPtr == nil || *tpPtr <= 0 {
		return Result{OK: false, Reason: ReasonInvalidTakeProfit}
	}
	tp := *tpPtr

	path, cfg, failure := o.resolveFlow(ctx, userType, userID)
	if failure != nil {
		return *failure
	}

	halfSpread := o.spread.HalfSpread(ctx, symbol, cfg.Group)

	if path == flow.PathLocal {
		return o.addLocal(ctx, orderID, userID, userType, symbol, side, tp, halfSpread)
	}
	return o.addProvider(ctx, req, orderID, userType, userID, symbol, side, tp, halfSpread, cfg.Group)
}

func (o *Orchestrator) addLocal(ctx context.Context, orderID, userID, userType, symbol, side string, tp, halfSpread float64) Result {
	// BUY triggers compare against BID, SELL against ASK.
	score := spread.AdjustedPrice(tp, side, halfSpread)

	err := o.triggers.Upsert(ctx, TriggerRow{
		OrderID:         orderID,
		Symbol:          symbol,
		Side:            side,
		UserType:        userType,
		UserID:          userID,
		TakeProfit:      &tp,
		ScoreTakeProfit: &score,
	})
	if err != nil {
		o.logger.Error("trigger upsert failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return Result{
			OK:        false,
			Reason:    ReasonUpsertFailed,
			OrderID:   orderID,
			Symbol:    symbol,
			OrderType: side,
			Error:     err.Error(),
		}
	}

	// Mirrors and the durable event are independent of each other and of
	// the result; the caches catch up asynchronously if any of them fail.
	o.bestEffort("mirror canonical order", orderID, o.snapshots.SetOrderFields(ctx, orderID, map[string]string{
		"symbol":      symbol,
		"order_type":  side,
		"user_type":   userType,
		"user_id":     userID,
		"take_profit": formatFloat(tp),
	}))
	o.bestEffort("mirror user holdings", orderID, o.snapshots.SetHoldingFields(ctx, userType, userID, orderID, map[string]string{
		"take_profit": formatFloat(tp),
	}))
	o.bestEffort("publish db update", orderID, o.events.Publish(ctx, msg.DBUpdateMsg{
		Type:       msg.EventTakeProfitSet,
		OrderID:    orderID,
		UserID:     userID,
		UserType:   userType,
		TakeProfit: &tp,
	}))

	return Result{
		OK:              true,
		Flow:            string(flow.PathLocal),
		OrderID:         orderID,
		Symbol:          symbol,
		OrderType:       side,
		TakeProfit:      &tp,
		ScoreTakeProfit: &score,
	}
}

func (o *Orchestrator) addProvider(ctx context.Context, req Request, orderID, userType, userID, symbol, side string, tp, halfSpread float64, group string) Result {
	// Same adjustment formula as the local score price.
	providerTP := spread.AdjustedPrice(tp, side, halfSpread)

	takeProfitID := strings.TrimSpace(req.TakeProfitID)
	if takeProfitID != "" {
		o.bestEffort("register takeprofit_id", orderID,
			o.registry.Add(ctx, orderID, takeProfitID, KindTakeProfitID))
	}

	// Mark routing state so any reader sees the order as in flight.
	o.bestEffort("mark canonical routing status", orderID, o.snapshots.SetOrderFields(ctx, orderID, map[string]string{
		"status":     provider.StatusTakeProfit,
		"symbol":     symbol,
		"order_type": side,
	}))
	o.bestEffort("mark holdings routing status", orderID, o.snapshots.SetHoldingFields(ctx, userType, userID, orderID, map[string]string{
		"status": provider.StatusTakeProfit,
	}))

	orderStatus := req.OrderStatus
	if orderStatus == "" {
		orderStatus = StatusOpen
	}

	// Prefer payload quantity/entry price, fall back to the canonical
	// record, and only then derive contract value. Never fabricate a zero.
	qty := safeFloat(req.OrderQuantity)
	entryPrice := safeFloat(req.OrderPrice)
	var existingCV *float64
	if qty == nil || entryPrice == nil {
		record, err := o.snapshots.OrderRecord(ctx, orderID)
		if err != nil {
			o.bestEffort("read canonical order", orderID, err)
		} else {
			if qty == nil {
				qty = parseFloat(record["order_quantity"])
			}
			if entryPrice == nil {
				entryPrice = parseFloat(record["order_price"])
			}
			existingCV = parseFloat(record["contract_value"])
		}
	}

	contractValue := existingCV
	if contractValue == nil && qty != nil && entryPrice != nil {
		contractSize := 1.0
		if params, err := o.groups.GroupParams(ctx, symbol, group); err == nil && params.ContractSize != nil {
			contractSize = *params.ContractSize
		}
		cv := contractSize * *qty * *entryPrice
		contractValue = &cv
	}

	order := provider.Order{
		OrderID:       orderID,
		Symbol:        symbol,
		OrderStatus:   orderStatus,
		Status:        provider.StatusTakeProfit,
		OrderType:     side,
		TakeProfit:    &providerTP,
		TakeProfitID:  takeProfitID,
		ContractValue: contractValue,
		OrderQuantity: qty,
		Type:          "order",
	}

	channel, err := o.gateway.Send(ctx, order)
	if err != nil {
		o.logger.Error("provider send failed",
			zap.String("order_id", orderID),
			zap.String("channel", channel),
			zap.Error(err),
		)
		return Result{
			OK:        false,
			Reason:    ReasonProviderSendFailed + ":" + channel,
			OrderID:   orderID,
			Symbol:    symbol,
			OrderType: side,
			Error:     err.Error(),
		}
	}

	return Result{
		OK:             true,
		Flow:           string(flow.PathProvider),
		OrderID:        orderID,
		Symbol:         symbol,
		OrderType:      side,
		TakeProfitSent: &providerTP,
		Note:           "takeprofit sent to provider; confirmation handled asynchronously",
	}
}

// CancelTakeProfit detaches a take-profit trigger.
//
// Local path: every sub-step is best-effort and the call reports success
// once validation and flow resolution pass (cancel of something possibly
// already gone is idempotent). Provider path: the routing-status write
// after a successful gateway send is load-bearing and its failure is
// terminal, because an unroutable confirmation is a correctness hazard.
func (o *Orchestrator) CancelTakeProfit(ctx context.Context, req Request) Result {
	if missing := missingFields(req, cancelRequired); len(missing) > 0 {
		return Result{OK: false, Reason: ReasonMissingFields, Fields: missing}
	}

	orderID := strings.TrimSpace(req.OrderID)
	userID := strings.TrimSpace(req.UserID)
	userType := strings.ToLower(strings.TrimSpace(req.UserType))
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	side := strings.ToUpper(strings.TrimSpace(req.OrderType))
	if side != SideBuy && side != SideSell {
		return Result{OK: false, Reason: ReasonInvalidOrderType}
	}

	path, _, failure := o.resolveFlow(ctx, userType, userID)
	if failure != nil {
		return *failure
	}

	if path == flow.PathLocal {
		return o.cancelLocal(ctx, orderID, userID, userType, symbol, side)
	}
	return o.cancelProvider(ctx, req, orderID, userType, userID, symbol, side)
}

func (o *Orchestrator) cancelLocal(ctx context.Context, orderID, userID, userType, symbol, side string) Result {
	o.bestEffort("remove trigger", orderID, o.triggers.Remove(ctx, orderID))

	o.bestEffort("clear canonical take_profit", orderID,
		o.snapshots.DeleteOrderFields(ctx, orderID, "take_profit"))
	o.bestEffort("clear holdings take_profit", orderID,
		o.snapshots.DeleteHoldingFields(ctx, userType, userID, orderID, "take_profit"))
	o.bestEffort("reset canonical status", orderID, o.snapshots.SetOrderFields(ctx, orderID, map[string]string{
		"status":     StatusOpen,
		"symbol":     symbol,
		"order_type": side,
	}))
	o.bestEffort("reset holdings status", orderID, o.snapshots.SetHoldingFields(ctx, userType, userID, orderID, map[string]string{
		"status": StatusOpen,
	}))
	o.bestEffort("publish db update", orderID, o.events.Publish(ctx, msg.DBUpdateMsg{
		Type:     msg.EventTakeProfitCancel,
		OrderID:  orderID,
		UserID:   userID,
		UserType: userType,
	}))

	return Result{
		OK:        true,
		Flow:      string(flow.PathLocal),
		OrderID:   orderID,
		Symbol:    symbol,
		OrderType: side,
		Note:      "takeprofit cancelled locally",
	}
}

func (o *Orchestrator) cancelProvider(ctx context.Context, req Request, orderID, userType, userID, symbol, side string) Result {
	cancelID := strings.TrimSpace(req.TakeProfitCancelID)
	if cancelID != "" {
		o.bestEffort("register takeprofit_cancel_id", orderID,
			o.registry.Add(ctx, orderID, cancelID, KindTakeProfitCancelID))
	}

	order := provider.Order{
		OrderID:            orderID,
		Symbol:             symbol,
		OrderType:          side,
		TakeProfitID:       strings.TrimSpace(req.TakeProfitID),
		TakeProfitCancelID: cancelID,
		Status:             provider.StatusTakeProfitCancel,
		Type:               "order",
	}

	channel, err := o.gateway.Send(ctx, order)
	if err != nil {
		o.logger.Error("provider cancel send failed",
			zap.String("order_id", orderID),
			zap.String("channel", channel),
			zap.Error(err),
		)
		return Result{
			OK:        false,
			Reason:    ReasonProviderSendFailed + ":" + channel,
			OrderID:   orderID,
			Symbol:    symbol,
			OrderType: side,
			Error:     err.Error(),
		}
	}

	// Load-bearing: the ack dispatcher routes the venue's confirmation by
	// this status. Failing here after a successful send is still a hard
	// failure; an unroutable confirmation must be surfaced to operators.
	routingFields := map[string]string{
		"status":               provider.StatusTakeProfitCancel,
		"symbol":               symbol,
		"order_type":           side,
		"takeprofit_cancel_id": cancelID,
	}
	if err := o.snapshots.SetOrderFields(ctx, orderID, routingFields); err != nil {
		return o.routingStatusFailure(orderID, symbol, side, err)
	}
	if err := o.snapshots.SetHoldingFields(ctx, userType, userID, orderID, map[string]string{
		"status": provider.StatusTakeProfitCancel,
	}); err != nil {
		return o.routingStatusFailure(orderID, symbol, side, err)
	}

	// Read-back verification. A mismatch is an escalation for operators,
	// not a result change: the write attempt has already been committed.
	if status, err := o.snapshots.OrderStatus(ctx, orderID); err != nil {
		o.logger.Error("routing status verification read failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	} else if status != provider.StatusTakeProfitCancel {
		o.logger.Error("routing status verification mismatch",
			zap.String("order_id", orderID),
			zap.String("expected", provider.StatusTakeProfitCancel),
			zap.String("actual", status),
		)
	}

	return Result{
		OK:                 true,
		Flow:               string(flow.PathProvider),
		OrderID:            orderID,
		Symbol:             symbol,
		OrderType:          side,
		ProviderCancelSent: true,
		Note:               "takeprofit cancel sent to provider; finalized on confirmation",
	}
}

func (o *Orchestrator) routingStatusFailure(orderID, symbol, side string, err error) Result {
	o.logger.Error("routing status write failed after provider send",
		zap.String("order_id", orderID),
		zap.Error(err),
	)
	return Result{
		OK:        false,
		Reason:    ReasonRoutingStatusFailed,
		OrderID:   orderID,
		Symbol:    symbol,
		OrderType: side,
		Error:     err.Error(),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
