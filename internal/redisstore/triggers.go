package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/orchestrator"
)

// TriggerStore keeps active stop-loss/take-profit conditions where the
// price monitor can range-scan them: a metadata hash per order plus
// per-symbol/side sorted sets scored by the spread-adjusted price.
type TriggerStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewTriggerStore creates a Redis-backed trigger store.
func NewTriggerStore(rdb redis.UniversalClient, logger *zap.Logger) *TriggerStore {
	return &TriggerStore{rdb: rdb, logger: logger}
}

// Upsert writes the trigger row and indexes it for monitoring. The sorted
// sets are scored by the score price so the monitor compares directly
// against live bid/ask.
func (s *TriggerStore) Upsert(ctx context.Context, row orchestrator.TriggerRow) error {
	if row.Side != "BUY" && row.Side != "SELL" {
		return fmt.Errorf("invalid trigger side %q", row.Side)
	}

	fields := map[string]string{
		"order_id":   row.OrderID,
		"symbol":     row.Symbol,
		"order_type": row.Side,
		"user_type":  row.UserType,
		"user_id":    row.UserID,
	}
	if row.StopLoss != nil {
		fields["stop_loss"] = formatPrice(*row.StopLoss)
	}
	if row.TakeProfit != nil {
		fields["take_profit"] = formatPrice(*row.TakeProfit)
	}
	if row.ScoreStopLoss != nil {
		fields["score_stop_loss"] = formatPrice(*row.ScoreStopLoss)
	}
	if row.ScoreTakeProfit != nil {
		fields["score_take_profit"] = formatPrice(*row.ScoreTakeProfit)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, orderTriggersKey(row.OrderID), fields)
	if row.StopLoss != nil {
		score := *row.StopLoss
		if row.ScoreStopLoss != nil {
			score = *row.ScoreStopLoss
		}
		pipe.ZAdd(ctx, slIndexKey(row.Symbol, row.Side), redis.Z{Score: score, Member: row.OrderID})
	}
	if row.TakeProfit != nil {
		score := *row.TakeProfit
		if row.ScoreTakeProfit != nil {
			score = *row.ScoreTakeProfit
		}
		pipe.ZAdd(ctx, tpIndexKey(row.Symbol, row.Side), redis.Z{Score: score, Member: row.OrderID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("trigger upsert for %s failed: %w", row.OrderID, err)
	}
	return nil
}

// Remove deletes the trigger row and de-indexes it. A missing row is not
// an error; cancels race trigger executions routinely.
func (s *TriggerStore) Remove(ctx context.Context, orderID string) error {
	doc, err := s.rdb.HGetAll(ctx, orderTriggersKey(orderID)).Result()
	if err != nil {
		return fmt.Errorf("trigger lookup for %s failed: %w", orderID, err)
	}
	if len(doc) == 0 {
		return nil
	}

	symbol := doc["symbol"]
	side := doc["order_type"]

	pipe := s.rdb.Pipeline()
	if symbol != "" && (side == "BUY" || side == "SELL") {
		pipe.ZRem(ctx, slIndexKey(symbol, side), orderID)
		pipe.ZRem(ctx, tpIndexKey(symbol, side), orderID)
	}
	pipe.Del(ctx, orderTriggersKey(orderID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("trigger removal for %s failed: %w", orderID, err)
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
