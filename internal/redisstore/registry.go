package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LifecycleRegistry associates externally-issued correlation ids with an
// order: a global lookup key per id plus the id recorded on the canonical
// order hash, so any peer can resolve an id back to its order.
type LifecycleRegistry struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewLifecycleRegistry creates a Redis-backed lifecycle registry.
func NewLifecycleRegistry(rdb redis.UniversalClient, logger *zap.Logger) *LifecycleRegistry {
	return &LifecycleRegistry{rdb: rdb, logger: logger}
}

// Add records the association. The lookup is append-only: SETNX never
// rebinds an id that already points at an order.
func (r *LifecycleRegistry) Add(ctx context.Context, orderID, newID, kind string) error {
	if orderID == "" || newID == "" || kind == "" {
		return fmt.Errorf("lifecycle id registration requires order_id, id and kind")
	}

	pipe := r.rdb.Pipeline()
	pipe.SetNX(ctx, orderLookupKey(newID), orderID, 0)
	pipe.HSet(ctx, orderDataKey(orderID), kind, newID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lifecycle id registration for %s failed: %w", orderID, err)
	}

	// Keep the associated_ids array current. Purely informational, so a
	// failure here only logs.
	if err := r.appendAssociatedID(ctx, orderID, newID); err != nil {
		r.logger.Warn("failed to update associated_ids",
			zap.String("order_id", orderID),
			zap.String("new_id", newID),
			zap.Error(err),
		)
	}
	return nil
}

func (r *LifecycleRegistry) appendAssociatedID(ctx context.Context, orderID, newID string) error {
	raw, err := r.rdb.HGet(ctx, orderDataKey(orderID), "associated_ids").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	var ids []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			ids = nil
		}
	}
	for _, id := range ids {
		if id == newID {
			return nil
		}
	}
	ids = append(ids, newID)

	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, orderDataKey(orderID), "associated_ids", string(encoded)).Err()
}
