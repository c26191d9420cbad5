package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotStore mirrors order state into the canonical order_data hash and
// the per-user user_holdings hash. The holdings key carries a
// {user_type:user_id} hash tag so every holding of one user shares a slot
// with the user's other structures.
type SnapshotStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewSnapshotStore creates a Redis-backed snapshot store.
func NewSnapshotStore(rdb redis.UniversalClient, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, logger: logger}
}

// SetOrderFields merges fields into the canonical order record.
func (s *SnapshotStore) SetOrderFields(ctx context.Context, orderID string, fields map[string]string) error {
	if err := s.rdb.HSet(ctx, orderDataKey(orderID), toAnyMap(fields)).Err(); err != nil {
		return fmt.Errorf("order_data hset for %s failed: %w", orderID, err)
	}
	return nil
}

// SetHoldingFields merges fields into the per-user holdings record.
func (s *SnapshotStore) SetHoldingFields(ctx context.Context, userType, userID, orderID string, fields map[string]string) error {
	key := holdingsKey(userType, userID, orderID)
	if err := s.rdb.HSet(ctx, key, toAnyMap(fields)).Err(); err != nil {
		return fmt.Errorf("user_holdings hset for %s failed: %w", orderID, err)
	}
	return nil
}

// DeleteOrderFields removes fields from the canonical order record.
func (s *SnapshotStore) DeleteOrderFields(ctx context.Context, orderID string, fields ...string) error {
	if err := s.rdb.HDel(ctx, orderDataKey(orderID), fields...).Err(); err != nil {
		return fmt.Errorf("order_data hdel for %s failed: %w", orderID, err)
	}
	return nil
}

// DeleteHoldingFields removes fields from the per-user holdings record.
func (s *SnapshotStore) DeleteHoldingFields(ctx context.Context, userType, userID, orderID string, fields ...string) error {
	key := holdingsKey(userType, userID, orderID)
	if err := s.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("user_holdings hdel for %s failed: %w", orderID, err)
	}
	return nil
}

// OrderRecord reads the whole canonical record; an absent order yields an
// empty map.
func (s *SnapshotStore) OrderRecord(ctx context.Context, orderID string) (map[string]string, error) {
	record, err := s.rdb.HGetAll(ctx, orderDataKey(orderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("order_data read for %s failed: %w", orderID, err)
	}
	return record, nil
}

// OrderStatus reads back the canonical status field; absent yields "".
func (s *SnapshotStore) OrderStatus(ctx context.Context, orderID string) (string, error) {
	status, err := s.rdb.HGet(ctx, orderDataKey(orderID), "status").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("order_data status read for %s failed: %w", orderID, err)
	}
	return status, nil
}

func toAnyMap(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
