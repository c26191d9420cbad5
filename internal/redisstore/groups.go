package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/spread"
)

// GroupStore resolves group market parameters for a symbol, falling back
// to the Standard group when the account's group has no row.
type GroupStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewGroupStore creates a Redis-backed group params source.
func NewGroupStore(rdb redis.UniversalClient, logger *zap.Logger) *GroupStore {
	return &GroupStore{rdb: rdb, logger: logger}
}

// GroupParams implements spread.GroupSource. Non-numeric or absent fields
// come back nil; the spread calculator owns the degradation policy.
func (s *GroupStore) GroupParams(ctx context.Context, symbol, group string) (spread.GroupParams, error) {
	data, err := s.rdb.HGetAll(ctx, groupKey(group, symbol)).Result()
	if err != nil {
		return spread.GroupParams{}, fmt.Errorf("group read for %s/%s failed: %w", group, symbol, err)
	}
	if len(data) == 0 && group != "Standard" {
		data, err = s.rdb.HGetAll(ctx, groupKey("Standard", symbol)).Result()
		if err != nil {
			return spread.GroupParams{}, fmt.Errorf("standard group read for %s failed: %w", symbol, err)
		}
	}

	return spread.GroupParams{
		Spread:       parseField(data, "spread"),
		SpreadPip:    parseField(data, "spread_pip"),
		ContractSize: parseField(data, "contract_size"),
	}, nil
}

func parseField(data map[string]string, field string) *float64 {
	raw, ok := data[field]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
