package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/orchestrator"
)

// AccountStore resolves per-user account configuration. Config is owned by
// the account-management service; this store only reads its Redis mirror.
type AccountStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewAccountStore creates a Redis-backed account config source.
func NewAccountStore(rdb redis.UniversalClient, logger *zap.Logger) *AccountStore {
	return &AccountStore{rdb: rdb, logger: logger}
}

// UserConfig fetches the account's group and routing preference. A user
// with no config record resolves to the Standard group with no routing
// preference, which the flow table handles per account type.
func (s *AccountStore) UserConfig(ctx context.Context, userType, userID string) (orchestrator.AccountConfig, error) {
	data, err := s.rdb.HGetAll(ctx, userConfigKey(userType, userID)).Result()
	if err != nil {
		return orchestrator.AccountConfig{}, fmt.Errorf("user config read for %s:%s failed: %w", userType, userID, err)
	}

	cfg := orchestrator.AccountConfig{
		Group:         data["group"],
		SendingOrders: data["sending_orders"],
	}
	if cfg.Group == "" {
		cfg.Group = "Standard"
	}
	return cfg, nil
}
