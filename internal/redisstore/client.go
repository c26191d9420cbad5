// Package redisstore implements the orchestrator's store ports on the
// shared Redis cluster. Key shapes (including cluster hash tags) match the
// rest of the platform so peers keep reading and writing the same records.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a universal client: a cluster client when several
// addresses are configured, a single-node client otherwise.
func NewClient(addrs []string, password string) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
	})
}

// Ping verifies connectivity, bounded by a short timeout.
func Ping(ctx context.Context, rdb redis.UniversalClient) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
