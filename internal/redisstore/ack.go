package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AckStore reads provider confirmation records written by the listener
// consuming the venue's callback stream. Read-only from this service.
type AckStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
}

// NewAckStore creates a Redis-backed ack record source.
func NewAckStore(rdb redis.UniversalClient, logger *zap.Logger) *AckStore {
	return &AckStore{rdb: rdb, logger: logger}
}

type ackRecord struct {
	OrdStatus string `json:"ord_status"`
}

// ProviderAck implements ackwait.RecordSource. A missing key or a record
// the listener half-wrote both count as not present; the waiter keeps
// polling.
func (s *AckStore) ProviderAck(ctx context.Context, correlationID string) (string, bool, error) {
	raw, err := s.rdb.Get(ctx, providerAckKey(correlationID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("provider ack read for %s failed: %w", correlationID, err)
	}

	var record ackRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.OrdStatus == "" {
		return "", false, nil
	}
	return strings.ToUpper(record.OrdStatus), true, nil
}
