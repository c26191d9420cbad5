// Package ackwait retrieves the venue's out-of-band confirmation for a
// previously sent order-control message. Confirmations are written to a
// shared key-value channel by the provider listener; this package only
// polls that channel under a deadline.
package ackwait

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultPollInterval = 100 * time.Millisecond

// RecordSource reads the confirmation record for a correlation id.
// ok is false while no well-formed record exists yet; malformed records
// count as not present.
type RecordSource interface {
	ProviderAck(ctx context.Context, correlationID string) (status string, ok bool, err error)
}

// Waiter polls for a confirmation record until it matches or the deadline
// elapses. The wait is cooperative: it suspends only itself between polls
// and never blocks other orchestrations.
type Waiter struct {
	src      RecordSource
	interval time.Duration
	logger   *zap.Logger
}

// NewWaiter creates a Waiter with the default poll interval.
func NewWaiter(src RecordSource, logger *zap.Logger) *Waiter {
	return &Waiter{src: src, interval: defaultPollInterval, logger: logger}
}

// Await polls until the record's status is a case-insensitive member of
// expected, returning that status. A zero or elapsed timeout returns
// immediately without polling. Absence of a confirmation within the
// window is a normal outcome for fire-and-forget flows, not an error:
// found is simply false.
func (w *Waiter) Await(ctx context.Context, correlationID string, expected []string, timeout time.Duration) (status string, found bool) {
	expect := make(map[string]struct{}, len(expected))
	for _, s := range expected {
		expect[strings.ToUpper(s)] = struct{}{}
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got, ok, err := w.src.ProviderAck(ctx, correlationID)
		if err != nil {
			// Store hiccups are retried until the deadline.
			w.logger.Warn("provider ack poll failed",
				zap.String("correlation_id", correlationID),
				zap.Error(err),
			)
		} else if ok {
			if _, want := expect[strings.ToUpper(got)]; want {
				return strings.ToUpper(got), true
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		wait := w.interval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(wait):
		}
	}

	return "", false
}
