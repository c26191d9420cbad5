// Package spread computes the spread-adjusted "score" price used when a
// take-profit trigger is compared against live bid/ask instead of the
// user-facing price.
package spread

import (
	"context"

	"go.uber.org/zap"
)

// GroupParams holds the market parameters of a (group, symbol) pair.
// Fields are nil when the store has no usable value.
type GroupParams struct {
	Spread       *float64
	SpreadPip    *float64
	ContractSize *float64
}

// GroupSource resolves group market parameters for a symbol.
type GroupSource interface {
	GroupParams(ctx context.Context, symbol, group string) (GroupParams, error)
}

// Calculator derives half-spread offsets from group market parameters.
type Calculator struct {
	src    GroupSource
	logger *zap.Logger
}

// NewCalculator creates a Calculator backed by the given group source.
func NewCalculator(src GroupSource, logger *zap.Logger) *Calculator {
	return &Calculator{src: src, logger: logger}
}

// HalfSpread returns spread * spread_pip / 2 for the symbol's group.
//
// Degrades to 0 when the lookup fails or either parameter is absent: a
// trigger without spread adjustment is safer than a failed request. The
// result is never negative.
func (c *Calculator) HalfSpread(ctx context.Context, symbol, group string) float64 {
	params, err := c.src.GroupParams(ctx, symbol, group)
	if err != nil {
		c.logger.Warn("half_spread lookup failed, using 0",
			zap.String("symbol", symbol),
			zap.String("group", group),
			zap.Error(err),
		)
		return 0
	}
	if params.Spread == nil || params.SpreadPip == nil {
		return 0
	}
	half := *params.Spread * *params.SpreadPip / 2
	if half < 0 {
		return 0
	}
	return half
}

// AdjustedPrice shifts a raw price by the half spread in the direction the
// trigger is monitored: BUY triggers compare against BID (raw + half),
// SELL triggers compare against ASK (raw - half).
func AdjustedPrice(raw float64, side string, halfSpread float64) float64 {
	if side == "BUY" {
		return raw + halfSpread
	}
	return raw - halfSpread
}
