package spread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeGroupSource struct {
	params GroupParams
	err    error
}

func (f *fakeGroupSource) GroupParams(ctx context.Context, symbol, group string) (GroupParams, error) {
	return f.params, f.err
}

func f64(v float64) *float64 { return &v }

func TestHalfSpread(t *testing.T) {
	cases := []struct {
		name   string
		params GroupParams
		err    error
		want   float64
	}{
		{"normal", GroupParams{Spread: f64(2), SpreadPip: f64(0.0001)}, nil, 0.0001},
		{"lookup error degrades to zero", GroupParams{}, errors.New("down"), 0},
		{"missing spread", GroupParams{SpreadPip: f64(0.0001)}, nil, 0},
		{"missing spread_pip", GroupParams{Spread: f64(2)}, nil, 0},
		{"negative inputs clamp to zero", GroupParams{Spread: f64(-2), SpreadPip: f64(0.0001)}, nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := NewCalculator(&fakeGroupSource{params: tc.params, err: tc.err}, zap.NewNop())
			got := calc.HalfSpread(context.Background(), "EURUSD", "Standard")
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestAdjustedPrice(t *testing.T) {
	assert.InDelta(t, 1.2001, AdjustedPrice(1.2000, "BUY", 0.0001), 1e-9)
	assert.InDelta(t, 1.1999, AdjustedPrice(1.2000, "SELL", 0.0001), 1e-9)
	assert.InDelta(t, 1.2000, AdjustedPrice(1.2000, "BUY", 0), 1e-9)
}
