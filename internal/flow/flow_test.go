package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		userType      string
		sendingOrders string
		want          Path
	}{
		{"demo ignores routing", "demo", "", PathLocal},
		{"demo with barclays still local", "demo", "barclays", PathLocal},
		{"live rock", "live", "rock", PathLocal},
		{"live barclays", "live", "barclays", PathProvider},
		{"strategy provider rock", "strategy_provider", "rock", PathLocal},
		{"strategy provider barclays", "strategy_provider", "barclays", PathProvider},
		{"strategy provider unset defaults to provider", "strategy_provider", "", PathProvider},
		{"copy follower rock", "copy_follower", "rock", PathLocal},
		{"copy follower barclays", "copy_follower", "barclays", PathProvider},
		{"copy follower unknown defaults to provider", "copy_follower", "whatever", PathProvider},
		{"inputs are normalized", "LIVE", "  Barclays ", PathProvider},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.userType, tc.sendingOrders)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	cases := []struct {
		name          string
		userType      string
		sendingOrders string
	}{
		{"live with unset routing", "live", ""},
		{"live with unknown routing", "live", "citadel"},
		{"unknown account type", "admin", "rock"},
		{"empty account type", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.userType, tc.sendingOrders)
			require.Error(t, err)

			var ue *UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.userType, ue.UserType)
		})
	}
}
