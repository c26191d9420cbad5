// Package flow decides which execution path an order-control request takes:
// local spread-based monitoring, or routing to the external provider.
package flow

import (
	"fmt"
	"strings"
)

// Path is the execution path for an order-control request.
type Path string

const (
	PathLocal    Path = "local"
	PathProvider Path = "provider"
)

// Account types recognized by the resolver.
const (
	AccountDemo             = "demo"
	AccountLive             = "live"
	AccountStrategyProvider = "strategy_provider"
	AccountCopyFollower     = "copy_follower"
)

// Routing preferences carried in account config ("sending_orders").
const (
	RoutingRock     = "rock"
	RoutingBarclays = "barclays"
)

// UnsupportedError reports an account-type/routing combination the table
// does not cover. No default is guessed for it.
type UnsupportedError struct {
	UserType      string
	SendingOrders string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported flow for user_type=%q sending_orders=%q", e.UserType, e.SendingOrders)
}

// Resolve maps (account type, routing preference) to an execution path.
// First match wins:
//
//	demo                              -> local
//	live + rock                       -> local
//	live + barclays                   -> provider
//	strategy_provider/copy_follower:
//	    rock                          -> local
//	    barclays                      -> provider
//	    anything else                 -> provider (copy-trading default)
//	live + anything else              -> unsupported
//	any other account type            -> unsupported
//
// Note the asymmetry: copy-trading accounts default to provider on an
// unrecognized preference while live accounts fail. That matches the
// account-management contract and is deliberate.
func Resolve(userType, sendingOrders string) (Path, error) {
	userType = strings.ToLower(strings.TrimSpace(userType))
	sendingOrders = strings.ToLower(strings.TrimSpace(sendingOrders))

	switch userType {
	case AccountDemo:
		return PathLocal, nil
	case AccountLive:
		switch sendingOrders {
		case RoutingRock:
			return PathLocal, nil
		case RoutingBarclays:
			return PathProvider, nil
		}
	case AccountStrategyProvider, AccountCopyFollower:
		if sendingOrders == RoutingRock {
			return PathLocal, nil
		}
		return PathProvider, nil
	}

	return "", &UnsupportedError{UserType: userType, SendingOrders: sendingOrders}
}
