package redisstore

import (
	"fmt"
	"strings"
)

// Braced segments are Redis Cluster hash tags: every structure sharing a
// tag lands on the same slot, so pipelines touching them stay single-node.

func orderTriggersKey(orderID string) string {
	return "order_triggers:" + orderID
}

func tpIndexKey(symbol, side string) string {
	return fmt.Sprintf("tp_index:{%s}:%s", symbol, side)
}

func slIndexKey(symbol, side string) string {
	return fmt.Sprintf("sl_index:{%s}:%s", symbol, side)
}

func orderDataKey(orderID string) string {
	return "order_data:" + orderID
}

func holdingsKey(userType, userID, orderID string) string {
	return fmt.Sprintf("user_holdings:{%s:%s}:%s", userType, userID, orderID)
}

func groupKey(group, symbol string) string {
	return fmt.Sprintf("groups:{%s}:%s", group, strings.ToUpper(symbol))
}

func userConfigKey(userType, userID string) string {
	return fmt.Sprintf("user:{%s:%s}:config", userType, userID)
}

func orderLookupKey(anyID string) string {
	return "global_order_lookup:" + anyID
}

func providerAckKey(correlationID string) string {
	return "provider:ack:" + correlationID
}
