package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Key shapes are shared with the other platform services; a drift here
// silently splits the dataset.
func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "order_triggers:O1", orderTriggersKey("O1"))
	assert.Equal(t, "tp_index:{EURUSD}:BUY", tpIndexKey("EURUSD", "BUY"))
	assert.Equal(t, "sl_index:{EURUSD}:SELL", slIndexKey("EURUSD", "SELL"))
	assert.Equal(t, "order_data:O1", orderDataKey("O1"))
	assert.Equal(t, "user_holdings:{live:U1}:O1", holdingsKey("live", "U1", "O1"))
	assert.Equal(t, "groups:{Standard}:EURUSD", groupKey("Standard", "eurusd"))
	assert.Equal(t, "user:{live:U1}:config", userConfigKey("live", "U1"))
	assert.Equal(t, "global_order_lookup:TP1", orderLookupKey("TP1"))
	assert.Equal(t, "provider:ack:TP1", providerAckKey("TP1"))
}
