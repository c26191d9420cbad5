package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeVenue accepts connections and answers every JSON line with the
// configured ack.
func fakeVenue(t *testing.T, ack string) (addr string, received chan Order) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received = make(chan Order, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadBytes('\n')
					if err != nil {
						return
					}
					var order Order
					if json.Unmarshal(line, &order) == nil {
						received <- order
					}
					if _, err := conn.Write([]byte(ack + "\n")); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String(), received
}

func newTestClient(t *testing.T, tcpAddr string) *Client {
	t.Helper()
	c := NewClient(Config{TCPAddr: tcpAddr, Timeout: 2 * time.Second}, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSend_TCPFallbackDeliversFrame(t *testing.T) {
	addr, received := fakeVenue(t, `{"ok":true}`)

	// UDS path points nowhere; the client must fall back to TCP.
	c := NewClient(Config{UDSPath: "/nonexistent/provider.sock", TCPAddr: addr, Timeout: 2 * time.Second}, zap.NewNop())
	defer c.Close()

	tp := 1.2001
	channel, err := c.Send(context.Background(), Order{
		OrderID:    "ord-1",
		Symbol:     "EURUSD",
		Status:     StatusTakeProfit,
		OrderType:  "BUY",
		TakeProfit: &tp,
		Type:       "order",
	})
	require.NoError(t, err)
	assert.Equal(t, ChannelTCP, channel)

	select {
	case got := <-received:
		assert.Equal(t, "ord-1", got.OrderID)
		assert.Equal(t, StatusTakeProfit, got.Status)
		require.NotNil(t, got.TakeProfit)
		assert.InDelta(t, 1.2001, *got.TakeProfit, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("venue never received the frame")
	}
}

func TestSend_ReusesConnection(t *testing.T) {
	addr, received := fakeVenue(t, `{"ok":true}`)
	c := newTestClient(t, addr)

	for i := 0; i < 3; i++ {
		channel, err := c.Send(context.Background(), Order{
			OrderID:   "ord-reuse",
			Symbol:    "EURUSD",
			Status:    StatusTakeProfitCancel,
			OrderType: "SELL",
			Type:      "order",
		})
		require.NoError(t, err)
		assert.Equal(t, ChannelTCP, channel)
	}
	assert.Len(t, received, 3)
}

func TestSend_VenueRejection(t *testing.T) {
	addr, _ := fakeVenue(t, `{"ok":false,"reason":"unknown order"}`)
	c := newTestClient(t, addr)

	channel, err := c.Send(context.Background(), Order{
		OrderID:   "ord-rej",
		Symbol:    "EURUSD",
		Status:    StatusTakeProfit,
		OrderType: "BUY",
		Type:      "order",
	})
	require.Error(t, err)
	assert.Equal(t, ChannelTCP, channel, "rejection reports the channel that carried the send")
	assert.Contains(t, err.Error(), "unknown order")
}

func TestSend_NoEndpointReachable(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1") // nothing listens here

	channel, err := c.Send(context.Background(), Order{
		OrderID:   "ord-x",
		Symbol:    "EURUSD",
		Status:    StatusTakeProfit,
		OrderType: "BUY",
		Type:      "order",
	})
	require.Error(t, err)
	assert.Equal(t, ChannelNone, channel)
}
