// Package provider sends order-control messages to the external execution
// venue over its persistent socket protocol: one JSON object per line,
// answered by a one-line ack. A unix domain socket is preferred, with a TCP
// fallback. Confirmations of the order itself arrive out of band and are
// never read here.
package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Channel names reported back to the orchestrator.
const (
	ChannelUDS   = "uds"
	ChannelTCP   = "tcp"
	ChannelNone  = "none"
	ChannelError = "error"
)

// Config holds the gateway endpoints. Either endpoint may be empty.
type Config struct {
	UDSPath string
	TCPAddr string
	Timeout time.Duration
}

// wireAck is the venue's transport-level response to a send. It only
// acknowledges receipt; execution confirmation arrives asynchronously.
type wireAck struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

// Client is a persistent-connection sender. A connection is dialed lazily,
// reused across sends, and redialed once when a send on a cached
// connection fails.
type Client struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	conn    net.Conn
	channel string

	sendCount  int64
	errorCount int64
}

// NewClient creates a gateway client. No connection is made until the
// first send.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Client{cfg: cfg, logger: logger}
}

// Send delivers one order-control message and waits for the transport ack.
// It returns the channel that carried the send ("uds" or "tcp"); on
// failure the channel names the failing leg ("none" when no transport was
// reachable, "error" when the payload could not be encoded).
func (c *Client) Send(ctx context.Context, order Order) (string, error) {
	data, err := json.Marshal(order)
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		return ChannelError, fmt.Errorf("failed to encode provider order: %w", err)
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reuse the cached connection first. A stale connection surfaces as a
	// write/read error; drop it and dial fresh.
	if c.conn != nil {
		if err := c.exchange(c.conn, data); err == nil {
			atomic.AddInt64(&c.sendCount, 1)
			return c.channel, nil
		} else if _, isAck := err.(*ackError); isAck {
			atomic.AddInt64(&c.errorCount, 1)
			return c.channel, err
		}
		c.dropConnLocked()
	}

	conn, channel, err := c.dial(ctx)
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		return ChannelNone, err
	}

	if err := c.exchange(conn, data); err != nil {
		if _, isAck := err.(*ackError); isAck {
			// Connection is fine, the venue rejected the message.
			c.conn, c.channel = conn, channel
			atomic.AddInt64(&c.errorCount, 1)
			return channel, err
		}
		conn.Close()
		atomic.AddInt64(&c.errorCount, 1)
		return channel, fmt.Errorf("provider send on %s failed: %w", channel, err)
	}

	c.conn, c.channel = conn, channel
	atomic.AddInt64(&c.sendCount, 1)
	return channel, nil
}

// Close drops the cached connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.channel = ""
	return err
}

func (c *Client) dropConnLocked() {
	c.conn.Close()
	c.conn = nil
	c.channel = ""
}

// dial tries UDS first, then TCP.
func (c *Client) dial(ctx context.Context) (net.Conn, string, error) {
	d := net.Dialer{Timeout: c.cfg.Timeout}

	var lastErr error
	if c.cfg.UDSPath != "" {
		conn, err := d.DialContext(ctx, "unix", c.cfg.UDSPath)
		if err == nil {
			return conn, ChannelUDS, nil
		}
		lastErr = err
		c.logger.Warn("provider uds dial failed, trying tcp",
			zap.String("path", c.cfg.UDSPath),
			zap.Error(err),
		)
	}
	if c.cfg.TCPAddr != "" {
		conn, err := d.DialContext(ctx, "tcp", c.cfg.TCPAddr)
		if err == nil {
			return conn, ChannelTCP, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider endpoint configured")
	}
	return nil, ChannelNone, fmt.Errorf("provider unreachable: %w", lastErr)
}

// exchange writes one frame and reads the transport ack line.
func (c *Client) exchange(conn net.Conn, frame []byte) error {
	if err := conn.SetDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return err
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return err
	}

	var ack wireAck
	if err := json.Unmarshal(line, &ack); err != nil {
		return fmt.Errorf("malformed provider ack: %w", err)
	}
	if !ack.OK {
		return &ackError{reason: ack.Reason}
	}
	return nil
}

// ackError marks a venue-level rejection, as opposed to a transport fault.
type ackError struct {
	reason string
}

func (e *ackError) Error() string {
	if e.reason == "" {
		return "provider rejected message"
	}
	return "provider rejected message: " + e.reason
}
