// Package wsconn provides a production-grade WebSocket client with reconnection.
package wsconn

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// ErrMaxReconnects is returned when the reconnect budget is exhausted.
var ErrMaxReconnects = errors.New("wsconn: max reconnects exceeded")

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration

	// OnConnect is invoked after every successful (re)connect, before the
	// read loop resumes. Venue feeds use it to replay subscriptions.
	OnConnect func(ctx context.Context, send func(context.Context, []byte) error) error
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
	}
}

// Client is a production-grade WebSocket client.
type Client struct {
	config     Config
	state      State
	stateMu    sync.RWMutex
	conn       *websocket.Conn
	connMu     sync.Mutex
	messages   chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	reconnects int
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. It returns once the first connection attempt succeeds or fails; after
// that, drops are handled by the reconnect loop until Close or ctx cancel.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}
	c.setState(StateConnected)

	go c.run(ctx)
	return nil
}

// Send sends a message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return errors.New("wsconn: not connected")
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel for receiving messages. The channel is closed
// when the client stops for good.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	c.setState(StateDisconnected)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 20)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if c.config.OnConnect != nil {
		if err := c.config.OnConnect(ctx, c.Send); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
			return err
		}
	}
	return nil
}

// run owns the connection lifecycle: read until the connection drops, then
// reconnect with jittered exponential backoff.
func (c *Client) run(ctx context.Context) {
	defer close(c.messages)
	defer c.setState(StateDisconnected)

	for {
		stopPing := make(chan struct{})
		go c.pingLoop(ctx, stopPing)

		c.readLoop(ctx)
		close(stopPing)

		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if !c.reconnect(ctx) {
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		select {
		case c.messages <- data:
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, stop <-chan struct{}) {
	if c.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if conn == nil {
				return
			}
			pingCtx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// Force the read loop to fail so reconnection kicks in.
				_ = conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		case <-stop:
			return
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// reconnect blocks until a new connection is established. It returns false
// when the client is closing or the reconnect budget is exhausted.
func (c *Client) reconnect(ctx context.Context) bool {
	c.setState(StateReconnecting)
	backoff := c.config.InitialBackoff

	for {
		c.reconnects++
		if c.config.MaxReconnects > 0 && c.reconnects > c.config.MaxReconnects {
			return false
		}

		jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
		select {
		case <-time.After(backoff + jitter):
		case <-c.done:
			return false
		case <-ctx.Done():
			return false
		}

		if err := c.dial(ctx); err == nil {
			c.setState(StateConnected)
			return true
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}
