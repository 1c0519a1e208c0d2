package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// DefaultReconnect is the pause between connection attempts.
const DefaultReconnect = 5 * time.Second

// ClientConfig holds companion configuration.
type ClientConfig struct {
	// Address of the phone, either host:port or a full ws:// URL.
	Address string

	// Reconnect is the pause between connection attempts.
	Reconnect time.Duration

	// Logger for client activity (default: stderr logger)
	Logger *log.Logger
}

// Client is the companion end of the link. It keeps a connection to the
// phone open and applies every payload it receives.
type Client struct {
	config   *ClientConfig
	receiver *Receiver

	mu        sync.Mutex
	connected bool
	applied   int
}

// NewClient creates a companion client.
func NewClient(receiver *Receiver, config *ClientConfig) (*Client, error) {
	if receiver == nil {
		return nil, fmt.Errorf("receiver cannot be nil")
	}
	if config == nil || config.Address == "" {
		return nil, fmt.Errorf("phone address cannot be empty")
	}
	if config.Reconnect <= 0 {
		config.Reconnect = DefaultReconnect
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[companion] ", log.LstdFlags)
	}
	return &Client{config: config, receiver: receiver}, nil
}

// URL returns the WebSocket URL the client dials.
func (c *Client) URL() string {
	addr := c.config.Address
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + strings.TrimSuffix(addr, "/") + "/ws"
}

// Connected reports whether a session is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Applied returns how many payloads were applied.
func (c *Client) Applied() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// Run connects and reconnects until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.session(ctx); err != nil && ctx.Err() == nil {
			c.config.Logger.Printf("Phone unreachable: %v (retrying in %s)", err, c.config.Reconnect)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.config.Reconnect):
		}
	}
}

// session runs one connection until it drops.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.URL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(maxFrame)

	c.setConnected(true)
	defer c.setConnected(false)
	c.config.Logger.Printf("Connected to %s", c.URL())

	request, err := marshalEnvelope(EnvelopeRequestDishes, nil)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	err = conn.Write(wctx, websocket.MessageText, request)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to request dishes: %w", err)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.config.Logger.Printf("Warning: ignoring malformed frame: %v", err)
			continue
		}

		switch env.Type {
		case EnvelopeMessage, EnvelopeContext:
			if err := c.receiver.Apply(ctx, env.Data); err == nil {
				c.mu.Lock()
				c.applied++
				c.mu.Unlock()
			}
		default:
			c.config.Logger.Printf("Ignoring %q frame", env.Type)
		}
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
