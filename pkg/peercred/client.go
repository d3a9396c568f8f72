package peercred

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cortexd/peercred/internal/framing"
	"github.com/cortexd/peercred/internal/protocol"
)

// ClientConfig defines settings for a credd client connection
type ClientConfig struct {
	// SocketPath is the credd socket to dial. Defaults to
	// DefaultSocketPath.
	SocketPath string

	// Codec selects the wire codec; it must match the daemon's.
	// Defaults to msgpack.
	Codec CodecType

	// DialTimeout bounds connection establishment. Defaults to 5s.
	DialTimeout time.Duration

	// MaxFrameSize bounds response frames. Defaults to the framing
	// package default.
	MaxFrameSize int
}

// Client is a connection to a credd daemon. It is safe for concurrent
// use; calls are serialized over the single connection.
type Client struct {
	conn   net.Conn
	framer *framing.Framer
	codec  Codec

	mu     sync.Mutex
	closed bool
	nextID atomic.Uint64
}

// Dial connects to a credd daemon
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	conn, err := net.DialTimeout("unix", cfg.SocketPath, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.SocketPath, err)
	}

	return &Client{
		conn:   conn,
		framer: framing.NewFramerWithMaxSize(conn, cfg.MaxFrameSize),
		codec:  codec,
	}, nil
}

// Call sends a request and waits for the matching response
func (c *Client) Call(ctx context.Context, method string) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	req := protocol.NewRequest(c.nextID.Add(1), method)
	reqData, err := c.codec.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := c.framer.WriteMessage(reqData); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	respData, err := c.framer.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp protocol.Response
	if err := c.codec.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %d does not match request id %d", resp.ID, req.ID)
	}

	return &resp, nil
}

// Ping checks that the daemon is answering
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Call(ctx, protocol.MethodPing)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Whoami returns this client's identity as the daemon's kernel saw it
// when the connection was accepted
func (c *Client) Whoami(ctx context.Context) (protocol.WhoamiResult, error) {
	var result protocol.WhoamiResult
	resp, err := c.Call(ctx, protocol.MethodWhoami)
	if err != nil {
		return result, err
	}
	if err := resp.Err(); err != nil {
		return result, err
	}
	if err := resp.DecodeBody(c.codec, &result); err != nil {
		return result, fmt.Errorf("failed to decode whoami result: %w", err)
	}
	return result, nil
}

// Status returns the daemon's runtime status
func (c *Client) Status(ctx context.Context) (protocol.StatusResult, error) {
	var result protocol.StatusResult
	resp, err := c.Call(ctx, protocol.MethodStatus)
	if err != nil {
		return result, err
	}
	if err := resp.Err(); err != nil {
		return result, err
	}
	if err := resp.DecodeBody(c.codec, &result); err != nil {
		return result, fmt.Errorf("failed to decode status result: %w", err)
	}
	return result, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
