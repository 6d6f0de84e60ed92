package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Common client errors.
var (
	ErrNotConnected     = errors.New("ipc: not connected to daemon")
	ErrDaemonNotRunning = errors.New("ipc: daemon is not running")
)

// ClientConfig configures the IPC client.
type ClientConfig struct {
	SocketPath     string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// DefaultClientConfig returns sensible client defaults for the given
// socket path.
func DefaultClientConfig(socketPath string) ClientConfig {
	return ClientConfig{
		SocketPath:     socketPath,
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 15 * time.Second,
	}
}

// Client is a synchronous client for the glazed control socket. One
// request is in flight at a time; calls are serialized internally.
type Client struct {
	cfg ClientConfig

	mu    sync.Mutex
	conn  net.Conn
	reqID atomic.Uint32
}

// Dial connects to the daemon.
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	conn, err := dial(cfg.SocketPath, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// request sends a message and waits for its response.
func (c *Client) request(ctx context.Context, t MessageType, payload interface{}) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	msg, err := NewMessage(t, c.reqID.Add(1), payload)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)

	if err := msg.Write(c.conn); err != nil {
		return nil, fmt.Errorf("ipc: send %s: %w", t, err)
	}

	resp, err := ReadMessage(c.conn)
	if err != nil {
		return nil, fmt.Errorf("ipc: read response to %s: %w", t, err)
	}
	if resp.Header.RequestID != msg.Header.RequestID {
		return nil, fmt.Errorf("ipc: response ID mismatch: sent %d, got %d",
			msg.Header.RequestID, resp.Header.RequestID)
	}
	if resp.Header.Type == MsgError {
		var ep ErrorPayload
		if err := resp.Decode(&ep); err != nil {
			return nil, fmt.Errorf("ipc: daemon returned malformed error: %w", err)
		}
		if ep.Detail != "" {
			return nil, fmt.Errorf("ipc: daemon error (%s): %s", ep.Code, ep.Detail)
		}
		return nil, fmt.Errorf("ipc: daemon error (%s)", ep.Code)
	}
	return resp, nil
}

// expect sends a request and checks the response type.
func (c *Client) expect(ctx context.Context, req, want MessageType, payload interface{}) (*Message, error) {
	resp, err := c.request(ctx, req, payload)
	if err != nil {
		return nil, err
	}
	if resp.Header.Type != want {
		return nil, fmt.Errorf("ipc: unexpected response %s to %s", resp.Header.Type, req)
	}
	return resp, nil
}

// Ping checks that the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.expect(ctx, MsgPing, MsgPong, nil)
	return err
}

// Status returns the daemon's status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.expect(ctx, MsgStatus, MsgStatusResp, nil)
	if err != nil {
		return nil, err
	}
	var sr StatusResponse
	if err := resp.Decode(&sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// Apply asks the daemon to re-evaluate and apply taskbar appearances now.
func (c *Client) Apply(ctx context.Context) error {
	_, err := c.expect(ctx, MsgApply, MsgApplyResp, nil)
	return err
}

// Dump returns the daemon's internal state as human-readable text.
func (c *Client) Dump(ctx context.Context) (string, error) {
	resp, err := c.expect(ctx, MsgDump, MsgDumpResp, nil)
	if err != nil {
		return "", err
	}
	var dr DumpResponse
	if err := resp.Decode(&dr); err != nil {
		return "", err
	}
	return dr.Dump, nil
}

// Reset asks the daemon to discard cached per-taskbar state and reapply.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.expect(ctx, MsgReset, MsgResetResp, nil)
	return err
}

// Reload asks the daemon to reload its configuration from disk.
func (c *Client) Reload(ctx context.Context) (string, error) {
	resp, err := c.expect(ctx, MsgReload, MsgReloadResp, nil)
	if err != nil {
		return "", err
	}
	var rr ReloadResponse
	if err := resp.Decode(&rr); err != nil {
		return "", err
	}
	return rr.ConfigSummary, nil
}

// History returns recent appearance transitions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	resp, err := c.expect(ctx, MsgHistory, MsgHistoryResp, &HistoryRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	var hr HistoryResponse
	if err := resp.Decode(&hr); err != nil {
		return nil, err
	}
	return hr.Entries, nil
}

// SetConfig pushes a full TOML configuration document to the daemon,
// which validates it, saves it, and applies it.
func (c *Client) SetConfig(ctx context.Context, toml string) error {
	_, err := c.expect(ctx, MsgSetConfig, MsgSetConfigResp, &SetConfigRequest{TOML: toml})
	return err
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.expect(ctx, MsgShutdown, MsgShutdown, nil)
	return err
}
