// Package fsuipc reads aircraft state from FSX and Prepar3D through the
// FSUIPC shared-memory interface.
package fsuipc

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

// PollInterval is the shared-memory read cadence.
const PollInterval = 500 * time.Millisecond

// Client is the shared-memory transport.
type Client struct {
	cb     telemetry.Callback
	open   func() (ipc, error)
	width  int
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	conn   ipc
	poller transport.Poller
}

var _ transport.Transport = (*Client)(nil)

// New returns a disconnected client that delivers snapshots to cb.
func New(cb telemetry.Callback) *Client {
	return &Client{
		cb:     cb,
		open:   openIPC,
		width:  NativePointerWidth,
		now:    time.Now,
		logger: slog.Default().With("component", "fsuipc"),
	}
}

func (c *Client) Name() string {
	return "FSUIPC"
}

// Connect locates the simulator window and maps the shared block.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	conn, err := c.open()
	if err != nil {
		return fmt.Errorf("%w: fsuipc: %w", transport.ErrConnect, err)
	}
	c.conn = conn
	c.logger.Info("FSUIPC connected", "pointer_width", c.width)
	return nil
}

func (c *Client) Start() error {
	if !c.Connected() {
		return transport.ErrNotConnected
	}
	return c.poller.Start(PollInterval, c.tick)
}

func (c *Client) Stop() {
	c.poller.Stop()
}

// Disconnect stops polling and releases the shared block.
func (c *Client) Disconnect() {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("Failed to release shared block", "error", err)
	}
	c.conn = nil
	c.logger.Info("FSUIPC disconnected")
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Running() bool {
	return c.poller.Running()
}

func (c *Client) tick() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	snap, err := c.read(conn)
	if err != nil {
		c.logger.Debug("FSUIPC read failed", "error", err)
		return
	}
	c.cb(snap)
}

func (c *Client) read(conn ipc) (telemetry.Snapshot, error) {
	s, err := newSession(conn.Buffer(), c.width)
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	r, err := readAll(s, conn.Signal)
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	return decode(r, c.now())
}
