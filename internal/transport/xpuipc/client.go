// Package xpuipc receives aircraft state from X-Plane as fixed-layout UDP
// datagrams sent by the companion plugin.
package xpuipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

const (
	DefaultPort  = 49000
	PollInterval = 500 * time.Millisecond
	ReadTimeout  = 100 * time.Millisecond
)

// Client is the datagram transport. It listens on loopback only.
type Client struct {
	cb     telemetry.Callback
	addr   string
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	conn   *net.UDPConn
	buf    []byte
	poller transport.Poller
}

var _ transport.Transport = (*Client)(nil)

type Option func(*Client)

// WithListenAddr overrides the bind address, e.g. "127.0.0.1:0" in tests.
func WithListenAddr(addr string) Option {
	return func(c *Client) {
		c.addr = addr
	}
}

// New returns a client bound to 127.0.0.1:port once connected. A zero port
// selects DefaultPort.
func New(port int, cb telemetry.Callback, opts ...Option) *Client {
	if port == 0 {
		port = DefaultPort
	}
	c := &Client{
		cb:     cb,
		addr:   net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		now:    time.Now,
		logger: slog.Default().With("component", "xpuipc"),
		buf:    make([]byte, 2048),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "XPUIPC"
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	laddr, err := net.ResolveUDPAddr("udp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", transport.ErrConnect, c.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("%w: bind %s: %w", transport.ErrConnect, c.addr, err)
	}
	c.conn = conn
	c.logger.Info("X-Plane listener bound", "addr", conn.LocalAddr().String())
	return nil
}

// Addr returns the bound address, or nil when disconnected.
func (c *Client) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
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

func (c *Client) Disconnect() {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("Failed to close X-Plane listener", "error", err)
	}
	c.conn = nil
	c.logger.Info("X-Plane listener closed")
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Running() bool {
	return c.poller.Running()
}

// tick reads at most one datagram.
func (c *Client) tick() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		c.logger.Debug("Failed to set read deadline", "error", err)
		return
	}
	n, _, err := conn.ReadFromUDP(c.buf)
	if err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			c.logger.Debug("X-Plane read failed", "error", err)
		}
		return
	}

	snap, err := Decode(c.buf[:n], c.now())
	if err != nil {
		c.logger.Debug("Dropping X-Plane datagram", "error", err)
		return
	}
	c.cb(snap)
}
