// Package simconnect reads aircraft state from Microsoft Flight Simulator
// through the SimConnect client library.
package simconnect

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

const (
	// AppName identifies this client to the simulator.
	AppName = "simbridge"

	PollInterval = 100 * time.Millisecond
)

// Client is the SimConnect transport. The simulator pushes the user
// aircraft's data once per simulated second; one message is drained per poll.
type Client struct {
	cb     telemetry.Callback
	open   func(string) (session, error)
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	sess   session
	poller transport.Poller
}

var _ transport.Transport = (*Client)(nil)

func New(cb telemetry.Callback) *Client {
	return &Client{
		cb:     cb,
		open:   openSession,
		now:    time.Now,
		logger: slog.Default().With("component", "simconnect"),
	}
}

func (c *Client) Name() string {
	return "SimConnect"
}

// Connect opens a session, declares the data definition, subscribes to
// periodic delivery and requests one immediate delivery.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return nil
	}

	sess, err := c.open(AppName)
	if err != nil {
		return fmt.Errorf("%w: simulator not running: %w", transport.ErrConnect, err)
	}
	if err := sess.Declare(); err != nil {
		sess.Close()
		return fmt.Errorf("%w: declare: %w", transport.ErrConnect, err)
	}
	if err := sess.RequestPeriodic(); err != nil {
		sess.Close()
		return fmt.Errorf("%w: request: %w", transport.ErrConnect, err)
	}
	if err := sess.RequestOnce(); err != nil {
		sess.Close()
		return fmt.Errorf("%w: request: %w", transport.ErrConnect, err)
	}

	c.sess = sess
	c.logger.Info("SimConnect connected")
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

func (c *Client) Disconnect() {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return
	}
	if err := c.sess.Close(); err != nil {
		c.logger.Warn("Failed to close SimConnect", "error", err)
	}
	c.sess = nil
	c.logger.Info("SimConnect disconnected")
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

func (c *Client) Running() bool {
	return c.poller.Running()
}

func (c *Client) tick() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess == nil {
		return
	}

	msg, ok, err := sess.Next()
	if err != nil {
		c.logger.Debug("SimConnect dispatch failed", "error", err)
		return
	}
	if !ok {
		return
	}
	c.handle(msg, c.now())
}

func (c *Client) handle(msg message, now time.Time) {
	switch msg.ID {
	case recvSimobjectData, recvSimobjectByType:
		snap, err := Decode(msg.Payload, now)
		if err != nil {
			c.logger.Debug("Dropping SimConnect data", "error", err)
			return
		}
		c.cb(snap)
	case recvException:
		var code uint32
		if len(msg.Payload) >= 16 {
			code = binary.LittleEndian.Uint32(msg.Payload[12:])
		}
		c.logger.Warn("SimConnect exception received", "exception", code)
	case recvQuit:
		c.logger.Info("Simulator quit")
	}
}
