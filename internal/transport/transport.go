// Package transport defines the contract shared by the simulator transports
// and the background loop they poll on.
package transport

import "errors"

// Transport is one simulator link. Implementations receive their snapshot
// callback at construction and invoke it from their polling goroutine.
type Transport interface {
	Name() string
	Connect() error
	Start() error
	Stop()
	Disconnect()
	Connected() bool
	Running() bool
}

var (
	ErrUnsupportedPlatform = errors.New("transport not supported on this platform")
	ErrConnect             = errors.New("connect failed")
	ErrProtocol            = errors.New("protocol error")
	ErrDecode              = errors.New("decode error")
	ErrAlreadyRunning      = errors.New("already running")
	ErrNotConnected        = errors.New("not connected")
)
