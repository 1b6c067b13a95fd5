package main

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	singleInstanceAddr = "127.0.0.1:49877"
	showCommand        = "show"
)

var errAlreadyRunning = errors.New("another instance is already running")

// SingleInstance holds a loopback port so a second launch can find the first
// and ask it to bring its window forward.
type SingleInstance struct {
	listener net.Listener
	mu       sync.Mutex
	onShow   func()
}

func NewSingleInstance(addr string) (*SingleInstance, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if conn, dialErr := net.DialTimeout("tcp", addr, time.Second); dialErr == nil {
			conn.Write([]byte(showCommand))
			conn.Close()
		}
		return nil, errAlreadyRunning
	}

	si := &SingleInstance{listener: listener}
	go si.listenLoop()
	return si, nil
}

func (si *SingleInstance) SetOnShow(fn func()) {
	si.mu.Lock()
	si.onShow = fn
	si.mu.Unlock()
}

func (si *SingleInstance) Close() {
	si.listener.Close()
}

func (si *SingleInstance) listenLoop() {
	for {
		conn, err := si.listener.Accept()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(time.Second))
		buf := make([]byte, len(showCommand))
		_, err = io.ReadFull(conn, buf)
		conn.Close()
		if err != nil || string(buf) != showCommand {
			continue
		}

		slog.Info("Second instance asked to show window")
		si.mu.Lock()
		fn := si.onShow
		si.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}
