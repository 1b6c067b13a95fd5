package transport

import (
	"sync"
	"time"
)

// Poller runs a tick function on a single background goroutine at a fixed
// interval. The zero value is ready to use.
type Poller struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// Start runs tick once immediately and then every interval until Stop.
func (p *Poller) Start(interval time.Duration, tick func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done, p.running = stop, done, true

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			default:
			}
			tick()

			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

// Stop signals the loop and waits for it to exit. Calling Stop on a poller
// that was never started, or twice, is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.running = false
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	close(stop)
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
