package main

import (
	"sync"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

// MockTransport implements transport.Transport for use in tests. Snapshots
// are pushed by the test through emit.
type MockTransport struct {
	mu         sync.Mutex
	name       string
	cb         telemetry.Callback
	connectErr error
	connected  bool
	running    bool
}

func (m *MockTransport) Name() string { return m.name }

func (m *MockTransport) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *MockTransport) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return transport.ErrNotConnected
	}
	m.running = true
	return nil
}

func (m *MockTransport) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *MockTransport) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.connected = false
}

func (m *MockTransport) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockTransport) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *MockTransport) emit(s telemetry.Snapshot) {
	m.cb(s)
}

// mockFactory records every transport the manager builds.
type mockFactory struct {
	mu         sync.Mutex
	built      []*MockTransport
	connectErr error
}

func (f *mockFactory) build(kind simulator.Kind, cb telemetry.Callback) (transport.Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &MockTransport{name: string(kind), cb: cb, connectErr: f.connectErr}
	f.built = append(f.built, m)
	return m, nil
}

func (f *mockFactory) last() *MockTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built[len(f.built)-1]
}

// eventLog captures emitted events.
type eventLog struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	name string
	data any
}

func (e *eventLog) emit(name string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{name, data})
}

func (e *eventLog) named(name string) []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []any
	for _, ev := range e.events {
		if ev.name == name {
			out = append(out, ev.data)
		}
	}
	return out
}

func sampleSnapshot() telemetry.Snapshot {
	return telemetry.Snapshot{
		Callsign:      telemetry.UnknownCallsign,
		AircraftICAO:  telemetry.UnknownAircraft,
		Latitude:      51.4775,
		Longitude:     -0.4614,
		Altitude:      83,
		GroundSpeed:   0,
		Heading:       270,
		FuelKg:        8000,
		VerticalSpeed: 0,
		OnGround:      true,
	}
}
