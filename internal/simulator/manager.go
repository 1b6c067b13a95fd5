package simulator

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
	"simbridge/internal/transport/fsuipc"
	"simbridge/internal/transport/simconnect"
	"simbridge/internal/transport/xpuipc"
)

// Factory builds the transport for a kind, wired to cb.
type Factory func(kind Kind, cb telemetry.Callback) (transport.Transport, error)

type Option func(*Manager)

// WithFactory replaces the transport constructor.
func WithFactory(f Factory) Option {
	return func(m *Manager) {
		m.factory = f
	}
}

// WithXPlanePort sets the UDP port the X-Plane transport binds.
func WithXPlanePort(port int) Option {
	return func(m *Manager) {
		m.xplanePort.Store(int64(port))
	}
}

// Manager holds at most one active transport. Lifecycle commands are
// serialised; status reads never wait on a connect in progress.
type Manager struct {
	opMu sync.Mutex

	mu   sync.Mutex
	kind Kind
	tr   transport.Transport

	plan       atomic.Pointer[telemetry.FlightPlan]
	sink       atomic.Pointer[telemetry.Callback]
	factory    Factory
	xplanePort atomic.Int64
	logger     *slog.Logger
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger: slog.Default().With("component", "simulator"),
	}
	m.xplanePort.Store(xpuipc.DefaultPort)
	m.factory = m.build
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) build(kind Kind, cb telemetry.Callback) (transport.Transport, error) {
	switch kind {
	case MSFS:
		return simconnect.New(cb), nil
	case FSX, P3D:
		return fsuipc.New(cb), nil
	case XPlane:
		return xpuipc.New(int(m.xplanePort.Load()), cb), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// SetXPlanePort changes the port used by the next X-Plane connection.
func (m *Manager) SetXPlanePort(port int) {
	m.xplanePort.Store(int64(port))
}

// Connect tears down any existing connection and connects to kind. On
// failure the manager is left idle.
func (m *Manager) Connect(kind Kind) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.teardown()

	tr, err := m.factory(kind, m.deliver)
	if err != nil {
		return err
	}
	if err := tr.Connect(); err != nil {
		m.logger.Warn("Simulator connection failed", "kind", kind, "transport", tr.Name(), "error", err)
		return err
	}

	m.mu.Lock()
	m.kind, m.tr = kind, tr
	m.mu.Unlock()

	m.logger.Info("Simulator connected", "kind", kind, "transport", tr.Name())
	return nil
}

// Start begins delivering snapshots.
func (m *Manager) Start() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	tr := m.current()
	if tr == nil {
		return fmt.Errorf("%w: no simulator connected", transport.ErrNotConnected)
	}
	if tr.Running() {
		return transport.ErrAlreadyRunning
	}
	if err := tr.Start(); err != nil {
		return err
	}
	m.logger.Info("Data collection started", "transport", tr.Name())
	return nil
}

// Stop halts delivery. It is safe in any state.
func (m *Manager) Stop() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if tr := m.current(); tr != nil && tr.Running() {
		tr.Stop()
		m.logger.Info("Data collection stopped", "transport", tr.Name())
	}
}

// Disconnect stops and releases the active transport, if any.
func (m *Manager) Disconnect() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.teardown()
}

// teardown must be called with opMu held.
func (m *Manager) teardown() {
	m.mu.Lock()
	tr, kind := m.tr, m.kind
	m.tr, m.kind = nil, ""
	m.mu.Unlock()

	if tr == nil {
		return
	}
	tr.Stop()
	tr.Disconnect()
	m.logger.Info("Simulator disconnected", "kind", kind, "transport", tr.Name())
}

func (m *Manager) current() transport.Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tr
}

func (m *Manager) Connected() bool {
	tr := m.current()
	return tr != nil && tr.Connected()
}

// Kind returns the selected simulator.
func (m *Manager) Kind() (Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind, m.tr != nil
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	kind, tr := m.kind, m.tr
	m.mu.Unlock()

	var st Status
	if tr == nil {
		return st
	}
	st.SimulatorType = &kind
	st.SimulatorSelected = true

	connected := tr.Connected()
	switch kind {
	case MSFS:
		st.SimConnectConnected = connected
	case FSX, P3D:
		st.FSUIPCConnected = connected
	case XPlane:
		st.XPUIPCConnected = connected
	}
	st.DataRunning = tr.Running()
	return st
}

// SetCallback replaces the receiver of enriched snapshots.
func (m *Manager) SetCallback(cb telemetry.Callback) {
	if cb == nil {
		m.sink.Store(nil)
		return
	}
	m.sink.Store(&cb)
}

// SetFlightPlan stores a copy of plan for enrichment. A nil plan clears it.
func (m *Manager) SetFlightPlan(plan *telemetry.FlightPlan) {
	if plan == nil {
		m.ClearFlightPlan()
		return
	}
	p := *plan
	m.plan.Store(&p)
}

func (m *Manager) ClearFlightPlan() {
	m.plan.Store(nil)
}

// FlightPlan returns a copy of the stored plan, or nil.
func (m *Manager) FlightPlan() *telemetry.FlightPlan {
	p := m.plan.Load()
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// deliver runs on the transport's polling goroutine.
func (m *Manager) deliver(s telemetry.Snapshot) {
	s = telemetry.Enrich(s, m.plan.Load())
	if cb := m.sink.Load(); cb != nil {
		(*cb)(s)
	}
}
