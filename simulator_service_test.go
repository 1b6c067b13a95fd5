package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

func newTestSimulatorService(sinks ...telemetry.Callback) (*SimulatorService, *mockFactory, *eventLog) {
	f := &mockFactory{}
	events := &eventLog{}
	s := NewSimulatorService(simulator.NewManager(simulator.WithFactory(f.build)), sinks...)
	s.emit = events.emit
	return s, f, events
}

func TestConnectSimulator(t *testing.T) {
	s, _, events := newTestSimulatorService()

	msg, err := s.ConnectSimulator("P3D")
	require.NoError(t, err)
	assert.Equal(t, "Connected to P3D", msg)
	assert.True(t, s.IsSimulatorConnected())

	kind := s.GetSimulatorType()
	require.NotNil(t, kind)
	assert.Equal(t, "P3D", *kind)

	statuses := events.named(EventStatus)
	require.Len(t, statuses, 1)
	st := statuses[0].(simulator.Status)
	assert.True(t, st.FSUIPCConnected)
	assert.True(t, st.SimulatorSelected)
}

func TestConnectSimulatorInvalidKind(t *testing.T) {
	s, f, events := newTestSimulatorService()

	_, err := s.ConnectSimulator("DCS")
	assert.ErrorIs(t, err, simulator.ErrInvalidKind)
	assert.Empty(t, f.built)
	assert.Empty(t, events.named(EventStatus))
	assert.Nil(t, s.GetSimulatorType())
}

func TestConnectSimulatorFailureEmitsIdleStatus(t *testing.T) {
	s, f, events := newTestSimulatorService()
	f.connectErr = errors.New("simulator not running")

	_, err := s.ConnectSimulator("MSFS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulator not running")

	statuses := events.named(EventStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, simulator.Status{}, statuses[0])
}

func TestSimulatorLifecycleCommands(t *testing.T) {
	s, _, events := newTestSimulatorService()

	_, err := s.StartSimulator()
	assert.ErrorIs(t, err, transport.ErrNotConnected)

	_, err = s.ConnectSimulator("XPLANE")
	require.NoError(t, err)

	msg, err := s.StartSimulator()
	require.NoError(t, err)
	assert.Equal(t, "Started", msg)
	assert.True(t, s.GetSimulatorStatus().DataRunning)

	_, err = s.StartSimulator()
	assert.ErrorIs(t, err, transport.ErrAlreadyRunning)

	assert.Equal(t, "Stopped", s.StopSimulator())
	assert.Equal(t, "Stopped", s.StopSimulator())
	assert.False(t, s.GetSimulatorStatus().DataRunning)

	assert.Equal(t, "Disconnected", s.DisconnectSimulator())
	assert.False(t, s.IsSimulatorConnected())
	assert.Equal(t, simulator.Status{}, s.GetSimulatorStatus())

	// start before connect, connect, start, start again, stop, stop, disconnect
	assert.Len(t, events.named(EventStatus), 7)
}

func TestSnapshotsFanOut(t *testing.T) {
	var sunk []telemetry.Snapshot
	s, f, events := newTestSimulatorService(func(snap telemetry.Snapshot) { sunk = append(sunk, snap) })

	_, err := s.ConnectSimulator("FSX")
	require.NoError(t, err)
	s.SetFlightPlan(&telemetry.FlightPlan{Callsign: "KLM1234", DepartureICAO: "EHAM", Source: "manual"})

	f.last().emit(sampleSnapshot())

	data := events.named(EventFlightData)
	require.Len(t, data, 1)
	snap := data[0].(telemetry.Snapshot)
	assert.Equal(t, "KLM1234", snap.Callsign)
	assert.Equal(t, "EHAM", snap.DepartureICAO)
	assert.Equal(t, telemetry.UnknownAircraft, snap.AircraftICAO)

	require.Len(t, sunk, 1)
	assert.Equal(t, snap, sunk[0])
}

func TestFlightPlanCommands(t *testing.T) {
	s, _, events := newTestSimulatorService()

	assert.Nil(t, s.GetFlightPlan())
	s.SetFlightPlan(&telemetry.FlightPlan{ArrivalICAO: "LEMD"})
	require.NotNil(t, s.GetFlightPlan())
	assert.Equal(t, "LEMD", s.GetFlightPlan().ArrivalICAO)

	assert.Equal(t, "Flight plan cleared", s.ClearFlightPlan())
	assert.Nil(t, s.GetFlightPlan())
	assert.Len(t, events.named(EventStatus), 2)
}

func TestSimulatorServiceShutdown(t *testing.T) {
	s, f, _ := newTestSimulatorService()
	_, err := s.ConnectSimulator("MSFS")
	require.NoError(t, err)
	_, err = s.StartSimulator()
	require.NoError(t, err)

	require.NoError(t, s.ServiceShutdown())
	assert.False(t, f.last().Connected())
	assert.False(t, s.IsSimulatorConnected())
}

func TestStatusObservers(t *testing.T) {
	s, _, events := newTestSimulatorService()

	var seen []simulator.Status
	s.observeStatus(func(st simulator.Status) { seen = append(seen, st) })

	_, err := s.ConnectSimulator("FSX")
	require.NoError(t, err)
	s.DisconnectSimulator()

	require.Len(t, seen, 2)
	assert.Equal(t, []any{seen[0], seen[1]}, events.named(EventStatus))
	require.NotNil(t, seen[0].SimulatorType)
	assert.Equal(t, simulator.FSX, *seen[0].SimulatorType)
	assert.Nil(t, seen[1].SimulatorType)
}
