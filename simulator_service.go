package main

import (
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
)

// SimulatorService is the frontend's view of the simulator connection.
type SimulatorService struct {
	manager   *simulator.Manager
	emit      func(name string, data any)
	sinks     []telemetry.Callback
	observers []func(simulator.Status)
}

// NewSimulatorService wires the manager's snapshots to the flight data event
// and to each sink. Sinks run on the polling goroutine and must not block.
func NewSimulatorService(m *simulator.Manager, sinks ...telemetry.Callback) *SimulatorService {
	s := &SimulatorService{
		manager: m,
		emit:    func(string, any) {},
		sinks:   sinks,
	}
	m.SetCallback(s.onSnapshot)
	return s
}

func (s *SimulatorService) setApp(app *application.App) {
	s.emit = func(name string, data any) {
		app.Event.Emit(name, data)
	}
}

func (s *SimulatorService) onSnapshot(snap telemetry.Snapshot) {
	s.emit(EventFlightData, snap)
	for _, sink := range s.sinks {
		sink(snap)
	}
}

// observeStatus registers fn to run after every status change. Register before
// the app starts.
func (s *SimulatorService) observeStatus(fn func(simulator.Status)) {
	s.observers = append(s.observers, fn)
}

func (s *SimulatorService) emitStatus() {
	st := s.manager.Status()
	s.emit(EventStatus, st)
	for _, fn := range s.observers {
		fn(st)
	}
}

func (s *SimulatorService) ConnectSimulator(kind string) (string, error) {
	k, err := simulator.ParseKind(kind)
	if err != nil {
		return "", err
	}

	err = s.manager.Connect(k)
	s.emitStatus()
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", k, err)
	}
	return fmt.Sprintf("Connected to %s", k), nil
}

func (s *SimulatorService) DisconnectSimulator() string {
	s.manager.Disconnect()
	s.emitStatus()
	return "Disconnected"
}

func (s *SimulatorService) StartSimulator() (string, error) {
	err := s.manager.Start()
	s.emitStatus()
	if err != nil {
		return "", err
	}
	return "Started", nil
}

func (s *SimulatorService) StopSimulator() string {
	s.manager.Stop()
	s.emitStatus()
	return "Stopped"
}

func (s *SimulatorService) IsSimulatorConnected() bool {
	return s.manager.Connected()
}

func (s *SimulatorService) GetSimulatorStatus() simulator.Status {
	return s.manager.Status()
}

func (s *SimulatorService) GetSimulatorType() *string {
	k, ok := s.manager.Kind()
	if !ok {
		return nil
	}
	name := k.String()
	return &name
}

// SetFlightPlan stores plan for enrichment. A nil plan clears it.
func (s *SimulatorService) SetFlightPlan(plan *telemetry.FlightPlan) {
	s.manager.SetFlightPlan(plan)
	s.emitStatus()
}

func (s *SimulatorService) ClearFlightPlan() string {
	s.manager.ClearFlightPlan()
	s.emitStatus()
	return "Flight plan cleared"
}

func (s *SimulatorService) GetFlightPlan() *telemetry.FlightPlan {
	return s.manager.FlightPlan()
}

// currentKind reports the connected simulator for collaborators that tag
// data with it.
func (s *SimulatorService) currentKind() (simulator.Kind, bool) {
	return s.manager.Kind()
}

func (s *SimulatorService) applySettings(st Settings) {
	s.manager.SetXPlanePort(st.XPlanePort)
}

// ServiceShutdown releases the simulator when the app exits.
func (s *SimulatorService) ServiceShutdown() error {
	s.manager.Disconnect()
	slog.Info("Simulator service shut down")
	return nil
}
