package main

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v3/pkg/application"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
)

const recordQueueSize = 256

var (
	errNoSimulator      = errors.New("no simulator connected")
	errAlreadyRecording = errors.New("already recording")
)

type RecordingInfo struct {
	Recording bool    `json:"recording"`
	SessionID string  `json:"sessionId"`
	Duration  float64 `json:"duration"`
	DataCount int     `json:"dataCount"`
	Dropped   int     `json:"dropped"`
}

type recordRow struct {
	session string
	kind    string
	snap    telemetry.Snapshot
}

// RecorderService logs snapshots to sqlite while a recording session is
// active. Snapshots are queued and written by a single goroutine.
type RecorderService struct {
	db        *sql.DB
	emit      func(name string, data any)
	connected func() bool
	kind      func() (simulator.Kind, bool)

	mu          sync.Mutex
	recording   bool
	auto        bool
	sessionID   string
	sessionKind simulator.Kind
	startTime   time.Time
	dataCount int
	dropped   int

	closed bool

	queue chan recordRow
	done  chan struct{}
}

func NewRecorderService(db *sql.DB) *RecorderService {
	r := &RecorderService{
		db:        db,
		emit:      func(string, any) {},
		connected: func() bool { return false },
		kind:      func() (simulator.Kind, bool) { return "", false },
		queue:     make(chan recordRow, recordQueueSize),
		done:      make(chan struct{}),
	}
	go r.writeLoop()
	return r
}

func (r *RecorderService) setApp(app *application.App) {
	r.emit = func(name string, data any) {
		app.Event.Emit(name, data)
	}
}

// attach points the recorder at the simulator it records.
func (r *RecorderService) attach(sim *SimulatorService) {
	r.connected = sim.IsSimulatorConnected
	r.kind = sim.currentKind
	sim.observeStatus(r.onStatus)
}

// onStatus ends the session when the simulator it belongs to goes away, so a
// session never mixes simulators. Auto mode opens a new one on the next
// snapshot.
func (r *RecorderService) onStatus(st simulator.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.SimulatorType == nil || *st.SimulatorType != r.sessionKind {
		r.end()
	}
}

func (r *RecorderService) applySettings(st Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auto = st.RecordTelemetry
}

func (r *RecorderService) StartRecording() error {
	if !r.connected() {
		return errNoSimulator
	}
	kind, _ := r.kind()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return errAlreadyRecording
	}
	r.begin(kind)
	return nil
}

// begin must be called with mu held.
func (r *RecorderService) begin(kind simulator.Kind) {
	r.recording = true
	r.sessionID = uuid.NewString()
	r.sessionKind = kind
	r.startTime = time.Now()
	r.dataCount = 0
	r.dropped = 0

	slog.Info("Recording started", "session", r.sessionID, "kind", kind)
	r.emit(EventRecordingState, true)
}

func (r *RecorderService) StopRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end()
}

// end must be called with mu held.
func (r *RecorderService) end() {
	if !r.recording {
		return
	}
	r.recording = false
	slog.Info("Recording stopped", "session", r.sessionID, "rows", r.dataCount, "dropped", r.dropped)
	r.emit(EventRecordingState, false)
}

func (r *RecorderService) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *RecorderService) GetRecordingInfo() RecordingInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := RecordingInfo{
		Recording: r.recording,
		SessionID: r.sessionID,
		DataCount: r.dataCount,
		Dropped:   r.dropped,
	}
	if r.recording {
		info.Duration = time.Since(r.startTime).Seconds()
	}
	return info
}

// Record queues a snapshot for the active session. It never blocks; when the
// writer falls behind the snapshot is dropped.
func (r *RecorderService) Record(s telemetry.Snapshot) {
	kind, _ := r.kind()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if r.recording && kind != r.sessionKind {
		r.end()
	}
	if !r.recording && r.auto {
		r.begin(kind)
	}
	if !r.recording {
		return
	}

	select {
	case r.queue <- recordRow{session: r.sessionID, kind: string(kind), snap: s}:
	default:
		r.dropped++
	}
}

func (r *RecorderService) writeLoop() {
	defer close(r.done)

	for row := range r.queue {
		s := row.snap
		_, err := r.db.Exec(
			`INSERT INTO telemetry (session_id, timestamp, kind, callsign, aircraft_icao, departure_icao, arrival_icao,
				latitude, longitude, altitude, ground_speed, heading, fuel_kg, vertical_speed, on_ground, phase)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.session, s.Timestamp.UTC().Format(time.RFC3339Nano), row.kind,
			s.Callsign, s.AircraftICAO, s.DepartureICAO, s.ArrivalICAO,
			s.Latitude, s.Longitude, s.Altitude, s.GroundSpeed, s.Heading, s.FuelKg, s.VerticalSpeed,
			s.OnGround, string(telemetry.Phase(s)),
		)
		if err != nil {
			slog.Error("Failed to insert telemetry", "error", err)
			continue
		}

		r.mu.Lock()
		if row.session == r.sessionID {
			r.dataCount++
		}
		r.mu.Unlock()
	}
}

var csvHeader = []string{
	"session_id", "timestamp", "kind", "callsign", "aircraft_icao", "departure_icao", "arrival_icao",
	"latitude", "longitude", "altitude", "ground_speed", "heading", "fuel_kg", "vertical_speed", "on_ground", "phase",
}

// ExportCSV writes every recorded row to filePath, then purges the exported
// rows.
func (r *RecorderService) ExportCSV(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	maxID, err := r.writeRows(w)
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	if _, err := r.db.Exec(`DELETE FROM telemetry WHERE id <= ?`, maxID); err != nil {
		return fmt.Errorf("purge db: %w", err)
	}

	r.mu.Lock()
	r.dataCount = 0
	r.mu.Unlock()

	slog.Info("Telemetry exported", "path", filePath)
	return nil
}

func (r *RecorderService) writeRows(w *csv.Writer) (int64, error) {
	rows, err := r.db.Query(`SELECT id, session_id, timestamp, kind, callsign, aircraft_icao, departure_icao, arrival_icao,
		latitude, longitude, altitude, ground_speed, heading, fuel_kg, vertical_speed, on_ground, phase
		FROM telemetry ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("query data: %w", err)
	}
	defer rows.Close()

	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}

	var maxID int64
	for rows.Next() {
		var (
			id                                  int64
			session, ts, kind, cs, ac, dep, arr string
			phase                               string
			lat, lon, alt, gs, hdg, fuel, vs    float64
			onGround                            bool
		)
		if err := rows.Scan(&id, &session, &ts, &kind, &cs, &ac, &dep, &arr,
			&lat, &lon, &alt, &gs, &hdg, &fuel, &vs, &onGround, &phase); err != nil {
			return 0, fmt.Errorf("scan row: %w", err)
		}
		maxID = id

		err := w.Write([]string{
			session, ts, kind, cs, ac, dep, arr,
			strconv.FormatFloat(lat, 'f', 6, 64),
			strconv.FormatFloat(lon, 'f', 6, 64),
			strconv.FormatFloat(alt, 'f', 2, 64),
			strconv.FormatFloat(gs, 'f', 2, 64),
			strconv.FormatFloat(hdg, 'f', 2, 64),
			strconv.FormatFloat(fuel, 'f', 2, 64),
			strconv.FormatFloat(vs, 'f', 2, 64),
			strconv.FormatBool(onGround),
			phase,
		})
		if err != nil {
			return 0, fmt.Errorf("write csv: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read rows: %w", err)
	}
	return maxID, nil
}

// ServiceShutdown stops recording and drains the write queue.
func (r *RecorderService) ServiceShutdown() error {
	r.StopRecording()

	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	<-r.done
	return nil
}
