package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simbridge/internal/telemetry"
)

func newTestRecorder(t *testing.T) (*RecorderService, *SimulatorService, *mockFactory, *eventLog) {
	t.Helper()

	db, err := initDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewRecorderService(db)
	sim, f, events := newTestSimulatorService(r.Record)
	r.emit = events.emit
	r.attach(sim)
	t.Cleanup(func() { r.ServiceShutdown() })
	return r, sim, f, events
}

func TestStartRecordingRequiresSimulator(t *testing.T) {
	r, _, _, events := newTestRecorder(t)

	assert.ErrorIs(t, r.StartRecording(), errNoSimulator)
	assert.False(t, r.IsRecording())
	assert.Empty(t, events.named(EventRecordingState))
}

func TestRecordingSession(t *testing.T) {
	r, sim, f, events := newTestRecorder(t)

	_, err := sim.ConnectSimulator("MSFS")
	require.NoError(t, err)

	// Not recording yet.
	f.last().emit(sampleSnapshot())

	require.NoError(t, r.StartRecording())
	assert.ErrorIs(t, r.StartRecording(), errAlreadyRecording)

	info := r.GetRecordingInfo()
	assert.True(t, info.Recording)
	assert.NotEmpty(t, info.SessionID)

	for i := 0; i < 3; i++ {
		f.last().emit(sampleSnapshot())
	}
	assert.Eventually(t, func() bool {
		return r.GetRecordingInfo().DataCount == 3
	}, 2*time.Second, 10*time.Millisecond)

	r.StopRecording()
	r.StopRecording()
	assert.False(t, r.IsRecording())
	assert.Equal(t, 0.0, r.GetRecordingInfo().Duration)
	assert.Equal(t, []any{true, false}, events.named(EventRecordingState))
}

func TestExportCSVPurgesRows(t *testing.T) {
	r, sim, f, _ := newTestRecorder(t)

	_, err := sim.ConnectSimulator("P3D")
	require.NoError(t, err)
	require.NoError(t, r.StartRecording())
	sessionID := r.GetRecordingInfo().SessionID

	f.last().emit(sampleSnapshot())
	f.last().emit(sampleSnapshot())
	require.Eventually(t, func() bool {
		return r.GetRecordingInfo().DataCount == 2
	}, 2*time.Second, 10*time.Millisecond)

	path := filepath.Join(t.TempDir(), "flight.csv")
	require.NoError(t, r.ExportCSV(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, sessionID, row[0])
	assert.Equal(t, "P3D", row[2])
	assert.Equal(t, "UNKNOWN", row[3])
	assert.Equal(t, "51.477500", row[7])
	assert.Equal(t, "8000.00", row[12])
	assert.Equal(t, "true", row[14])
	assert.Equal(t, "PARKED", row[15])

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&count))
	assert.Zero(t, count)
	assert.Zero(t, r.GetRecordingInfo().DataCount)
}

func TestAutoRecording(t *testing.T) {
	r, sim, f, events := newTestRecorder(t)
	r.applySettings(Settings{RecordTelemetry: true})

	_, err := sim.ConnectSimulator("XPLANE")
	require.NoError(t, err)
	assert.False(t, r.IsRecording())

	f.last().emit(sampleSnapshot())
	assert.True(t, r.IsRecording())
	assert.Equal(t, []any{true}, events.named(EventRecordingState))
	assert.Eventually(t, func() bool {
		return r.GetRecordingInfo().DataCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordAfterShutdown(t *testing.T) {
	r, _, _, _ := newTestRecorder(t)
	r.applySettings(Settings{RecordTelemetry: true})

	require.NoError(t, r.ServiceShutdown())
	require.NoError(t, r.ServiceShutdown())

	assert.NotPanics(t, func() { r.Record(sampleSnapshot()) })
	assert.False(t, r.IsRecording())
}

func TestRecordingEndsOnDisconnect(t *testing.T) {
	r, sim, _, events := newTestRecorder(t)

	_, err := sim.ConnectSimulator("MSFS")
	require.NoError(t, err)
	require.NoError(t, r.StartRecording())

	sim.SetFlightPlan(&telemetry.FlightPlan{Callsign: "AAL100"})
	assert.True(t, r.IsRecording(), "status change for the same simulator keeps the session")

	sim.DisconnectSimulator()
	assert.False(t, r.IsRecording())
	assert.Equal(t, []any{true, false}, events.named(EventRecordingState))
}

func TestAutoRecordingSessionPerSimulator(t *testing.T) {
	r, sim, f, _ := newTestRecorder(t)
	r.applySettings(Settings{RecordTelemetry: true})

	_, err := sim.ConnectSimulator("MSFS")
	require.NoError(t, err)
	f.last().emit(sampleSnapshot())
	require.True(t, r.IsRecording())
	first := r.GetRecordingInfo().SessionID

	_, err = sim.ConnectSimulator("XPLANE")
	require.NoError(t, err)
	assert.False(t, r.IsRecording())

	f.last().emit(sampleSnapshot())
	require.True(t, r.IsRecording())
	second := r.GetRecordingInfo().SessionID
	assert.NotEqual(t, first, second)

	require.Eventually(t, func() bool {
		var n int
		r.db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&n)
		return n == 2
	}, 2*time.Second, 10*time.Millisecond)

	rows, err := r.db.Query(`SELECT session_id, kind FROM telemetry ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var session, kind string
		require.NoError(t, rows.Scan(&session, &kind))
		got = append(got, [2]string{session, kind})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][2]string{{first, "MSFS"}, {second, "XPLANE"}}, got)
}
