package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversions(t *testing.T) {
	assert.InDelta(t, 1.94384, 65536.0/65536.0*MetersPerSecondToKnots, 1e-9)
	assert.InDelta(t, 3.028328, GallonsToKg(1), 1e-9)
	assert.InDelta(t, 0.453592, PoundsToKg(1), 1e-12)
	assert.Equal(t, 0.0, NonNegative(-3.5))
	assert.Equal(t, 12.0, NonNegative(12))
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{370, 10},
		{-10, 350},
		{-370, 350},
		{725, 5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeHeading(tt.in), 1e-9, "heading %v", tt.in)
	}
}

func TestCString(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"null padded", append([]byte("DLH4AB"), make([]byte, 6)...), "DLH4AB"},
		{"empty", []byte{}, ""},
		{"all nulls", make([]byte, 12), ""},
		{"no terminator", []byte("B738"), "B738"},
		{"null first", append([]byte{0}, []byte("hidden")...), ""},
		{"surrounding spaces", []byte("  a20n \x00xx"), "a20n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CString(tt.input))
		})
	}
}

func TestSentinels(t *testing.T) {
	assert.Equal(t, UnknownCallsign, Callsign(""))
	assert.Equal(t, UnknownCallsign, Callsign("   "))
	assert.Equal(t, "BAW123", Callsign("baw123"))

	assert.Equal(t, UnknownAircraft, AircraftICAO(""))
	assert.Equal(t, "BOEI", AircraftICAO("Boeing 737-800"))
	assert.Equal(t, "A20N", AircraftICAO("a20n"))
	assert.Equal(t, "C17", AircraftICAO("c17"))
}

func TestEnrichNeverOverwritesLiveData(t *testing.T) {
	live := Snapshot{
		Callsign:      "DLH400",
		AircraftICAO:  "A346",
		DepartureICAO: "EDDF",
		ArrivalICAO:   "KJFK",
	}
	plans := []*FlightPlan{
		nil,
		{},
		{Callsign: "BAW1", AircraftICAO: "B772", DepartureICAO: "EGLL", ArrivalICAO: "KBOS"},
		{Callsign: "X", DepartureICAO: "LFPG"},
	}

	for _, p := range plans {
		assert.Equal(t, live, Enrich(live, p))
	}
}

func TestEnrichFillsMissingFields(t *testing.T) {
	plan := &FlightPlan{
		Callsign:      "BAW123",
		AircraftICAO:  "B77W-ER",
		DepartureICAO: "EGLL",
		ArrivalICAO:   "KJFK",
	}

	tests := []struct {
		name string
		in   Snapshot
	}{
		{"sentinels", Snapshot{Callsign: UnknownCallsign, AircraftICAO: UnknownAircraft}},
		{"empty", Snapshot{}},
		{"whitespace", Snapshot{Callsign: "  ", AircraftICAO: " ", DepartureICAO: " ", ArrivalICAO: "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enrich(tt.in, plan)
			assert.Equal(t, "BAW123", got.Callsign)
			assert.Equal(t, "B77W", got.AircraftICAO)
			assert.Equal(t, "EGLL", got.DepartureICAO)
			assert.Equal(t, "KJFK", got.ArrivalICAO)
		})
	}
}

func TestEnrichKeepsSentinelWhenPlanFieldAbsent(t *testing.T) {
	in := Snapshot{Callsign: UnknownCallsign, AircraftICAO: UnknownAircraft}
	got := Enrich(in, &FlightPlan{DepartureICAO: "EHAM"})

	assert.Equal(t, UnknownCallsign, got.Callsign)
	assert.Equal(t, UnknownAircraft, got.AircraftICAO)
	assert.Equal(t, "EHAM", got.DepartureICAO)
	assert.Equal(t, "", got.ArrivalICAO)
}

func TestPhase(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
		want FlightPhase
	}{
		{"parked", Snapshot{OnGround: true, GroundSpeed: 0}, PhaseParked},
		{"taxi", Snapshot{OnGround: true, GroundSpeed: 15}, PhaseTaxi},
		{"takeoff roll", Snapshot{OnGround: true, GroundSpeed: 120}, PhaseTakeoffRoll},
		{"low climb", Snapshot{Altitude: 2500, VerticalSpeed: 1800}, PhaseClimb},
		{"high climb", Snapshot{Altitude: 24000, VerticalSpeed: 900}, PhaseClimb},
		{"cruise", Snapshot{Altitude: 36000, VerticalSpeed: 50}, PhaseCruise},
		{"descent", Snapshot{Altitude: 18000, VerticalSpeed: -1800}, PhaseDescent},
		{"approach", Snapshot{Altitude: 2000, VerticalSpeed: -700}, PhaseApproach},
		{"en route", Snapshot{Altitude: 3500, VerticalSpeed: -250}, PhaseEnRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phase(tt.s))
		})
	}
}
