// Package telemetry holds the normalized aircraft state shared by every
// simulator transport, plus the helpers that turn raw simulator values into it.
package telemetry

import (
	"bytes"
	"strings"
	"time"
)

// Sentinels used when a transport cannot supply identity data.
const (
	UnknownCallsign = "UNKNOWN"
	UnknownAircraft = "UNKN"
)

// Snapshot is one normalized telemetry sample. Transports build a fresh value
// per tick and hand it to the callback by value.
type Snapshot struct {
	Callsign      string    `json:"callsign"`
	AircraftICAO  string    `json:"aircraft_icao"`
	DepartureICAO string    `json:"departure_icao"`
	ArrivalICAO   string    `json:"arrival_icao"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`       // feet
	GroundSpeed   float64   `json:"ground_speed"`   // knots
	Heading       float64   `json:"heading"`        // degrees true, [0,360)
	FuelKg        float64   `json:"fuel_kg"`        // kilograms
	VerticalSpeed float64   `json:"vertical_speed"` // feet per minute
	OnGround      bool      `json:"on_ground"`
	Timestamp     time.Time `json:"timestamp"`
}

// Callback receives snapshots on the transport's polling goroutine. It must
// not block.
type Callback func(Snapshot)

// FlightPlan is externally supplied identity and route data. Empty strings
// mean the field is absent.
type FlightPlan struct {
	Callsign      string `json:"callsign,omitempty"`
	AircraftICAO  string `json:"aircraft_icao,omitempty"`
	DepartureICAO string `json:"departure_icao,omitempty"`
	ArrivalICAO   string `json:"arrival_icao,omitempty"`
	Route         string `json:"route,omitempty"`
	Source        string `json:"source,omitempty"`
}

// CString returns the text before the first NUL byte, trimmed.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// Callsign upper-cases a raw ATC id, substituting UnknownCallsign when empty.
func Callsign(raw string) string {
	cs := strings.ToUpper(strings.TrimSpace(raw))
	if cs == "" {
		return UnknownCallsign
	}
	return cs
}

// AircraftICAO upper-cases a raw aircraft type and keeps at most four
// characters, substituting UnknownAircraft when empty.
func AircraftICAO(raw string) string {
	ac := truncate(strings.ToUpper(strings.TrimSpace(raw)), 4)
	if ac == "" {
		return UnknownAircraft
	}
	return ac
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
