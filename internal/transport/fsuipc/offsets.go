package fsuipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

type field int

const (
	fieldLatitude field = iota
	fieldLongitude
	fieldAltitude
	fieldGroundSpeed
	fieldHeading
	fieldFuel
	fieldVerticalSpeed
	fieldOnGround
	fieldAircraft
	fieldATCID
)

type offset struct {
	field  field
	addr   uint16
	length int
}

// offsets is the read set for one tick, in request order.
var offsets = []offset{
	{fieldLatitude, 0x0560, 8},      // f64 degrees
	{fieldLongitude, 0x0568, 8},     // f64 degrees
	{fieldAltitude, 0x0570, 8},      // f64 feet
	{fieldGroundSpeed, 0x02B4, 4},   // u32 m/s * 65536
	{fieldHeading, 0x0578, 8},       // f64 degrees true
	{fieldFuel, 0x0AF4, 4},          // f32 US gallons
	{fieldVerticalSpeed, 0x02C8, 2}, // i16 fpm * 256
	{fieldOnGround, 0x0366, 4},      // u32, non-zero on ground
	{fieldAircraft, 0x3160, 24},     // aircraft type, NUL padded
	{fieldATCID, 0x3D00, 12},        // ATC id, NUL padded
}

// raw is the undecoded result of one tick's reads.
type raw map[field][]byte

// readAll queues every offset, runs the batch and collects the results.
func readAll(s *session, signal func() error) (raw, error) {
	slots := make([]slot, len(offsets))
	for i, o := range offsets {
		id, err := s.Read(o.addr, o.length)
		if err != nil {
			return nil, err
		}
		slots[i] = id
	}
	if err := s.Process(signal); err != nil {
		return nil, err
	}

	out := make(raw, len(offsets))
	for i, o := range offsets {
		out[o.field] = s.Bytes(slots[i])
	}
	return out, nil
}

func (r raw) bytes(f field, n int) ([]byte, error) {
	b := r[f]
	if len(b) < n {
		return nil, fmt.Errorf("%w: field %d has %d bytes, want %d", transport.ErrDecode, f, len(b), n)
	}
	return b, nil
}

func (r raw) f64(f field) (float64, error) {
	b, err := r.bytes(f, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (r raw) f32(f field) (float64, error) {
	b, err := r.bytes(f, 4)
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
}

func (r raw) u32(f field) (uint32, error) {
	b, err := r.bytes(f, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r raw) i16(f field) (int16, error) {
	b, err := r.bytes(f, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

// decode turns the raw offsets into a snapshot. Any malformed field fails the
// whole snapshot.
func decode(r raw, now time.Time) (telemetry.Snapshot, error) {
	var s telemetry.Snapshot
	var err error

	if s.Latitude, err = r.f64(fieldLatitude); err != nil {
		return s, err
	}
	if s.Longitude, err = r.f64(fieldLongitude); err != nil {
		return s, err
	}
	if s.Altitude, err = r.f64(fieldAltitude); err != nil {
		return s, err
	}
	gs, err := r.u32(fieldGroundSpeed)
	if err != nil {
		return s, err
	}
	hdg, err := r.f64(fieldHeading)
	if err != nil {
		return s, err
	}
	fuel, err := r.f32(fieldFuel)
	if err != nil {
		return s, err
	}
	vs, err := r.i16(fieldVerticalSpeed)
	if err != nil {
		return s, err
	}
	onGround, err := r.u32(fieldOnGround)
	if err != nil {
		return s, err
	}
	aircraft, err := r.bytes(fieldAircraft, 1)
	if err != nil {
		return s, err
	}
	atcID, err := r.bytes(fieldATCID, 1)
	if err != nil {
		return s, err
	}

	s.GroundSpeed = telemetry.NonNegative(float64(gs) / 65536 * telemetry.MetersPerSecondToKnots)
	s.Heading = telemetry.NormalizeHeading(hdg)
	s.FuelKg = telemetry.NonNegative(telemetry.GallonsToKg(fuel))
	s.VerticalSpeed = float64(vs) / 256
	s.OnGround = onGround != 0
	s.Callsign = telemetry.Callsign(telemetry.CString(atcID))
	s.AircraftICAO = telemetry.AircraftICAO(telemetry.CString(aircraft))
	s.Timestamp = now.UTC()
	return s, nil
}
