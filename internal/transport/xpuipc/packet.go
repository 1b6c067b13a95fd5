package xpuipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

// PacketSize is the length of one telemetry datagram.
const PacketSize = 56

var magic = []byte("XPU")

// Decode parses one datagram. Callsign and aircraft are not carried on the
// wire and are always the unknown sentinels.
func Decode(b []byte, now time.Time) (telemetry.Snapshot, error) {
	if len(b) < PacketSize {
		return telemetry.Snapshot{}, fmt.Errorf("%w: datagram is %d bytes, want %d", transport.ErrDecode, len(b), PacketSize)
	}
	if string(b[:3]) != string(magic) {
		return telemetry.Snapshot{}, fmt.Errorf("%w: bad magic %q", transport.ErrDecode, b[:3])
	}

	f64 := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
	}
	f32 := func(off int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
	}

	return telemetry.Snapshot{
		Callsign:      telemetry.UnknownCallsign,
		AircraftICAO:  telemetry.UnknownAircraft,
		Latitude:      f64(8),
		Longitude:     f64(16),
		Altitude:      f64(24) * telemetry.FeetPerMeter,
		Heading:       telemetry.NormalizeHeading(f64(32)),
		GroundSpeed:   telemetry.NonNegative(f32(40) * telemetry.MetersPerSecondToKnots),
		VerticalSpeed: f32(44) * telemetry.MetersPerSecondToFpm,
		FuelKg:        telemetry.NonNegative(telemetry.PoundsToKg(f32(48))),
		OnGround:      b[52] != 0,
		Timestamp:     now.UTC(),
	}, nil
}

// Packet is the wire form of one datagram, used by plugins and tests that
// need to produce them.
type Packet struct {
	Version     uint8
	Latitude    float64
	Longitude   float64
	AltitudeM   float64
	Heading     float64
	GroundSpeed float32 // m/s
	VertSpeed   float32 // m/s
	FuelLb      float32
	OnGround    bool
}

// MarshalBinary encodes p in the datagram layout.
func (p Packet) MarshalBinary() ([]byte, error) {
	b := make([]byte, PacketSize)
	copy(b, magic)
	b[4] = p.Version
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(p.Latitude))
	binary.LittleEndian.PutUint64(b[16:], math.Float64bits(p.Longitude))
	binary.LittleEndian.PutUint64(b[24:], math.Float64bits(p.AltitudeM))
	binary.LittleEndian.PutUint64(b[32:], math.Float64bits(p.Heading))
	binary.LittleEndian.PutUint32(b[40:], math.Float32bits(p.GroundSpeed))
	binary.LittleEndian.PutUint32(b[44:], math.Float32bits(p.VertSpeed))
	binary.LittleEndian.PutUint32(b[48:], math.Float32bits(p.FuelLb))
	if p.OnGround {
		b[52] = 1
	}
	return b, nil
}
