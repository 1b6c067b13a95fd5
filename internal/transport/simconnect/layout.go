package simconnect

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"simbridge/internal/telemetry"
	"simbridge/internal/transport"
)

// Receive ids handled by the client.
const (
	recvException       = 1
	recvQuit            = 3
	recvSimobjectData   = 8
	recvSimobjectByType = 9
)

// HeaderSize is the size of the SIMCONNECT_RECV_SIMOBJECT_DATA header that
// precedes the requested variables in a data message.
const HeaderSize = 40

type dataType int

const (
	typeFloat64 dataType = iota
	typeInt32
	typeString256
)

func (t dataType) size() int {
	switch t {
	case typeFloat64:
		return 8
	case typeInt32:
		return 4
	default:
		return 256
	}
}

// variable is one simulation variable in the data definition.
type variable struct {
	Name string
	Unit string
	Type dataType
}

// Variables is the data definition, in declaration order. The payload packs
// them back to back with no padding.
var Variables = []variable{
	{"PLANE LATITUDE", "degrees", typeFloat64},
	{"PLANE LONGITUDE", "degrees", typeFloat64},
	{"PLANE ALTITUDE", "feet", typeFloat64},
	{"GROUND VELOCITY", "feet per second", typeFloat64},
	{"PLANE HEADING DEGREES TRUE", "degrees", typeFloat64},
	{"FUEL TOTAL QUANTITY", "gallons", typeFloat64},
	{"VERTICAL SPEED", "feet per minute", typeFloat64},
	{"SIM ON GROUND", "bool", typeInt32},
	{"TITLE", "", typeString256},
	{"ATC ID", "", typeString256},
}

const (
	varLatitude = iota
	varLongitude
	varAltitude
	varGroundVelocity
	varHeading
	varFuel
	varVerticalSpeed
	varOnGround
	varTitle
	varATCID
)

var varOffsets, PayloadSize = computeOffsets(Variables)

func computeOffsets(vars []variable) ([]int, int) {
	offs := make([]int, len(vars))
	pos := 0
	for i, v := range vars {
		offs[i] = pos
		pos += v.Type.size()
	}
	return offs, pos
}

type payload []byte

func (p payload) field(i int) []byte {
	off := HeaderSize + varOffsets[i]
	return p[off : off+Variables[i].Type.size()]
}

func (p payload) f64(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(p.field(i)))
}

func (p payload) i32(i int) int32 {
	return int32(binary.LittleEndian.Uint32(p.field(i)))
}

// Decode converts a data message, header included, into a snapshot.
func Decode(msg []byte, now time.Time) (telemetry.Snapshot, error) {
	if len(msg) < HeaderSize+PayloadSize {
		return telemetry.Snapshot{}, fmt.Errorf("%w: data message is %d bytes, want %d", transport.ErrDecode, len(msg), HeaderSize+PayloadSize)
	}
	p := payload(msg)

	return telemetry.Snapshot{
		Callsign:      telemetry.Callsign(telemetry.CString(p.field(varATCID))),
		AircraftICAO:  telemetry.AircraftICAO(telemetry.CString(p.field(varTitle))),
		Latitude:      p.f64(varLatitude),
		Longitude:     p.f64(varLongitude),
		Altitude:      p.f64(varAltitude),
		GroundSpeed:   telemetry.NonNegative(p.f64(varGroundVelocity) * telemetry.FeetPerSecondToKnots),
		Heading:       telemetry.NormalizeHeading(p.f64(varHeading)),
		FuelKg:        telemetry.NonNegative(telemetry.GallonsToKg(p.f64(varFuel))),
		VerticalSpeed: p.f64(varVerticalSpeed),
		OnGround:      p.i32(varOnGround) != 0,
		Timestamp:     now.UTC(),
	}, nil
}
