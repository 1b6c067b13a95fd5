//go:build windows

package simconnect

import (
	"fmt"
	"reflect"
	"unsafe"

	sim "github.com/lian/msfs2020-go/simconnect"
)

// report mirrors Variables for the library's struct-tag registration.
type report struct {
	sim.RecvSimobjectDataByType

	Latitude       float64   `name:"PLANE LATITUDE" unit:"degrees"`
	Longitude      float64   `name:"PLANE LONGITUDE" unit:"degrees"`
	Altitude       float64   `name:"PLANE ALTITUDE" unit:"feet"`
	GroundVelocity float64   `name:"GROUND VELOCITY" unit:"feet per second"`
	Heading        float64   `name:"PLANE HEADING DEGREES TRUE" unit:"degrees"`
	Fuel           float64   `name:"FUEL TOTAL QUANTITY" unit:"gallons"`
	VerticalSpeed  float64   `name:"VERTICAL SPEED" unit:"feet per minute"`
	OnGround       int32     `name:"SIM ON GROUND" unit:"bool"`
	Title          [256]byte `name:"TITLE" unit:""`
	ATCID          [256]byte `name:"ATC ID" unit:""`
}

// SIMCONNECT_PERIOD values; the library does not export them.
const (
	periodOnce   sim.DWORD = 1
	periodSecond sim.DWORD = 4
)

const (
	requestPeriodic sim.DWORD = iota
	requestOnce
)

type libSession struct {
	sc       *sim.SimConnect
	report   *report
	defineID sim.DWORD
	declared bool
}

func openSession(appName string) (session, error) {
	sc, err := sim.New(appName)
	if err != nil {
		return nil, err
	}
	return &libSession{sc: sc, report: &report{}}, nil
}

// checkReport verifies the tagged struct declares Variables in order.
func checkReport() error {
	t := reflect.TypeOf(report{})
	if t.NumField()-1 != len(Variables) {
		return fmt.Errorf("report declares %d variables, want %d", t.NumField()-1, len(Variables))
	}
	for i, v := range Variables {
		f := t.Field(i + 1)
		if f.Tag.Get("name") != v.Name || f.Tag.Get("unit") != v.Unit || int(f.Type.Size()) != v.Type.size() {
			return fmt.Errorf("report field %s does not match %q", f.Name, v.Name)
		}
	}
	return nil
}

func (s *libSession) Declare() error {
	if err := checkReport(); err != nil {
		return err
	}
	if err := s.sc.RegisterDataDefinition(s.report); err != nil {
		return fmt.Errorf("register data definition: %w", err)
	}
	s.defineID = s.sc.GetDefineID(s.report)
	s.declared = true
	return nil
}

func (s *libSession) RequestPeriodic() error {
	return s.request(requestPeriodic, periodSecond)
}

func (s *libSession) RequestOnce() error {
	return s.request(requestOnce, periodOnce)
}

func (s *libSession) request(id, period sim.DWORD) error {
	if !s.declared {
		return fmt.Errorf("data definition not registered")
	}
	return s.sc.RequestDataOnSimObject(id, s.defineID, sim.OBJECT_ID_USER, period, 0, 0, 0, 0)
}

func (s *libSession) Next() (message, bool, error) {
	ppData, r1, err := s.sc.GetNextDispatch()
	if r1 < 0 {
		return message{}, false, nil
	}
	if err != nil && ppData == nil {
		return message{}, false, err
	}

	hdr := (*sim.Recv)(ppData)
	buf := unsafe.Slice((*byte)(ppData), hdr.Size)
	return message{ID: uint32(hdr.ID), Payload: append([]byte(nil), buf...)}, true, nil
}

func (s *libSession) Close() error {
	return s.sc.Close()
}
