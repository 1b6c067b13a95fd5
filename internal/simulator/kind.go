// Package simulator owns the single active simulator connection and the
// flight plan used to fill identity fields the simulator cannot report.
package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind selects which simulator, and therefore which transport, to use.
type Kind string

const (
	MSFS   Kind = "MSFS"
	FSX    Kind = "FSX"
	P3D    Kind = "P3D"
	XPlane Kind = "XPLANE"
)

// Kinds lists every supported simulator.
var Kinds = []Kind{MSFS, FSX, P3D, XPlane}

var ErrInvalidKind = errors.New("invalid simulator type")

// ParseKind accepts exactly the textual form of a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidKind, s, kindList())
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func (k Kind) String() string {
	return string(k)
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
