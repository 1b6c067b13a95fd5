//go:build !windows

package simconnect

import "simbridge/internal/transport"

func openSession(string) (session, error) {
	return nil, transport.ErrUnsupportedPlatform
}
