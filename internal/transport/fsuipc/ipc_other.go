//go:build !windows

package fsuipc

import "simbridge/internal/transport"

func openIPC() (ipc, error) {
	return nil, transport.ErrUnsupportedPlatform
}
