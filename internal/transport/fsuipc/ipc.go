package fsuipc

// ipc is the shared block plus the doorbell that tells the simulator a request
// batch is ready. All raw memory handling lives behind it.
type ipc interface {
	Buffer() []byte
	Signal() error
	Close() error
}
