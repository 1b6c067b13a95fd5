package simconnect

// message is one dispatched SimConnect message with its payload copied out
// of the library's receive buffer.
type message struct {
	ID      uint32
	Payload []byte
}

// session is an open SimConnect handle. The data definition lives as long as
// the handle; closing the handle releases it.
type session interface {
	// Declare registers the data definition built from Variables.
	Declare() error
	// RequestPeriodic subscribes to the user aircraft's data once per
	// simulated second.
	RequestPeriodic() error
	// RequestOnce asks for one immediate delivery of the user aircraft's data.
	RequestOnce() error
	// Next returns the next pending message without blocking.
	Next() (message, bool, error)
	Close() error
}
