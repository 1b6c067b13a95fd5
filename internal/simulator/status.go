package simulator

// Status is a point-in-time view of the connection, derived on demand.
type Status struct {
	SimulatorType       *Kind `json:"simulator_type"`
	SimulatorSelected   bool  `json:"simulator_selected"`
	FSUIPCConnected     bool  `json:"fsuipc_connected"`
	SimConnectConnected bool  `json:"simconnect_connected"`
	XPUIPCConnected     bool  `json:"xpuipc_connected"`
	DataRunning         bool  `json:"data_running"`
}
