package referee

import "go.bug.st/serial"

// Port is the serial interface the Communicator consumes (spec.md §6):
// read/write/close, all returning error codes rather than panicking.
// Opening is done by OpenDevicePort, and connection status is tracked by
// the Communicator, not by Port. Grounded on the teacher's radar.RadarPort / MockRadarPort
// split (radar/serial.go), adapted here to wrap go.bug.st/serial.Port
// directly instead of exposing a line-oriented channel API, since the
// referee protocol is a raw binary framed stream rather than
// newline-delimited text.
type Port interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// devicePort adapts go.bug.st/serial.Port to Port.
type devicePort struct {
	serial.Port
}

// OpenDevicePort opens a serial device at 115200 8N1, the referee
// system's fixed line configuration.
func OpenDevicePort(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return &devicePort{Port: p}, nil
}

// MockPort is an in-memory Port for tests: writes accumulate in Written,
// reads are served from a caller-fed buffer. Grounded on the teacher's
// MockRadarPort.
type MockPort struct {
	Written []byte
	inbox   []byte
	closed  bool
}

// Feed queues bytes to be returned by subsequent Read calls, simulating
// data arriving from the referee system.
func (m *MockPort) Feed(data []byte) {
	m.inbox = append(m.inbox, data...)
}

func (m *MockPort) Read(buf []byte) (int, error) {
	n := copy(buf, m.inbox)
	m.inbox = m.inbox[n:]
	return n, nil
}

func (m *MockPort) Write(data []byte) (int, error) {
	m.Written = append(m.Written, data...)
	return len(data), nil
}

func (m *MockPort) Close() error {
	m.closed = true
	return nil
}
