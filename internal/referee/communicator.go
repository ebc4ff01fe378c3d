package referee

import (
	"sync"

	"github.com/Tianran-W/rm-radar/internal/monitoring"
	"github.com/Tianran-W/rm-radar/internal/robot"
)

// Communicator owns the serial connection to the referee system, the
// latest decoded record of each type, and the outgoing map-position send
// path (spec.md §4.4). A shared-exclusive mutex protects both the decoded
// records and the receive buffer: writes (send, decode-dispatch) take the
// lock exclusively, reads of cached records take it shared.
type Communicator struct {
	portPath string
	port     Port
	openPort func(string) (Port, error)

	connected bool
	seq       byte
	decoder   *decoder

	mu sync.RWMutex

	gameStatus    *GameStatus
	gameResult    *GameResult
	robotHP       *RobotHP
	eventData     *EventData
	supplyAction  *SupplyProjectileAction
	warning       *RefereeWarning
	dartInfo      *DartInfo
	radarStatus   *RobotStatus
	radarMarkData *RadarMarkData
	radarInfo     *RadarInfo
	sentryData    *RobotInteractionData
}

// Config holds the construction-time parameters for a Communicator. It is
// a plain struct passed in by the caller, not loaded from a file or the
// environment; CLI/config-file loading is an external collaborator.
type Config struct {
	PortPath string
}

// NewCommunicator opens the serial device named in cfg. A failed open
// leaves the Communicator disconnected but construction still succeeds
// (spec.md §4.4.4); Reconnect is the recovery path.
func NewCommunicator(cfg Config) *Communicator {
	return newCommunicator(cfg.PortPath, OpenDevicePort)
}

// newCommunicator is the testable constructor: openPort is injected so
// tests can substitute MockPort without touching a real device.
func newCommunicator(portPath string, openPort func(string) (Port, error)) *Communicator {
	c := &Communicator{
		portPath: portPath,
		openPort: openPort,
		decoder:  newDecoder(),
	}
	c.tryOpen()
	return c
}

func (c *Communicator) tryOpen() {
	port, err := c.openPort(c.portPath)
	if err != nil {
		monitoring.Logf("referee: failed to open %s: %v", c.portPath, err)
		c.connected = false
		return
	}
	c.port = port
	c.connected = true
}

// Reconnect attempts to reopen the serial device and returns the new
// connection status.
func (c *Communicator) Reconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port != nil {
		_ = c.port.Close()
	}
	c.tryOpen()
	return c.connected
}

// IsConnected reports the current connection status.
func (c *Communicator) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// isEnemy reports whether label, used as the robot's referee-system ID,
// belongs to a different color than the radar's own robot_status record.
// If no robot_status has been received yet, every label is treated as
// non-enemy (nothing can be safely sent).
func (c *Communicator) isEnemy(label int) bool {
	if c.radarStatus == nil {
		return false
	}
	return ID(label).Color() != c.radarStatus.RobotID.Color()
}

// SendMapRobot emits a map-position packet for each opposing, located
// robot (spec.md §4.4.2). Robot identity on the wire is the robot's class
// label, treated directly as its referee-system ID.
func (c *Communicator) SendMapRobot(robots []*robot.Robot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.radarStatus == nil {
		return
	}

	for _, r := range robots {
		label, ok := r.Label()
		if !ok {
			continue
		}
		loc, ok := r.Location()
		if !ok {
			continue
		}
		if !c.isEnemy(label) {
			continue
		}

		payload := encodeMapRobotPayload(ID(label), loc.X*100, loc.Y*100)
		data := encodeInteraction(SubCmdMapRobotData, c.radarStatus.RobotID, ID(label), payload)
		c.send(CmdRobotInteraction, data)
	}
}

// send encodes and writes a frame, incrementing the sequence counter.
// Caller must hold mu for writing.
func (c *Communicator) send(cmd CommandCode, data []byte) bool {
	if !c.connected || c.port == nil {
		return false
	}
	frame := encodeFrame(c.seq, cmd, data)
	c.seq++
	if _, err := c.port.Write(frame); err != nil {
		monitoring.Logf("referee: write failed: %v", err)
		c.connected = false
		return false
	}
	return true
}

// Update reads any available bytes from the serial device and decodes as
// many complete frames as the buffer yields, dispatching each by command
// code. A disconnected port makes Update a no-op (spec.md §4.4.4).
func (c *Communicator) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.port == nil {
		return
	}

	buf := make([]byte, 1024)
	n, err := c.port.Read(buf)
	if err != nil {
		monitoring.Logf("referee: read failed: %v", err)
		c.connected = false
		return
	}
	if n == 0 {
		return
	}

	for _, frame := range c.decoder.feed(buf[:n]) {
		c.fetchData(frame.Data, frame.CmdID)
	}
}

// fetchData replaces the record matching cmd with a freshly parsed value
// (spec.md §4.4.3: "replaces the pointed-to referee record"). Caller must
// hold mu for writing.
func (c *Communicator) fetchData(data []byte, cmd CommandCode) {
	switch cmd {
	case CmdRobotInteraction:
		if v, ok := decodeInteraction(data); ok {
			c.sentryData = &v
		}
	case CmdRobotStatus:
		if v, ok := decodeRobotStatus(data); ok {
			c.radarStatus = &v
		}
	case CmdGameStatus:
		if v, ok := decodeGameStatus(data); ok {
			c.gameStatus = &v
		}
	case CmdGameResult:
		if v, ok := decodeGameResult(data); ok {
			c.gameResult = &v
		}
	case CmdRobotHP:
		if v, ok := decodeRobotHP(data); ok {
			c.robotHP = &v
		}
	case CmdEventData:
		if v, ok := decodeEventData(data); ok {
			c.eventData = &v
		}
	case CmdSupplyProjectileAction:
		if v, ok := decodeSupplyProjectileAction(data); ok {
			c.supplyAction = &v
		}
	case CmdRefereeWarning:
		if v, ok := decodeRefereeWarning(data); ok {
			c.warning = &v
		}
	case CmdDartInfo:
		if v, ok := decodeDartInfo(data); ok {
			c.dartInfo = &v
		}
	case CmdRadarMarkData:
		if v, ok := decodeRadarMarkData(data); ok {
			c.radarMarkData = &v
		}
	case CmdRadarInfo:
		if len(data) >= 1 {
			c.radarInfo = &RadarInfo{Info: data[0]}
		}
	default:
		monitoring.Logf("referee: unhandled command %#04x (%d bytes)", uint16(cmd), len(data))
	}
}

// GameStatus returns the latest decoded game status, if any.
func (c *Communicator) GameStatus() (GameStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gameStatus == nil {
		return GameStatus{}, false
	}
	return *c.gameStatus, true
}

// RobotStatus returns the radar's own latest decoded robot status.
func (c *Communicator) RobotStatus() (RobotStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.radarStatus == nil {
		return RobotStatus{}, false
	}
	return *c.radarStatus, true
}

// RobotHP returns the latest decoded robot HP table.
func (c *Communicator) RobotHP() (RobotHP, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.robotHP == nil {
		return RobotHP{}, false
	}
	return *c.robotHP, true
}

// EventData returns the latest decoded site/zone occupation flags.
func (c *Communicator) EventData() (EventData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.eventData == nil {
		return EventData{}, false
	}
	return *c.eventData, true
}

// SupplyProjectileAction returns the latest decoded supply action record.
func (c *Communicator) SupplyProjectileAction() (SupplyProjectileAction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.supplyAction == nil {
		return SupplyProjectileAction{}, false
	}
	return *c.supplyAction, true
}

// RefereeWarning returns the latest decoded referee warning record.
func (c *Communicator) RefereeWarning() (RefereeWarning, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.warning == nil {
		return RefereeWarning{}, false
	}
	return *c.warning, true
}

// DartInfo returns the latest decoded dart-launch status record.
func (c *Communicator) DartInfo() (DartInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dartInfo == nil {
		return DartInfo{}, false
	}
	return *c.dartInfo, true
}
