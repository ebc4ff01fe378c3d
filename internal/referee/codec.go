package referee

import "encoding/binary"

const sof byte = 0xA5

// headerLen is SOF(1) + DataLen(2) + Seq(1) + CRC8(1).
const headerLen = 5

// encodeFrame builds a full packet: SOF | DataLen | Seq | CRC8 | CmdID |
// Data | CRC16 (spec.md §4.4.1).
func encodeFrame(seq byte, cmd CommandCode, data []byte) []byte {
	header := make([]byte, headerLen-1, headerLen+2+len(data)+2)
	header[0] = sof
	binary.LittleEndian.PutUint16(header[1:3], uint16(len(data)))
	header[3] = seq
	header = appendCRC8(header)

	packet := header
	cmdBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBytes, uint16(cmd))
	packet = append(packet, cmdBytes...)
	packet = append(packet, data...)

	return appendCRC16(packet)
}

// encodeInteraction builds the Data field for a CmdRobotInteraction
// packet: SubCmdID | SenderID | ReceiverID | Payload.
func encodeInteraction(sub SubCommandID, sender, receiver ID, payload []byte) []byte {
	data := make([]byte, 6, 6+len(payload))
	binary.LittleEndian.PutUint16(data[0:2], uint16(sub))
	binary.LittleEndian.PutUint16(data[2:4], uint16(sender))
	binary.LittleEndian.PutUint16(data[4:6], uint16(receiver))
	return append(data, payload...)
}

// encodeMapRobotPayload builds the map-position payload (spec.md §4.4.2):
// target robot id plus x/y in centimeters, clamped to [0, 65535].
func encodeMapRobotPayload(targetRobotID ID, xCM, yCM float64) []byte {
	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:2], uint16(targetRobotID))
	binary.LittleEndian.PutUint16(payload[2:4], clampUint16(xCM))
	binary.LittleEndian.PutUint16(payload[4:6], clampUint16(yCM))
	return payload
}

func clampUint16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

// decodeInteraction parses a CmdRobotInteraction payload.
func decodeInteraction(data []byte) (RobotInteractionData, bool) {
	if len(data) < 6 {
		return RobotInteractionData{}, false
	}
	return RobotInteractionData{
		SubCmdID:   SubCommandID(binary.LittleEndian.Uint16(data[0:2])),
		SenderID:   ID(binary.LittleEndian.Uint16(data[2:4])),
		ReceiverID: ID(binary.LittleEndian.Uint16(data[4:6])),
		Payload:    data[6:],
	}, true
}

// decodeState is the receive-side framing state (spec.md §4.4.3).
type decodeState int

const (
	stateFree decodeState = iota
	stateLength
	stateCRC16
)

// Frame is a successfully decoded packet.
type Frame struct {
	CmdID CommandCode
	Data  []byte
}

// decoder implements the Free/Length/CRC16 receive state machine over a
// rolling byte buffer. It is not safe for concurrent use; the
// Communicator serializes access to it under its own lock.
type decoder struct {
	buf         []byte
	state       decodeState
	dataLen     int
	expectedLen int
}

func newDecoder() *decoder {
	return &decoder{state: stateFree}
}

// feed appends newly received bytes and extracts as many complete, valid
// frames as the buffer currently contains. Malformed prefixes are dropped
// one byte at a time; the state machine never hangs on garbage input.
func (d *decoder) feed(data []byte) []Frame {
	d.buf = append(d.buf, data...)
	var frames []Frame

	for {
		switch d.state {
		case stateFree:
			idx := indexByte(d.buf, sof)
			if idx < 0 {
				d.buf = d.buf[:0]
				return frames
			}
			d.buf = d.buf[idx:]
			d.state = stateLength

		case stateLength:
			if len(d.buf) < headerLen {
				return frames
			}
			if !verifyCRC8(d.buf[:headerLen]) {
				d.buf = d.buf[1:]
				d.state = stateFree
				continue
			}
			d.dataLen = int(binary.LittleEndian.Uint16(d.buf[1:3]))
			d.expectedLen = headerLen + 2 + d.dataLen + 2
			d.state = stateCRC16

		case stateCRC16:
			if len(d.buf) < d.expectedLen {
				return frames
			}
			packet := d.buf[:d.expectedLen]
			if !verifyCRC16(packet) {
				d.buf = d.buf[1:]
				d.state = stateFree
				continue
			}
			cmdID := CommandCode(binary.LittleEndian.Uint16(packet[headerLen : headerLen+2]))
			payload := append([]byte(nil), packet[headerLen+2:headerLen+2+d.dataLen]...)
			frames = append(frames, Frame{CmdID: cmdID, Data: payload})
			d.buf = d.buf[d.expectedLen:]
			d.state = stateFree
		}
	}
}

func indexByte(b []byte, target byte) int {
	for i, v := range b {
		if v == target {
			return i
		}
	}
	return -1
}
