package referee

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tianran-W/rm-radar/internal/robot"
)

// labeledRobot builds a Robot carrying the given class label via a single
// winning armor detection, mirroring how NewRobot derives the label from
// the argmax of armor confidences.
func labeledRobot(label int) *robot.Robot {
	car := robot.Detection{X: 0, Y: 0, Width: 10, Height: 10}
	armor := robot.Detection{X: 1, Y: 1, Width: 2, Height: 2, Label: label, Confidence: 0.9}
	return robot.NewRobot(car, []robot.Detection{armor})
}

func openMock(port *MockPort) func(string) (Port, error) {
	return func(string) (Port, error) { return port, nil }
}

func openFailing() func(string) (Port, error) {
	return func(string) (Port, error) { return nil, errors.New("no such device") }
}

func TestNewCommunicator_OpenFailureLeavesDisconnected(t *testing.T) {
	c := newCommunicator("/dev/fake", openFailing())
	assert.False(t, c.IsConnected())
}

func TestNewCommunicator_OpenSuccessConnects(t *testing.T) {
	c := newCommunicator("/dev/fake", openMock(&MockPort{}))
	assert.True(t, c.IsConnected())
}

func TestReconnect_RecoversAfterInitialFailure(t *testing.T) {
	c := newCommunicator("/dev/fake", openFailing())
	require.False(t, c.IsConnected())

	c.openPort = openMock(&MockPort{})
	assert.True(t, c.Reconnect())
}

func TestUpdate_DecodesRobotStatusFrame(t *testing.T) {
	mock := &MockPort{}
	c := newCommunicator("/dev/fake", openMock(mock))

	own := RobotStatus{RobotID: ID(3), Level: 2, CurrentHP: 400, MaxHP: 500}
	frame := encodeFrame(0, CmdRobotStatus, encodeRobotStatus(own))
	mock.Feed(frame)

	c.Update()

	got, ok := c.RobotStatus()
	require.True(t, ok)
	assert.Equal(t, own, got)
}

func TestUpdate_DecodesSupplementedRecordTypes(t *testing.T) {
	mock := &MockPort{}
	c := newCommunicator("/dev/fake", openMock(mock))

	event := EventData{Flags: 0x1234}
	warning := RefereeWarning{Level: 2, OffendingRobot: 7, Count: 1}

	var eventData [4]byte
	for i := range eventData {
		eventData[i] = byte(event.Flags >> (8 * i))
	}

	mock.Feed(encodeFrame(0, CmdEventData, eventData[:]))
	mock.Feed(encodeFrame(1, CmdRefereeWarning, []byte{warning.Level, warning.OffendingRobot, warning.Count}))

	c.Update()

	gotEvent, ok := c.EventData()
	require.True(t, ok)
	assert.Equal(t, event, gotEvent)

	gotWarning, ok := c.RefereeWarning()
	require.True(t, ok)
	assert.Equal(t, warning, gotWarning)
}

func TestUpdate_DisconnectedIsNoOp(t *testing.T) {
	c := newCommunicator("/dev/fake", openFailing())
	require.False(t, c.IsConnected())

	c.Update()

	_, ok := c.RobotStatus()
	assert.False(t, ok)
}

func TestUpdate_PartialStreamAccumulatesAcrossCalls(t *testing.T) {
	mock := &MockPort{}
	c := newCommunicator("/dev/fake", openMock(mock))

	status := RobotStatus{RobotID: ID(1)}
	frame := encodeFrame(0, CmdRobotStatus, encodeRobotStatus(status))

	mock.Feed(frame[:4])
	c.Update()
	_, ok := c.RobotStatus()
	assert.False(t, ok, "a partial frame must not yet produce a decoded record")

	mock.Feed(frame[4:])
	c.Update()
	got, ok := c.RobotStatus()
	require.True(t, ok)
	assert.Equal(t, status, got)
}

func TestSendMapRobot_SkipsOwnColorAndUnlocatedRobots(t *testing.T) {
	mock := &MockPort{}
	c := newCommunicator("/dev/fake", openMock(mock))
	c.radarStatus = &RobotStatus{RobotID: ID(3)} // red, since 3 < 100

	ally := labeledRobot(4) // also red: same color, must be skipped
	ally.SetLocation(robot.Point3{X: 1, Y: 1, Z: 0})

	noLoc := labeledRobot(104) // blue, but never located

	enemy := labeledRobot(104) // blue: opposing color
	enemy.SetLocation(robot.Point3{X: 2, Y: 3, Z: 0})

	c.SendMapRobot([]*robot.Robot{ally, noLoc, enemy})

	require.NotEmpty(t, mock.Written, "exactly one enemy packet should have been sent")

	d := newDecoder()
	frames := d.feed(mock.Written)
	require.Len(t, frames, 1)
	assert.Equal(t, CmdRobotInteraction, frames[0].CmdID)

	interaction, ok := decodeInteraction(frames[0].Data)
	require.True(t, ok)
	assert.Equal(t, ID(104), interaction.ReceiverID)
}

func TestSendMapRobot_NoOpWithoutOwnRobotStatus(t *testing.T) {
	mock := &MockPort{}
	c := newCommunicator("/dev/fake", openMock(mock))

	enemy := labeledRobot(104)
	enemy.SetLocation(robot.Point3{X: 1, Y: 1, Z: 0})

	c.SendMapRobot([]*robot.Robot{enemy})

	assert.Empty(t, mock.Written, "without a known robot_status the radar's own color is unknown")
}

func TestIsEnemy_UnknownWithoutRadarStatus(t *testing.T) {
	c := newCommunicator("/dev/fake", openMock(&MockPort{}))
	assert.False(t, c.isEnemy(104))
}
