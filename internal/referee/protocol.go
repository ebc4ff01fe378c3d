package referee

// CommandCode identifies the payload type carried by a packet's Data field
// (spec.md §4.4.1). Values follow the referee-system specification's fixed
// command table.
type CommandCode uint16

const (
	CmdGameStatus             CommandCode = 0x0001
	CmdGameResult             CommandCode = 0x0002
	CmdRobotHP                CommandCode = 0x0003
	CmdEventData              CommandCode = 0x0101
	CmdSupplyProjectileAction CommandCode = 0x0102
	CmdRefereeWarning         CommandCode = 0x0104
	CmdDartInfo               CommandCode = 0x0105
	CmdRobotStatus            CommandCode = 0x0201
	CmdRadarMarkData          CommandCode = 0x020C
	CmdRadarInfo              CommandCode = 0x020E
	CmdRobotInteraction       CommandCode = 0x0301
)

// SubCommandID identifies the interaction subcommand carried inside a
// CmdRobotInteraction packet (spec.md §4.4.1).
type SubCommandID uint16

// SubCmdMapRobotData is the subcommand radar uses to push a detected
// robot's field position to the rest of the team (sendMapRobot).
const SubCmdMapRobotData SubCommandID = 0x0305

// Color is the team color derived from a robot ID's numeric range.
type Color int

const (
	Red Color = iota
	Blue
)

// ID is a referee-system robot identifier. By convention blue robot IDs
// equal the corresponding red robot's ID plus 100.
type ID uint16

func (id ID) Color() Color {
	if id >= 100 {
		return Blue
	}
	return Red
}

// GameStatus mirrors the referee system's game_status_t (spec.md §3).
type GameStatus struct {
	GameType        byte
	GameProgress    byte
	StageRemainTime uint16
	SyncTimestamp   uint64
}

// GameResult mirrors game_result_t.
type GameResult struct {
	Winner byte
}

// RobotHP mirrors game_robot_HP_t: current HP for each of the 16 robot
// slots (8 red slots then 8 blue slots, by referee-system convention).
type RobotHP struct {
	HP [16]uint16
}

// EventData mirrors event_data_t: a bitmask of site/zone occupation flags.
type EventData struct {
	Flags uint32
}

// SupplyProjectileAction mirrors ext_supply_projectile_action_t.
type SupplyProjectileAction struct {
	SupplyRobotID byte
	SupplyZone    byte
	SupplyingRobo byte
}

// RefereeWarning mirrors referee_warning_t.
type RefereeWarning struct {
	Level          byte
	OffendingRobot byte
	Count          byte
}

// DartInfo mirrors dart_info_t.
type DartInfo struct {
	RemainingTime uint16
	Info          uint16
}

// RobotStatus mirrors robot_status_t: the performance/output status of a
// single robot, including the radar itself (spec.md §4.4.4: own color is
// derived from the radar's own latest RobotStatus record).
type RobotStatus struct {
	RobotID             ID
	Level               byte
	CurrentHP           uint16
	MaxHP               uint16
	ShooterCoolingRate  uint16
	ShooterCoolingLimit uint16
	ShooterSpeedLimit   uint16
	ChassisPowerLimit   uint16
	GimbalOutput        bool
	ChassisOutput       bool
	ShooterOutput       bool
}

// RadarMarkData mirrors radar_mark_data_t: progress (0-120) toward an
// automatic mark bonus for each markable enemy robot type.
type RadarMarkData struct {
	ProgressHero      byte
	ProgressEngineer  byte
	ProgressInfantry3 byte
	ProgressInfantry4 byte
	ProgressInfantry5 byte
	ProgressSentry    byte
}

// RadarInfo mirrors radar_info_t: a bitmask describing radar's
// double-vulnerability trigger state.
type RadarInfo struct {
	Info byte
}

// RobotInteractionData is the decoded payload of a CmdRobotInteraction
// packet (spec.md §4.4.1): SubCmdID | SenderID | ReceiverID | Payload.
type RobotInteractionData struct {
	SubCmdID   SubCommandID
	SenderID   ID
	ReceiverID ID
	Payload    []byte
}
