package referee

import "encoding/binary"

// decodeGameStatus parses game_status_t: GameType(1) | GameProgress(1) |
// StageRemainTime(2) | SyncTimestamp(8).
func decodeGameStatus(data []byte) (GameStatus, bool) {
	if len(data) < 12 {
		return GameStatus{}, false
	}
	return GameStatus{
		GameType:        data[0],
		GameProgress:    data[1],
		StageRemainTime: binary.LittleEndian.Uint16(data[2:4]),
		SyncTimestamp:   binary.LittleEndian.Uint64(data[4:12]),
	}, true
}

// decodeGameResult parses game_result_t: Winner(1).
func decodeGameResult(data []byte) (GameResult, bool) {
	if len(data) < 1 {
		return GameResult{}, false
	}
	return GameResult{Winner: data[0]}, true
}

// decodeRobotHP parses game_robot_HP_t: 16 robots x uint16 current HP.
func decodeRobotHP(data []byte) (RobotHP, bool) {
	if len(data) < 32 {
		return RobotHP{}, false
	}
	var hp RobotHP
	for i := 0; i < 16; i++ {
		hp.HP[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return hp, true
}

// decodeRobotStatus parses robot_status_t: RobotID(1) | Level(1) |
// CurrentHP(2) | MaxHP(2) | ShooterCoolingRate(2) | ShooterCoolingLimit(2)
// | ShooterSpeedLimit(2) | ChassisPowerLimit(2) | PowerOutputs(1, bit0
// gimbal, bit1 chassis, bit2 shooter).
func decodeRobotStatus(data []byte) (RobotStatus, bool) {
	if len(data) < 15 {
		return RobotStatus{}, false
	}
	outputs := data[14]
	return RobotStatus{
		RobotID:             ID(data[0]),
		Level:               data[1],
		CurrentHP:           binary.LittleEndian.Uint16(data[2:4]),
		MaxHP:               binary.LittleEndian.Uint16(data[4:6]),
		ShooterCoolingRate:  binary.LittleEndian.Uint16(data[6:8]),
		ShooterCoolingLimit: binary.LittleEndian.Uint16(data[8:10]),
		ShooterSpeedLimit:   binary.LittleEndian.Uint16(data[10:12]),
		ChassisPowerLimit:   binary.LittleEndian.Uint16(data[12:14]),
		GimbalOutput:        outputs&0x1 != 0,
		ChassisOutput:       outputs&0x2 != 0,
		ShooterOutput:       outputs&0x4 != 0,
	}, true
}

// encodeRobotStatus is the inverse of decodeRobotStatus, used by tests
// that exercise the Communicator's receive path without a real device.
func encodeRobotStatus(s RobotStatus) []byte {
	data := make([]byte, 15)
	data[0] = byte(s.RobotID)
	data[1] = s.Level
	binary.LittleEndian.PutUint16(data[2:4], s.CurrentHP)
	binary.LittleEndian.PutUint16(data[4:6], s.MaxHP)
	binary.LittleEndian.PutUint16(data[6:8], s.ShooterCoolingRate)
	binary.LittleEndian.PutUint16(data[8:10], s.ShooterCoolingLimit)
	binary.LittleEndian.PutUint16(data[10:12], s.ShooterSpeedLimit)
	binary.LittleEndian.PutUint16(data[12:14], s.ChassisPowerLimit)
	var outputs byte
	if s.GimbalOutput {
		outputs |= 0x1
	}
	if s.ChassisOutput {
		outputs |= 0x2
	}
	if s.ShooterOutput {
		outputs |= 0x4
	}
	data[14] = outputs
	return data
}

// decodeEventData parses event_data_t: a 4-byte site/zone occupation
// bitmask.
func decodeEventData(data []byte) (EventData, bool) {
	if len(data) < 4 {
		return EventData{}, false
	}
	return EventData{Flags: binary.LittleEndian.Uint32(data[0:4])}, true
}

// decodeSupplyProjectileAction parses ext_supply_projectile_action_t:
// SupplyRobotID(1) | SupplyZone(1) | SupplyingRobo(1).
func decodeSupplyProjectileAction(data []byte) (SupplyProjectileAction, bool) {
	if len(data) < 3 {
		return SupplyProjectileAction{}, false
	}
	return SupplyProjectileAction{
		SupplyRobotID: data[0],
		SupplyZone:    data[1],
		SupplyingRobo: data[2],
	}, true
}

// decodeRefereeWarning parses referee_warning_t: Level(1) |
// OffendingRobot(1) | Count(1).
func decodeRefereeWarning(data []byte) (RefereeWarning, bool) {
	if len(data) < 3 {
		return RefereeWarning{}, false
	}
	return RefereeWarning{
		Level:          data[0],
		OffendingRobot: data[1],
		Count:          data[2],
	}, true
}

// decodeDartInfo parses dart_info_t: RemainingTime(2) | Info(2).
func decodeDartInfo(data []byte) (DartInfo, bool) {
	if len(data) < 4 {
		return DartInfo{}, false
	}
	return DartInfo{
		RemainingTime: binary.LittleEndian.Uint16(data[0:2]),
		Info:          binary.LittleEndian.Uint16(data[2:4]),
	}, true
}

// decodeRadarMarkData parses radar_mark_data_t: six progress bytes.
func decodeRadarMarkData(data []byte) (RadarMarkData, bool) {
	if len(data) < 6 {
		return RadarMarkData{}, false
	}
	return RadarMarkData{
		ProgressHero:      data[0],
		ProgressEngineer:  data[1],
		ProgressInfantry3: data[2],
		ProgressInfantry4: data[3],
		ProgressInfantry5: data[4],
		ProgressSentry:    data[5],
	}, true
}
