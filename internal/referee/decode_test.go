package referee

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeGameStatus_RoundTrip(t *testing.T) {
	want := GameStatus{GameType: 4, GameProgress: 2, StageRemainTime: 120, SyncTimestamp: 1723000000}
	data := make([]byte, 12)
	data[0] = want.GameType
	data[1] = want.GameProgress
	data[2], data[3] = byte(want.StageRemainTime), byte(want.StageRemainTime>>8)
	for i := 0; i < 8; i++ {
		data[4+i] = byte(want.SyncTimestamp >> (8 * i))
	}

	got, ok := decodeGameStatus(data)
	if !ok {
		t.Fatal("decodeGameStatus reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeGameStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGameStatus_ShortBufferFails(t *testing.T) {
	_, ok := decodeGameStatus(make([]byte, 4))
	if ok {
		t.Fatal("decodeGameStatus should fail on a truncated buffer")
	}
}

func TestDecodeRobotStatus_RoundTripsThroughEncode(t *testing.T) {
	want := RobotStatus{
		RobotID:             ID(101),
		Level:               3,
		CurrentHP:           350,
		MaxHP:               600,
		ShooterCoolingRate:  40,
		ShooterCoolingLimit: 240,
		ShooterSpeedLimit:   30,
		ChassisPowerLimit:   100,
		GimbalOutput:        true,
		ChassisOutput:       true,
		ShooterOutput:       false,
	}

	got, ok := decodeRobotStatus(encodeRobotStatus(want))
	if !ok {
		t.Fatal("decodeRobotStatus reported failure on its own encoder's output")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RobotStatus round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEventData_RoundTrip(t *testing.T) {
	want := EventData{Flags: 0x0000A5FF}
	data := make([]byte, 4)
	for i := 0; i < 4; i++ {
		data[i] = byte(want.Flags >> (8 * i))
	}

	got, ok := decodeEventData(data)
	if !ok {
		t.Fatal("decodeEventData reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeEventData mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSupplyProjectileAction_RoundTrip(t *testing.T) {
	want := SupplyProjectileAction{SupplyRobotID: 7, SupplyZone: 2, SupplyingRobo: 1}
	data := []byte{want.SupplyRobotID, want.SupplyZone, want.SupplyingRobo}

	got, ok := decodeSupplyProjectileAction(data)
	if !ok {
		t.Fatal("decodeSupplyProjectileAction reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeSupplyProjectileAction mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRefereeWarning_RoundTrip(t *testing.T) {
	want := RefereeWarning{Level: 1, OffendingRobot: 104, Count: 2}
	data := []byte{want.Level, want.OffendingRobot, want.Count}

	got, ok := decodeRefereeWarning(data)
	if !ok {
		t.Fatal("decodeRefereeWarning reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeRefereeWarning mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDartInfo_RoundTrip(t *testing.T) {
	want := DartInfo{RemainingTime: 30, Info: 0x0003}
	data := []byte{byte(want.RemainingTime), byte(want.RemainingTime >> 8), byte(want.Info), byte(want.Info >> 8)}

	got, ok := decodeDartInfo(data)
	if !ok {
		t.Fatal("decodeDartInfo reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeDartInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRadarMarkData_RoundTrip(t *testing.T) {
	want := RadarMarkData{
		ProgressHero:      10,
		ProgressEngineer:  20,
		ProgressInfantry3: 30,
		ProgressInfantry4: 40,
		ProgressInfantry5: 50,
		ProgressSentry:    60,
	}
	data := []byte{want.ProgressHero, want.ProgressEngineer, want.ProgressInfantry3,
		want.ProgressInfantry4, want.ProgressInfantry5, want.ProgressSentry}

	got, ok := decodeRadarMarkData(data)
	if !ok {
		t.Fatal("decodeRadarMarkData reported failure on a full-length buffer")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeRadarMarkData mismatch (-want +got):\n%s", diff)
	}
}
