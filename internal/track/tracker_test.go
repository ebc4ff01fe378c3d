package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tianran-W/rm-radar/internal/robot"
)

func testConfig() Config {
	return Config{
		ClassNum:                    6,
		InitThresh:                  3,
		MissThresh:                  3,
		MaxAcceleration:             5,
		AccelerationCorrelationTime: 1.0,
		ObservationNoise:            ObservationNoise{X: 0.1, Y: 0.1, Z: 0.1},
		DistanceWeight:              0.7,
		FeatureWeight:               0.3,
		DistanceThresh:              1.0,
		FeatureDecay:                0.3,
		MaxIter:                     1000,
		InitialPositionVariance:     10,
	}
}

func locatedDetectedRobot(loc robot.Point3, label int, confidence float64) *robot.Robot {
	car := robot.Detection{X: 0, Y: 0, Width: 100, Height: 100, Label: label, Confidence: confidence}
	armor := robot.Detection{X: 10, Y: 10, Width: 5, Height: 5, Label: label, Confidence: confidence}
	r := robot.NewRobot(car, []robot.Detection{armor})
	r.SetLocation(loc)
	return r
}

func TestTracker_ColdStartCreatesTentativeTrack(t *testing.T) {
	tr := NewTracker(testConfig())
	ts := time.Unix(0, 0)

	r := locatedDetectedRobot(robot.Point3{X: 10, Y: 0, Z: 0}, 1, 0.9)
	tr.Update([]*robot.Robot{r}, ts)

	require.Len(t, tr.Tracks(), 1)
	track := tr.Tracks()[0]
	assert.Equal(t, 0, track.ID())
	assert.Equal(t, Tentative, track.State())

	state, ok := r.TrackState()
	require.True(t, ok)
	assert.Equal(t, robot.TrackTentative, state)
}

func TestTracker_PromotionAfterInitThresh(t *testing.T) {
	cfg := testConfig()
	tr := NewTracker(cfg)
	ts := time.Unix(0, 0)

	loc := robot.Point3{X: 10, Y: 0, Z: 0}
	for i := 0; i < cfg.InitThresh; i++ {
		r := locatedDetectedRobot(loc, 1, 0.9)
		tr.Update([]*robot.Robot{r}, ts)
		ts = ts.Add(100 * time.Millisecond)

		if i < cfg.InitThresh-1 {
			require.Equal(t, Tentative, tr.Tracks()[0].State(), "tick %d", i)
		} else {
			require.Equal(t, Confirmed, tr.Tracks()[0].State(), "tick %d", i)
			trackState, ok := r.TrackState()
			require.True(t, ok)
			assert.Equal(t, robot.TrackConfirmed, trackState)
		}
	}
}

func TestTracker_MissAndDeath(t *testing.T) {
	cfg := testConfig()
	tr := NewTracker(cfg)
	ts := time.Unix(0, 0)

	loc := robot.Point3{X: 10, Y: 0, Z: 0}
	for i := 0; i < cfg.InitThresh; i++ {
		r := locatedDetectedRobot(loc, 1, 0.9)
		tr.Update([]*robot.Robot{r}, ts)
		ts = ts.Add(100 * time.Millisecond)
	}
	require.Equal(t, Confirmed, tr.Tracks()[0].State())

	for i := 0; i < cfg.MissThresh-1; i++ {
		tr.Update(nil, ts)
		ts = ts.Add(100 * time.Millisecond)
		require.Len(t, tr.Tracks(), 1, "track should still be alive at miss %d", i)
	}

	tr.Update(nil, ts)
	assert.Empty(t, tr.Tracks(), "track should be erased once miss_count reaches miss_thresh")
}

func TestTracker_LabelStabilityViaConfirmedTrack(t *testing.T) {
	cfg := testConfig()
	tr := NewTracker(cfg)
	ts := time.Unix(0, 0)

	loc := robot.Point3{X: 10, Y: 0, Z: 0}
	for i := 0; i < cfg.InitThresh; i++ {
		r := locatedDetectedRobot(loc, 3, 0.9)
		tr.Update([]*robot.Robot{r}, ts)
		ts = ts.Add(100 * time.Millisecond)
	}
	require.Equal(t, Confirmed, tr.Tracks()[0].State())

	r := locatedDetectedRobot(loc, 5, 0.9)
	tr.Update([]*robot.Robot{r}, ts)

	label, ok := r.Label()
	require.True(t, ok)
	assert.Equal(t, 3, label, "confirmed track overwrites the robot's label")
}

func TestTrackUpdate_FeatureFollowsConfiguredDecayRate(t *testing.T) {
	cfg := testConfig()
	cfg.FeatureDecay = 0.25
	ts := time.Unix(0, 0)

	tr := newTrack(0, robot.Point3{X: 0, Y: 0, Z: 0}, []float64{1, 0}, ts, cfg)
	tr.update(robot.Point3{X: 0, Y: 0, Z: 0}, []float64{0, 1}, cfg)

	assert.InDelta(t, 0.75, tr.feature[0], 1e-9)
	assert.InDelta(t, 0.25, tr.feature[1], 1e-9)
}

func TestTrackUpdate_FeatureDecayDefaultsWhenUnset(t *testing.T) {
	cfg := testConfig()
	cfg.FeatureDecay = 0
	ts := time.Unix(0, 0)

	tr := newTrack(0, robot.Point3{X: 0, Y: 0, Z: 0}, []float64{1, 0}, ts, cfg)
	tr.update(robot.Point3{X: 0, Y: 0, Z: 0}, []float64{0, 1}, cfg)

	assert.InDelta(t, 0.7, tr.feature[0], 1e-9)
	assert.InDelta(t, 0.3, tr.feature[1], 1e-9)
}

func TestCalculateDistance(t *testing.T) {
	d := calculateDistance(robot.Point3{X: 0, Y: 0, Z: 0}, robot.Point3{X: 3, Y: 4, Z: 0})
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestDistanceScore_ContinuousAtThresholds(t *testing.T) {
	cfg := testConfig()
	cfg.DistanceThresh = 2.0
	tr := NewTracker(cfg)

	// Seed the track's feature to match every probe robot's feature
	// (label 1, confidence 0.9), so cosine similarity is 1 and the
	// feature score term stays constant across all probes: any
	// difference in cost below isolates the distance score.
	seed := locatedDetectedRobot(robot.Point3{}, 1, 0.9).Feature(cfg.ClassNum)
	track := newTrack(0, robot.Point3{}, seed, time.Unix(0, 0), cfg)

	at := func(d float64) float64 {
		r := locatedDetectedRobot(robot.Point3{X: d, Y: 0, Z: 0}, 1, 0.9)
		return tr.calculateCost(track, r)
	}

	withinD := at(cfg.DistanceThresh / 2)
	atD := at(cfg.DistanceThresh)
	at2D := at(2 * cfg.DistanceThresh)
	beyond2D := at(3 * cfg.DistanceThresh)

	assert.InDelta(t, withinD, atD, 1e-9, "distance score plateaus at 1 for d < D")
	assert.Greater(t, atD, at2D, "distance score strictly decreases past D")
	assert.Greater(t, at2D, beyond2D, "distance score continues to decay past 2D")
}

func TestAuction_ProducesOneToOneMatching(t *testing.T) {
	cost := [][]float64{
		{5, 1, 0},
		{1, 5, 0},
		{0, 0, 5},
	}
	match := auction(cost, 1000)
	require.Len(t, match, 3)

	seen := make(map[int]bool)
	for _, m := range match {
		if m == NotMatched {
			continue
		}
		assert.False(t, seen[m], "auction must not assign two rows to the same column")
		seen[m] = true
	}
}

func TestAuction_RespectsIterationCap(t *testing.T) {
	cost := make([][]float64, 50)
	for i := range cost {
		cost[i] = make([]float64, 50)
		for j := range cost[i] {
			cost[i][j] = float64((i + j) % 7)
		}
	}
	assert.NotPanics(t, func() {
		auction(cost, 1)
	})
}

func TestSingerAxis_PredictThenUpdateConverges(t *testing.T) {
	axis := newSingerAxis(0, 10)
	for i := 0; i < 20; i++ {
		axis.predict(0.1, 1.0, 5)
		axis.update(10, 0.01)
	}
	assert.InDelta(t, 10, axis.position(), 0.5)
}
