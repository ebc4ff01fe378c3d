// Package track implements the Tracker: a multi-object tracker that
// maintains per-object Track identities across ticks using a Singer
// maneuvering-target filter for position and an auction-based global
// assignment against new Robot observations.
package track

import (
	"time"

	"github.com/Tianran-W/rm-radar/internal/robot"
)

// State is the lifecycle state of a Track, mirrored onto the matched
// Robot via ApplyTrack.
type State int

const (
	Tentative State = iota
	Confirmed
	Deleted
)

// ObservationNoise holds the diagonal measurement-noise standard deviations
// (m) for the 3-D position observation; the filter uses their squares as
// the observation variances.
type ObservationNoise struct {
	X, Y, Z float64
}

// Config holds the Tracker's construction-time parameters (spec.md §4.3).
type Config struct {
	ClassNum int

	InitThresh int
	MissThresh int

	MaxAcceleration             float64
	AccelerationCorrelationTime float64 // tau
	ObservationNoise            ObservationNoise

	DistanceWeight float64
	FeatureWeight  float64
	DistanceThresh float64

	// FeatureDecay is beta in feature = (1-beta)*feature + beta*newFeature.
	// Defaults to 0.3 when zero.
	FeatureDecay float64

	MaxIter int

	// InitialPositionVariance seeds a new track's covariance; large values
	// express high initial uncertainty, matching the teacher's own
	// high-uncertainty track seeding.
	InitialPositionVariance float64
}

// Track is a long-lived tracked identity (spec.md §3): a Singer filter
// over 3-D position plus a class-confidence feature vector.
type Track struct {
	id int

	x, y, z singerAxis
	feature []float64

	state      State
	initCount  int
	missCount  int
	lastUpdate time.Time
	hasUpdate  bool
}

func newTrack(id int, location robot.Point3, feature []float64, timestamp time.Time, cfg Config) *Track {
	v := cfg.InitialPositionVariance
	if v <= 0 {
		v = 10
	}
	return &Track{
		id:         id,
		x:          newSingerAxis(location.X, v),
		y:          newSingerAxis(location.Y, v),
		z:          newSingerAxis(location.Z, v),
		feature:    append([]float64(nil), feature...),
		state:      Tentative,
		initCount:  1,
		lastUpdate: timestamp,
		hasUpdate:  true,
	}
}

// ID returns the track's identifier, assigned at birth in creation order.
func (t *Track) ID() int { return t.id }

// State returns the track's current lifecycle state.
func (t *Track) State() State { return t.state }

// Location returns the filter's current position estimate.
func (t *Track) Location() robot.Point3 {
	return robot.Point3{X: t.x.position(), Y: t.y.position(), Z: t.z.position()}
}

// Feature returns the track's current class-confidence feature vector.
func (t *Track) Feature() []float64 { return t.feature }

func (t *Track) isTentative() bool { return t.state == Tentative }
func (t *Track) isConfirmed() bool { return t.state == Confirmed }

// predict advances the filter to timestamp (spec.md §4.3.1): dt is the
// elapsed time since the last predict/update, in seconds. A track that has
// never been updated before (freshly born this tick) does not predict.
func (t *Track) predict(timestamp time.Time, cfg Config) {
	if !t.hasUpdate {
		t.lastUpdate = timestamp
		t.hasUpdate = true
		return
	}
	dt := timestamp.Sub(t.lastUpdate).Seconds()
	t.lastUpdate = timestamp
	if dt <= 0 {
		return
	}

	alpha := 0.0
	if cfg.AccelerationCorrelationTime > 0 {
		alpha = 1 / cfg.AccelerationCorrelationTime
	}
	t.x.predict(dt, alpha, cfg.MaxAcceleration)
	t.y.predict(dt, alpha, cfg.MaxAcceleration)
	t.z.predict(dt, alpha, cfg.MaxAcceleration)
}

// update applies a Kalman measurement update with the observed location
// and refreshes the feature vector by exponential recency-weighted
// averaging, rate cfg.FeatureDecay (spec.md §4.3.1 tolerates plain
// append-and-average; this project uses the decayed form instead).
func (t *Track) update(location robot.Point3, feature []float64, cfg Config) {
	t.x.update(location.X, cfg.ObservationNoise.X*cfg.ObservationNoise.X)
	t.y.update(location.Y, cfg.ObservationNoise.Y*cfg.ObservationNoise.Y)
	t.z.update(location.Z, cfg.ObservationNoise.Z*cfg.ObservationNoise.Z)

	if len(feature) == len(t.feature) {
		beta := cfg.FeatureDecay
		if beta <= 0 {
			beta = 0.3
		}
		for i := range t.feature {
			t.feature[i] = (1-beta)*t.feature[i] + beta*feature[i]
		}
	} else {
		t.feature = append([]float64(nil), feature...)
	}

	t.missCount = 0
	if t.isTentative() {
		t.initCount++
		if t.initCount >= cfg.InitThresh {
			t.state = Confirmed
		}
	}
}

// markUnmatched applies the unmatched-track transition (spec.md §4.3.3
// step 3): Tentative dies immediately, Confirmed accrues a miss and dies
// once miss_count reaches miss_thresh.
func (t *Track) markUnmatched(cfg Config) {
	switch t.state {
	case Tentative:
		t.state = Deleted
	case Confirmed:
		t.missCount++
		if t.missCount >= cfg.MissThresh {
			t.state = Deleted
		}
	}
}

// trackInfo builds the value-transfer payload written back into the
// matched Robot via robot.ApplyTrack.
func (t *Track) trackInfo() robot.TrackInfo {
	info := robot.TrackInfo{
		State:       robot.TrackState(t.state),
		HasLocation: true,
		Location:    t.Location(),
	}
	if label, ok := bestLabel(t.feature); ok {
		info.Label = label
		info.HasLabel = true
	}
	return info
}

// bestLabel returns the argmax index of a feature vector, if any entry is
// nonzero.
func bestLabel(feature []float64) (int, bool) {
	best := -1
	bestScore := 0.0
	for i, v := range feature {
		if v > bestScore {
			bestScore = v
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
