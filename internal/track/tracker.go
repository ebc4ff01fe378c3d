package track

import (
	"math"
	"time"

	"github.com/Tianran-W/rm-radar/internal/robot"
)

// Tracker manages a set of Tracks across ticks (spec.md §4.3): predicting
// existing tracks, assigning them against new Robot observations with an
// auction-based global match, and running the birth/confirm/death state
// machine. Update is a serial critical region — tracks are mutated from a
// single goroutine at a time (spec.md §5).
type Tracker struct {
	cfg    Config
	tracks []*Track
	nextID int
}

// NewTracker constructs an empty Tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 1000
	}
	return &Tracker{cfg: cfg}
}

// Tracks returns the tracker's current track list (including tracks born
// this tick); the slice is owned by the Tracker and must not be retained
// across the next Update call.
func (tr *Tracker) Tracks() []*Track { return tr.tracks }

func calculateDistance(a, b robot.Point3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// calculateCost scores a (track, robot) pair per spec.md §4.3.2. Higher is
// better; the auction algorithm maximizes total cost.
func (tr *Tracker) calculateCost(t *Track, r *robot.Robot) float64 {
	if !r.IsLocated() && !r.IsDetected() {
		return 0
	}

	distanceScore := 0.0
	if loc, ok := r.Location(); ok {
		d := calculateDistance(loc, t.Location())
		D := tr.cfg.DistanceThresh
		switch {
		case d < D:
			distanceScore = 1
		case d < 2*D:
			distanceScore = 1.5 - d/(2*D)
		default:
			distanceScore = 0.5 * math.Exp(2-d/D)
		}
	}

	featureRobot := r.Feature(tr.cfg.ClassNum)
	featureTrack := t.Feature()
	cos := cosineSimilarity(featureRobot, featureTrack)
	featureScore := (cos + 1) / 2

	return tr.cfg.DistanceWeight*distanceScore + tr.cfg.FeatureWeight*featureScore
}

// Update runs one tracking tick over the given robot observations (spec.md
// §4.3.3). Robots are mutated in place: matched and newly born tracks are
// written back via robot.ApplyTrack.
func (tr *Tracker) Update(robots []*robot.Robot, timestamp time.Time) {
	for _, t := range tr.tracks {
		t.predict(timestamp, tr.cfg)
	}

	cost := make([][]float64, len(tr.tracks))
	for i, t := range tr.tracks {
		row := make([]float64, len(robots))
		for j, r := range robots {
			row[j] = tr.calculateCost(t, r)
		}
		cost[i] = row
	}
	match := auction(cost, tr.cfg.MaxIter)

	matchedRobot := make([]bool, len(robots))
	for ti, t := range tr.tracks {
		robotIdx := match[ti]
		if robotIdx == NotMatched {
			t.markUnmatched(tr.cfg)
			continue
		}

		r := robots[robotIdx]
		if loc, ok := r.Location(); ok {
			t.update(loc, r.Feature(tr.cfg.ClassNum), tr.cfg)
		}
		r.ApplyTrack(t.trackInfo())
		matchedRobot[robotIdx] = true
	}

	for ri, r := range robots {
		if matchedRobot[ri] {
			continue
		}
		if !r.IsDetected() || !r.IsLocated() {
			continue
		}
		loc, _ := r.Location()
		newT := newTrack(tr.nextID, loc, r.Feature(tr.cfg.ClassNum), timestamp, tr.cfg)
		tr.nextID++
		r.ApplyTrack(newT.trackInfo())
		tr.tracks = append(tr.tracks, newT)
	}

	filtered := tr.tracks[:0]
	for _, t := range tr.tracks {
		if t.State() != Deleted {
			filtered = append(filtered, t)
		}
	}
	tr.tracks = filtered
}
