// Package robot implements per-frame robot assembly: merging a car
// detection with the armor detections found inside it into a single Robot
// entity, and the optional-field bookkeeping (isDetected/isLocated) that
// the rest of the pipeline relies on.
package robot

import "fmt"

// TrackState mirrors the lifecycle state of the Track associated with a
// Robot, copied in by the tracker via ApplyTrack.
type TrackState int

const (
	TrackTentative TrackState = iota
	TrackConfirmed
	TrackDeleted
)

func (s TrackState) String() string {
	switch s {
	case TrackTentative:
		return "Tentative"
	case TrackConfirmed:
		return "Confirmed"
	case TrackDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// TrackInfo is the value-transfer payload the tracker writes back into a
// Robot after matching. Passing this plain struct (rather than a *Track)
// keeps internal/track from needing to be imported by internal/robot,
// resolving the Track<->Robot cyclic-ownership coupling noted in the design
// by value transfer instead of a dependency cycle.
type TrackInfo struct {
	State       TrackState
	Label       int
	HasLabel    bool
	Location    Point3
	HasLocation bool
}

// Robot is the per-frame working entity, rebuilt each tick from a car
// detection plus the armor detections found inside its rectangle.
type Robot struct {
	rect        Rect
	hasRect     bool
	label       int
	hasLabel    bool
	confidence  float64
	hasConf     bool
	armors      []Detection
	location    Point3
	hasLocation bool
	trackState  TrackState
	hasTrack    bool
}

// NewRobot builds a Robot from a car detection and the armor detections
// that fall inside the car's rectangle. Armor coordinates are translated
// from detection-local space into absolute image space: an armor's
// absolute position equals its detection-local position plus the car's
// top-left corner.
func NewRobot(car Detection, armors []Detection) *Robot {
	r := &Robot{
		rect:    car.Rect(),
		hasRect: true,
	}
	r.setArmors(car, armors)
	return r
}

func (r *Robot) setArmors(car Detection, armors []Detection) {
	if len(armors) == 0 {
		return
	}

	// Accumulate confidence per label, then pick the argmax label.
	scores := make(map[int]float64, len(armors))
	for _, a := range armors {
		scores[a.Label] += a.Confidence
	}
	bestLabel := 0
	bestScore := -1.0
	first := true
	for label, score := range scores {
		if first || score > bestScore {
			bestLabel, bestScore = label, score
			first = false
		}
	}
	count := 0
	for _, a := range armors {
		if a.Label == bestLabel {
			count++
		}
	}
	if count == 0 {
		return
	}

	r.label = bestLabel
	r.hasLabel = true
	r.confidence = bestScore / float64(count)
	r.hasConf = true

	shifted := make([]Detection, len(armors))
	for i, a := range armors {
		shifted[i] = a
		shifted[i].X += car.X
		shifted[i].Y += car.Y
	}
	r.armors = shifted
}

// IsDetected reports whether the robot carries a winning armor label.
func (r *Robot) IsDetected() bool { return r.hasLabel }

// IsLocated reports whether the robot has a 3-D field-frame location.
func (r *Robot) IsLocated() bool { return r.hasLocation }

// Rect returns the car's image-space rectangle, if any.
func (r *Robot) Rect() (Rect, bool) { return r.rect, r.hasRect }

// Label returns the robot's class label, if detected.
func (r *Robot) Label() (int, bool) { return r.label, r.hasLabel }

// Confidence returns the mean confidence of the winning-label armors.
func (r *Robot) Confidence() (float64, bool) { return r.confidence, r.hasConf }

// Armors returns the armor detections with coordinates in absolute image
// space.
func (r *Robot) Armors() []Detection { return r.armors }

// Location returns the robot's 3-D field-frame location, if located.
func (r *Robot) Location() (Point3, bool) { return r.location, r.hasLocation }

// SetLocation sets the robot's 3-D field-frame location. Called by the
// Locator.
func (r *Robot) SetLocation(p Point3) {
	r.location = p
	r.hasLocation = true
}

// TrackState returns the track state last copied in via ApplyTrack.
func (r *Robot) TrackState() (TrackState, bool) { return r.trackState, r.hasTrack }

// Feature returns a length-classNum vector whose i-th entry is the sum of
// confidences of armors with label i, L1-normalized. If no armors were
// detected or the sum is zero, the zero vector is returned.
func (r *Robot) Feature(classNum int) []float64 {
	feature := make([]float64, classNum)
	if !r.hasLabel {
		return feature
	}
	sum := 0.0
	for _, a := range r.armors {
		if a.Label >= 0 && a.Label < classNum {
			feature[a.Label] += a.Confidence
			sum += a.Confidence
		}
	}
	if sum == 0 {
		return feature
	}
	for i := range feature {
		feature[i] /= sum
	}
	return feature
}

// ApplyTrack copies the track's state into the robot per the setTrack
// contract (spec.md §4.3.4): a Confirmed track always overwrites the
// robot's label/location; a Tentative track only fills them in if the
// robot doesn't already have them.
func (r *Robot) ApplyTrack(info TrackInfo) {
	r.trackState = info.State
	r.hasTrack = true

	if info.State == TrackConfirmed {
		if info.HasLabel {
			r.label = info.Label
			r.hasLabel = true
		}
		if info.HasLocation {
			r.location = info.Location
			r.hasLocation = true
		}
		return
	}

	// Tentative: only fill gaps.
	if !r.hasLabel && info.HasLabel {
		r.label = info.Label
		r.hasLabel = true
	}
	if !r.hasLocation && info.HasLocation {
		r.location = info.Location
		r.hasLocation = true
	}
}

func (r *Robot) String() string {
	label := "None"
	if r.hasLabel {
		label = fmt.Sprintf("%d", r.label)
	}
	rect := "None"
	if r.hasRect {
		rect = fmt.Sprintf("[%.1f, %.1f, %.1f, %.1f]", r.rect.X, r.rect.Y, r.rect.Width, r.rect.Height)
	}
	conf := "None"
	if r.hasConf {
		conf = fmt.Sprintf("%.3f", r.confidence)
	}
	state := "None"
	if r.hasTrack {
		state = r.trackState.String()
	}
	loc := "None"
	if r.hasLocation {
		loc = fmt.Sprintf("[%.3f, %.3f, %.3f]", r.location.X, r.location.Y, r.location.Z)
	}
	return fmt.Sprintf("Robot: { Label: %s, Rect: %s, Confidence: %s, State: %s, Location: %s }",
		label, rect, conf, state, loc)
}
