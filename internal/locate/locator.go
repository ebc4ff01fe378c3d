// Package locate implements the Locator: fusing an image-space bounding box
// with a LiDAR point cloud to compute a robot's 3-D field-frame position,
// using a depth-image background model and Euclidean clustering to reject
// static background and select the robot's point subset.
package locate

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Tianran-W/rm-radar/internal/monitoring"
	"github.com/Tianran-W/rm-radar/internal/robot"
)

// PointCloud is the consumed point-cloud interface (spec.md §6): an
// iterable of 3-D points in LiDAR frame units.
type PointCloud interface {
	Points() []robot.Point3
}

// SliceCloud adapts a plain slice of points to PointCloud.
type SliceCloud []robot.Point3

func (s SliceCloud) Points() []robot.Point3 { return []robot.Point3(s) }

// Config holds the Locator's construction-time parameters (spec.md §6:
// "Runtime parameters... are injected at construction time").
type Config struct {
	ImageWidth, ImageHeight int
	Intrinsic               Mat3 // K
	LidarToCamera           Mat4 // T_{L->C}
	WorldToCamera           Mat4 // T_{W->C}

	ZoomFactor float64 // (0,1]
	QueueSize  int

	MinDepthDiff, MaxDepthDiff float32
	MaxDistance                float64

	ClusterTolerance              float64
	MinClusterSize, MaxClusterSize int
}

// Locator fuses point clouds with image-space rectangles to locate robots
// in the world frame (spec.md §4.2).
type Locator struct {
	cfg        Config
	transforms *transforms

	zoomedWidth, zoomedHeight int

	depthImage     *depthGrid
	diffDepthImage *depthGrid
	background     *background
	queue          *frameQueue

	foregroundPoints  []foregroundPoint
	pixelIndex        map[[2]int]int
	clusterMembership map[int]int
}

// NewLocator constructs a Locator from the given configuration, deriving
// K^-1, T_{C->L} and T_{C->W} once. A zero or out-of-range ZoomFactor, or a
// non-positive image dimension, is a configuration error and panics
// immediately (category 2 in the error taxonomy); a singular calibration
// matrix is reported as an error instead, since it plausibly originates
// from bad external calibration data rather than a pure programming bug.
func NewLocator(cfg Config) (*Locator, error) {
	if cfg.ImageWidth <= 0 || cfg.ImageHeight <= 0 {
		panic("locate: image dimensions must be positive")
	}
	if cfg.ZoomFactor <= 0 || cfg.ZoomFactor > 1 {
		panic("locate: zoom factor must be in (0, 1]")
	}

	t, err := newTransforms(cfg.Intrinsic, cfg.LidarToCamera, cfg.WorldToCamera)
	if err != nil {
		return nil, err
	}

	zw := int(float64(cfg.ImageWidth) * cfg.ZoomFactor)
	zh := int(float64(cfg.ImageHeight) * cfg.ZoomFactor)
	if zw <= 0 || zh <= 0 {
		panic("locate: zoomed image dimensions must be positive")
	}

	return &Locator{
		cfg:            cfg,
		transforms:     t,
		zoomedWidth:    zw,
		zoomedHeight:   zh,
		depthImage:     newDepthGrid(zh, zw),
		diffDepthImage: newDepthGrid(zh, zw),
		background:     newBackground(zh, zw),
		queue:          newFrameQueue(cfg.QueueSize),
	}, nil
}

const epsilon = 1e-9

func isZeroPoint(p robot.Point3) bool {
	return p.X > -epsilon && p.X < epsilon &&
		p.Y > -epsilon && p.Y < epsilon &&
		p.Z > -epsilon && p.Z < epsilon
}

// Update processes a new point cloud (spec.md §4.2.1): projects every point
// into the zoomed depth image, folds the result into the running-maximum
// background model, and rebuilds the diff (foreground candidate) image
// from the depth frame queue.
func (l *Locator) Update(cloud PointCloud) {
	l.depthImage.zero()
	l.diffDepthImage.zero()

	if cloud == nil {
		monitoring.Logf("locate: cloud is null")
		return
	}
	points := cloud.Points()
	if len(points) == 0 {
		monitoring.Logf("locate: cloud is empty")
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(points) {
		workers = len(points)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(points) + workers - 1) / workers

	type localResult struct {
		depth *depthGrid
		max   *depthGrid
	}
	results := make([]localResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(points) {
			break
		}
		if end > len(points) {
			end = len(points)
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			localDepth := newDepthGrid(l.zoomedHeight, l.zoomedWidth)
			localMax := newDepthGrid(l.zoomedHeight, l.zoomedWidth)

			for _, p := range points[start:end] {
				if isZeroPoint(p) {
					continue
				}
				if p.X > l.cfg.MaxDistance {
					continue
				}
				proj := l.transforms.lidarToCameraPoint([3]float64{p.X, p.Y, p.Z}, l.cfg.ZoomFactor)
				u, v := int(proj.U), int(proj.V)
				if u < 0 || u >= l.zoomedWidth || v < 0 || v >= l.zoomedHeight {
					continue
				}
				d := float32(proj.D)
				localDepth.set(u, v, d)
				if d > localMax.at(u, v) {
					localMax.set(u, v, d)
				}
			}
			results[w] = localResult{depth: localDepth, max: localMax}
		}(w, start, end)
	}
	wg.Wait()

	for _, r := range results {
		if r.depth == nil {
			continue
		}
		for i, v := range r.depth.data {
			if v != 0 {
				l.depthImage.data[i] = v
			}
		}
		l.background.mergeMax(r.max)
	}

	l.queue.push(l.depthImage.clone())

	l.diffDepthImage = rebuildDiff(l.background, l.queue.all(), l.cfg.MinDepthDiff, l.cfg.MaxDepthDiff)
}

// Cluster recomputes the foreground cloud and cluster membership from the
// current diff depth image (spec.md §4.2.2).
func (l *Locator) Cluster() {
	l.foregroundPoints, l.pixelIndex = buildForeground(l.diffDepthImage, l.transforms, l.cfg.ZoomFactor)
	if len(l.foregroundPoints) == 0 {
		l.clusterMembership = map[int]int{}
		return
	}
	l.clusterMembership = euclideanCluster(l.foregroundPoints, l.cfg.ClusterTolerance, l.cfg.MinClusterSize, l.cfg.MaxClusterSize)
}

// zoomRect scales rect by ZoomFactor (size and position) and intersects it
// with the zoomed image bounds.
func (l *Locator) zoomRect(rect robot.Rect) (x, y, w, h int) {
	centerX := rect.X*l.cfg.ZoomFactor + rect.Width*l.cfg.ZoomFactor*0.5
	centerY := rect.Y*l.cfg.ZoomFactor + rect.Height*l.cfg.ZoomFactor*0.5

	rw := int(rect.Width * l.cfg.ZoomFactor)
	rh := int(rect.Height * l.cfg.ZoomFactor)
	rx := int(centerX - float64(rw)*0.5)
	ry := int(centerY - float64(rh)*0.5)

	// Intersect with [0, zoomedWidth) x [0, zoomedHeight).
	x0, y0 := rx, ry
	x1, y1 := rx+rw, ry+rh
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > l.zoomedWidth {
		x1 = l.zoomedWidth
	}
	if y1 > l.zoomedHeight {
		y1 = l.zoomedHeight
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, y0, x1 - x0, y1 - y0
}

// Search assigns r.Location from the current diff image and cluster
// membership (spec.md §4.2.3). Missing rect or empty candidate set leaves
// the location unset, per the failure semantics in spec.md §4.2.
func (l *Locator) Search(r *robot.Robot) {
	rect, ok := r.Rect()
	if !ok {
		return
	}

	x, y, w, h := l.zoomRect(rect)
	if w <= 0 || h <= 0 {
		return
	}

	candidates := make(map[int][]robot.Point3)
	for v := y; v < y+h; v++ {
		for u := x; u < x+w; u++ {
			if l.diffDepthImage.at(u, v) == 0 {
				continue
			}
			idx, ok := l.pixelIndex[[2]int{u, v}]
			if !ok {
				continue
			}
			clusterID, ok := l.clusterMembership[idx]
			if !ok {
				clusterID = -1
			}
			candidates[clusterID] = append(candidates[clusterID], l.foregroundPoints[idx].Point)
		}
	}
	if len(candidates) == 0 {
		return
	}

	ids := make([]int, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bestID := ids[0]
	for _, id := range ids[1:] {
		if len(candidates[id]) > len(candidates[bestID]) {
			bestID = id
		}
	}

	pts := candidates[bestID]
	var sum robot.Point3
	for _, p := range pts {
		sum = sum.Add(p)
	}
	centroid := sum.Scale(1.0 / float64(len(pts)))

	world := l.transforms.lidarToWorld([3]float64{centroid.X, centroid.Y, centroid.Z})
	r.SetLocation(robot.Point3{X: world[0], Y: world[1], Z: world[2]})
}

// SearchAll fans Search out in parallel over robots (spec.md §4.2.3): the
// Locator's structures are read-only during this phase, so concurrent
// Search calls on disjoint robots are safe.
func (l *Locator) SearchAll(robots []*robot.Robot) {
	var wg sync.WaitGroup
	for _, r := range robots {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Search(r)
		}()
	}
	wg.Wait()
}

// String reports the Locator's current zoomed resolution, useful for
// diagnostics.
func (l *Locator) String() string {
	return fmt.Sprintf("Locator{%dx%d zoomed, queue=%d/%d}", l.zoomedWidth, l.zoomedHeight, len(l.queue.all()), l.queue.size)
}
