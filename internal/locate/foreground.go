package locate

import (
	"sync"

	"github.com/Tianran-W/rm-radar/internal/robot"
)

// rebuildDiff recomputes the diff depth image (spec.md §4.2.1 step 5): for
// every frame in the queue, for each pixel with a nonzero reading, compute
// delta = background[v,u] - frame[v,u]; if delta falls within
// [minDepthDiff, maxDepthDiff], the pixel is foreground and its depth is
// copied into diff. The band rejects both sensor noise (too small a delta)
// and unrelated far-field motion (too large a delta).
//
// Frames are processed independently and concurrently; each writes only to
// pixels it owns a nonzero reading for, so races are limited to the
// "last-writer-wins" case the spec explicitly accepts for depth_image
// writes at a shared pixel.
func rebuildDiff(bg *background, frames []*depthGrid, minDepthDiff, maxDepthDiff float32) *depthGrid {
	diff := newDepthGrid(bg.grid.rows, bg.grid.cols)
	if len(frames) == 0 {
		return diff
	}

	var wg sync.WaitGroup
	for _, frame := range frames {
		wg.Add(1)
		go func(frame *depthGrid) {
			defer wg.Done()
			for i, value := range frame.data {
				if value == 0 {
					continue
				}
				delta := bg.grid.data[i] - value
				if delta >= minDepthDiff && delta <= maxDepthDiff {
					diff.data[i] = value
				}
			}
		}(frame)
	}
	wg.Wait()
	return diff
}

// foregroundPoint pairs a LiDAR-frame point reconstructed from the diff
// image with the zoomed pixel it came from.
type foregroundPoint struct {
	Point robot.Point3
	U, V  int
}

// buildForeground reconstructs the foreground cloud from the diff depth
// image (spec.md §4.2.2 steps 1-2): for each non-zero pixel, back-project
// to the LiDAR frame and record the pixel -> foreground-index mapping.
func buildForeground(diff *depthGrid, t *transforms, zoomFactor float64) ([]foregroundPoint, map[[2]int]int) {
	points := make([]foregroundPoint, 0, len(diff.data)/8)
	index := make(map[[2]int]int, len(diff.data)/8)

	for v := 0; v < diff.rows; v++ {
		for u := 0; u < diff.cols; u++ {
			value := diff.at(u, v)
			if value == 0 {
				continue
			}
			p := t.cameraToLidar(float64(u), float64(v), float64(value), zoomFactor)
			index[[2]int{u, v}] = len(points)
			points = append(points, foregroundPoint{
				Point: robot.Point3{X: p[0], Y: p[1], Z: p[2]},
				U:     u,
				V:     v,
			})
		}
	}
	return points, index
}
