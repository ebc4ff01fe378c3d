package locate

import "math"

// spatialIndex is a uniform grid over 3-D points sized to the clustering
// tolerance, giving near-O(1) neighbor queries. Grounded on the teacher's
// internal/lidar/clustering.go SpatialIndex (same Szudzik-pairing cell-id
// scheme), generalized here from 2-D (x,y) to 3-D (x,y,z) buckets since the
// foreground cloud here lives in the LiDAR frame rather than a ground-plane
// world frame.
type spatialIndex struct {
	cellSize float64
	buckets  map[int64][]int
}

func newSpatialIndex(cellSize float64) *spatialIndex {
	if cellSize <= 0 {
		cellSize = 0.1
	}
	return &spatialIndex{cellSize: cellSize, buckets: make(map[int64][]int)}
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// pair combines two zigzag-encoded cell coordinates via Szudzik's pairing
// function, then folds in a third (z) coordinate the same way.
func pair(a, b int64) int64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func (s *spatialIndex) cellID(x, y, z float64) int64 {
	cx := zigzag(int64(math.Floor(x / s.cellSize)))
	cy := zigzag(int64(math.Floor(y / s.cellSize)))
	cz := zigzag(int64(math.Floor(z / s.cellSize)))
	return pair(pair(cx, cy), cz)
}

func (s *spatialIndex) build(points []foregroundPoint) {
	s.buckets = make(map[int64][]int, len(points)/4+1)
	for i, p := range points {
		id := s.cellID(p.Point.X, p.Point.Y, p.Point.Z)
		s.buckets[id] = append(s.buckets[id], i)
	}
}

// neighbors returns indices of points within tolerance of points[idx],
// searching the 3x3x3 block of cells around it.
func (s *spatialIndex) neighbors(points []foregroundPoint, idx int, tolerance float64) []int {
	p := points[idx].Point
	tol2 := tolerance * tolerance

	cx := int64(math.Floor(p.X / s.cellSize))
	cy := int64(math.Floor(p.Y / s.cellSize))
	cz := int64(math.Floor(p.Z / s.cellSize))

	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				id := pair(pair(zigzag(cx+dx), zigzag(cy+dy)), zigzag(cz+dz))
				for _, j := range s.buckets[id] {
					if j == idx {
						continue
					}
					q := points[j].Point
					d2 := (p.X-q.X)*(p.X-q.X) + (p.Y-q.Y)*(p.Y-q.Y) + (p.Z-q.Z)*(p.Z-q.Z)
					if d2 <= tol2 {
						out = append(out, j)
					}
				}
			}
		}
	}
	return out
}

// euclideanCluster groups points into connected components within
// tolerance (BFS flood fill, matching PCL's EuclideanClusterExtraction
// connectivity semantics rather than DBSCAN's density/core-point
// semantics), then discards components outside [minSize, maxSize]. Returns
// point-index -> cluster-id for points belonging to an accepted cluster;
// points in components outside the size bounds are absent from the map
// (treated as unclustered, id -1, at search time).
func euclideanCluster(points []foregroundPoint, tolerance float64, minSize, maxSize int) map[int]int {
	membership := make(map[int]int)
	if len(points) == 0 {
		return membership
	}

	index := newSpatialIndex(tolerance)
	index.build(points)

	visited := make([]bool, len(points))
	clusterID := 0

	for start := range points {
		if visited[start] {
			continue
		}
		// BFS from start.
		queue := []int{start}
		visited[start] = true
		component := []int{start}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range index.neighbors(points, cur, tolerance) {
				if visited[n] {
					continue
				}
				visited[n] = true
				component = append(component, n)
				queue = append(queue, n)
			}
		}

		if len(component) >= minSize && len(component) <= maxSize {
			for _, idx := range component {
				membership[idx] = clusterID
			}
			clusterID++
		}
	}

	return membership
}
