package locate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Mat4 is a row-major 4x4 homogeneous transform.
type Mat4 [4][4]float64

// transforms bundles the derived, construction-time-only matrices the
// Locator needs on its per-point hot path. Deriving them (matrix inversion)
// uses gonum/mat once, at construction; the per-point application below is
// hand-rolled float64 arithmetic, matching the teacher's and the original
// C++ source's hot-path style (see DESIGN.md).
type transforms struct {
	intrinsic    Mat3 // K
	intrinsicInv Mat3 // K^-1

	lidarToCamera Mat4 // T_{L->C}

	camToLidarRotate Mat3    // R_{C->L}
	camToLidarTrans  [3]float64 // t_{C->L}

	camToWorld Mat4 // T_{C->W}
}

func mat3ToDense(m Mat3) *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

func denseToMat3(d mat.Matrix) Mat3 {
	var m Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

func mat4ToDense(m Mat4) *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

func denseToMat4(d mat.Matrix) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// newTransforms derives K^-1, T_{C->L} (split into R_{C->L}/t_{C->L}) and
// T_{C->W} from the configured intrinsic/extrinsic matrices. A singular
// matrix is returned as an error naming which matrix could not be inverted.
func newTransforms(intrinsic Mat3, lidarToCamera, worldToCamera Mat4) (*transforms, error) {
	kInv := mat.NewDense(3, 3, nil)
	if err := kInv.Inverse(mat3ToDense(intrinsic)); err != nil {
		return nil, fmt.Errorf("locate: intrinsic matrix is singular: %w", err)
	}

	camToLidarDense := mat.NewDense(4, 4, nil)
	if err := camToLidarDense.Inverse(mat4ToDense(lidarToCamera)); err != nil {
		return nil, fmt.Errorf("locate: lidar-to-camera extrinsic is singular: %w", err)
	}
	camToLidar := denseToMat4(camToLidarDense)

	var rotate Mat3
	var translate [3]float64
	for i := 0; i < 3; i++ {
		translate[i] = camToLidar[i][3]
		for j := 0; j < 3; j++ {
			rotate[i][j] = camToLidar[i][j]
		}
	}

	camToWorldDense := mat.NewDense(4, 4, nil)
	if err := camToWorldDense.Inverse(mat4ToDense(worldToCamera)); err != nil {
		return nil, fmt.Errorf("locate: world-to-camera extrinsic is singular: %w", err)
	}

	return &transforms{
		intrinsic:        intrinsic,
		intrinsicInv:     denseToMat3(kInv),
		lidarToCamera:    lidarToCamera,
		camToLidarRotate: rotate,
		camToLidarTrans:  translate,
		camToWorld:       denseToMat4(camToWorldDense),
	}, nil
}

// projected is the result of projecting a LiDAR-frame point into the zoomed
// depth image: pixel coordinates plus camera-frame depth (raw units).
type projected struct {
	U, V float64
	D    float64
}

// lidarToCameraPoint projects a LiDAR-frame point through T_{L->C} then K,
// dividing by depth and scaling pixel coordinates by zoomFactor.
func (t *transforms) lidarToCameraPoint(p [3]float64, zoomFactor float64) projected {
	lx := t.lidarToCamera[0][0]*p[0] + t.lidarToCamera[0][1]*p[1] + t.lidarToCamera[0][2]*p[2] + t.lidarToCamera[0][3]
	ly := t.lidarToCamera[1][0]*p[0] + t.lidarToCamera[1][1]*p[1] + t.lidarToCamera[1][2]*p[2] + t.lidarToCamera[1][3]
	lz := t.lidarToCamera[2][0]*p[0] + t.lidarToCamera[2][1]*p[1] + t.lidarToCamera[2][2]*p[2] + t.lidarToCamera[2][3]

	cx := t.intrinsic[0][0]*lx + t.intrinsic[0][1]*ly + t.intrinsic[0][2]*lz
	cy := t.intrinsic[1][0]*lx + t.intrinsic[1][1]*ly + t.intrinsic[1][2]*lz
	cz := t.intrinsic[2][0]*lx + t.intrinsic[2][1]*ly + t.intrinsic[2][2]*lz

	if cz == 0 {
		return projected{}
	}
	return projected{
		U: cx * zoomFactor / cz,
		V: cy * zoomFactor / cz,
		D: cz,
	}
}

// cameraToLidar back-projects a zoomed pixel + depth into the LiDAR frame:
// forms the pixel homogeneous (u/zoom, v/zoom, 1), back-projects by K^-1*d,
// translates by t_{C->L}, rotates by R_{C->L}.
func (t *transforms) cameraToLidar(u, v, depth, zoomFactor float64) [3]float64 {
	px := u / zoomFactor
	py := v / zoomFactor

	bx := t.intrinsicInv[0][0]*px + t.intrinsicInv[0][1]*py + t.intrinsicInv[0][2]
	by := t.intrinsicInv[1][0]*px + t.intrinsicInv[1][1]*py + t.intrinsicInv[1][2]
	bz := t.intrinsicInv[2][0]*px + t.intrinsicInv[2][1]*py + t.intrinsicInv[2][2]

	bx *= depth
	by *= depth
	bz *= depth

	bx += t.camToLidarTrans[0]
	by += t.camToLidarTrans[1]
	bz += t.camToLidarTrans[2]

	rx := t.camToLidarRotate[0][0]*bx + t.camToLidarRotate[0][1]*by + t.camToLidarRotate[0][2]*bz
	ry := t.camToLidarRotate[1][0]*bx + t.camToLidarRotate[1][1]*by + t.camToLidarRotate[1][2]*bz
	rz := t.camToLidarRotate[2][0]*bx + t.camToLidarRotate[2][1]*by + t.camToLidarRotate[2][2]*bz

	return [3]float64{rx, ry, rz}
}

// lidarToWorld applies T_{L->C} then T_{C->W}.
func (t *transforms) lidarToWorld(p [3]float64) [3]float64 {
	lx := t.lidarToCamera[0][0]*p[0] + t.lidarToCamera[0][1]*p[1] + t.lidarToCamera[0][2]*p[2] + t.lidarToCamera[0][3]
	ly := t.lidarToCamera[1][0]*p[0] + t.lidarToCamera[1][1]*p[1] + t.lidarToCamera[1][2]*p[2] + t.lidarToCamera[1][3]
	lz := t.lidarToCamera[2][0]*p[0] + t.lidarToCamera[2][1]*p[1] + t.lidarToCamera[2][2]*p[2] + t.lidarToCamera[2][3]

	wx := t.camToWorld[0][0]*lx + t.camToWorld[0][1]*ly + t.camToWorld[0][2]*lz + t.camToWorld[0][3]
	wy := t.camToWorld[1][0]*lx + t.camToWorld[1][1]*ly + t.camToWorld[1][2]*lz + t.camToWorld[1][3]
	wz := t.camToWorld[2][0]*lx + t.camToWorld[2][1]*ly + t.camToWorld[2][2]*lz + t.camToWorld[2][3]

	return [3]float64{wx, wy, wz}
}
