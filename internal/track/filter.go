package track

import "math"

// singerAxis is a single-axis Singer maneuvering-target filter: state
// [position, velocity, acceleration], with exponentially correlated
// acceleration (time constant tau). The three spatial axes are modeled as
// independent (no cross-axis coupling), so a Track's filter state is three
// of these rather than one coupled 9x9 system — mirroring the teacher's
// habit of hand-unrolling small fixed-size Kalman matrices instead of
// reaching for a general linear-algebra package on the hot path.
type singerAxis struct {
	mean [3]float64    // [p, v, a]
	cov  [3][3]float64 // P
}

func newSingerAxis(position, initialVar float64) singerAxis {
	return singerAxis{
		mean: [3]float64{position, 0, 0},
		cov: [3][3]float64{
			{initialVar, 0, 0},
			{0, initialVar, 0},
			{0, 0, initialVar},
		},
	}
}

// predict advances the axis by dt using the Singer transition matrix
// parameterized by alpha = 1/tau, and adds the corresponding closed-form
// process noise (Singer 1970), scaled by maxAcceleration^2.
func (s *singerAxis) predict(dt, alpha, maxAcceleration float64) {
	if dt <= 0 {
		return
	}

	f := singerTransition(dt, alpha)
	q := singerProcessNoise(dt, alpha, maxAcceleration*maxAcceleration)

	// mean' = F * mean
	var m [3]float64
	for i := 0; i < 3; i++ {
		m[i] = f[i][0]*s.mean[0] + f[i][1]*s.mean[1] + f[i][2]*s.mean[2]
	}
	s.mean = m

	// cov' = F * P * F^T + Q
	var fp [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			fp[i][j] = f[i][0]*s.cov[0][j] + f[i][1]*s.cov[1][j] + f[i][2]*s.cov[2][j]
		}
	}
	var fpft [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			fpft[i][j] = fp[i][0]*f[j][0] + fp[i][1]*f[j][1] + fp[i][2]*f[j][2]
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s.cov[i][j] = fpft[i][j] + q[i][j]
		}
	}
}

// update performs a Kalman measurement update observing position only,
// with scalar observation noise variance r.
func (s *singerAxis) update(measurement, r float64) {
	innovationCov := s.cov[0][0] + r
	if innovationCov == 0 {
		return
	}
	k := [3]float64{s.cov[0][0] / innovationCov, s.cov[1][0] / innovationCov, s.cov[2][0] / innovationCov}

	innovation := measurement - s.mean[0]
	for i := 0; i < 3; i++ {
		s.mean[i] += k[i] * innovation
	}

	// P' = (I - K H) P, H = [1 0 0]
	var newCov [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			newCov[i][j] = s.cov[i][j] - k[i]*s.cov[0][j]
		}
	}
	s.cov = newCov
}

func (s *singerAxis) position() float64 { return s.mean[0] }

// singerTransition returns the 3x3 Singer state transition matrix for
// [position, velocity, acceleration] over dt, with correlation rate alpha.
func singerTransition(dt, alpha float64) [3][3]float64 {
	if alpha <= 0 {
		// tau -> infinity degenerates to a constant-acceleration model.
		return [3][3]float64{
			{1, dt, dt * dt / 2},
			{0, 1, dt},
			{0, 0, 1},
		}
	}
	eat := math.Exp(-alpha * dt)
	return [3][3]float64{
		{1, dt, (alpha*dt - 1 + eat) / (alpha * alpha)},
		{0, 1, (1 - eat) / alpha},
		{0, 0, eat},
	}
}

// singerProcessNoise returns the closed-form discrete process noise
// covariance for the Singer model (Singer, 1970), with q = 2*alpha*sigma2
// the spectral density implied by maximum acceleration sigma2.
func singerProcessNoise(dt, alpha, sigma2 float64) [3][3]float64 {
	if alpha <= 0 || dt <= 0 {
		return [3][3]float64{}
	}
	a := alpha * dt
	ea := math.Exp(-a)
	e2a := math.Exp(-2 * a)
	q := 2 * alpha * sigma2

	q11 := (1 - e2a + 2*a + (2*a*a*a)/3 - 2*a*a - 4*a*ea) / (2 * math.Pow(alpha, 5))
	q12 := (e2a + 1 - 2*ea + 2*a*ea - 2*a + a*a) / (2 * math.Pow(alpha, 4))
	q13 := (1 - e2a - 2*a*ea) / (2 * math.Pow(alpha, 3))
	q22 := (4*ea - 3 - e2a + 2*a) / (2 * math.Pow(alpha, 3))
	q23 := (e2a + 1 - 2*ea) / (2 * alpha * alpha)
	q33 := (1 - e2a) / (2 * alpha)

	return [3][3]float64{
		{q * q11, q * q12, q * q13},
		{q * q12, q * q22, q * q23},
		{q * q13, q * q23, q * q33},
	}
}
