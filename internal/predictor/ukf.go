package predictor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-its/camquality/internal/geoprojection"
	"github.com/relabs-its/camquality/internal/logging"
	"github.com/relabs-its/camquality/internal/model"
)

// ukfStateDim is the dimensionality of the UKF state vector [x, y, theta, v, a, omega].
const ukfStateDim = 6

// Unscented transform tuning parameters, fixed per spec.md §4.4.3.
const (
	ukfAlpha = 0.5
	ukfBeta  = 2.0
	ukfKappa = 0.0
)

// UKFPredictor tracks a station's 6D kinematic state [x, y, θ, v, a, ω] with
// an Unscented Kalman Filter. Its process model always uses the shared
// clamped constant-turn-rate-and-acceleration closed form (applyCTRA), even
// at or below YawRateThreshold, where SimplePredictor and
// FactorGraphPredictor use the CV model instead.
type UKFPredictor struct {
	basePredictor
	state      *mat.VecDense
	covariance *mat.SymDense
	processVar []float64
	measVar    []float64
}

// NewUKF builds a UKFPredictor with its state uninitialized until the first Predict call.
func NewUKF() *UKFPredictor {
	u := &UKFPredictor{}
	u.Configure()
	return u
}

func (u *UKFPredictor) Configure() {
	u.processVar = []float64{0.05, 0.05, 0.01, 0.2, 0.5, 0.05}
	u.measVar = []float64{0.5, 0.5, 0.05, 0.5, 1.0, 0.1}
	u.resetFilterState()
}

// Reset reinitializes the filter's state and covariance to zero/high
// uncertainty and clears the reference frame, per spec.md §4.4.3's
// documented no-accumulated-bias-carry-over behavior.
func (u *UKFPredictor) Reset() {
	u.basePredictor = basePredictor{}
	u.resetFilterState()
}

func (u *UKFPredictor) resetFilterState() {
	u.state = mat.NewVecDense(ukfStateDim, nil)
	cov := make([]float64, ukfStateDim*ukfStateDim)
	for i := 0; i < ukfStateDim; i++ {
		cov[i*ukfStateDim+i] = 100.0
	}
	u.covariance = mat.NewSymDense(ukfStateDim, cov)
}

// Predict advances the filter by one step: it first absorbs the newest
// history sample as a measurement of [x, y, θ, v, a, ω] via the standard
// UKF predict/update cycle, then reads the projected pose back out of the
// updated state.
func (u *UKFPredictor) Predict(history []model.Position, kinematics model.Kinematics) model.Position {
	if !u.primed {
		u.setReferencePosition(history[0])
		u.seedState(history[0], kinematics)
	}

	last := history[len(history)-1]
	t := timeStep(history, u.referenceTime)

	sigmaPts, wm, wc := u.generateSigmaPoints()

	propagated := make([]*mat.VecDense, len(sigmaPts))
	for i, sp := range sigmaPts {
		propagated[i] = u.processModel(sp, t)
	}

	predState, predCov := unscentedMean(propagated, wm, wc, u.processVar)

	xy := geoprojection.ToCartesian(u.reference, geoprojection.LatLon{Lat: last.Latitude(), Lon: last.Longitude()})
	z := mat.NewVecDense(ukfStateDim, []float64{
		xy.X,
		xy.Y,
		last.Heading().Value(),
		kinematics.Speed.Value(),
		kinematics.Acceleration.Longitudinal(),
		kinematics.YawRate.Value(),
	})

	newState, newCov, err := ukfUpdate(predState, predCov, z, u.measVar)
	if err != nil {
		logging.Logger.WithError(err).Warn("ukf update failed to invert innovation covariance, using predicted state")
		newState, newCov = predState, predCov
	}

	u.state = newState
	u.covariance = newCov

	wgs := geoprojection.FromCartesian(u.reference, geoprojection.XY{X: newState.AtVec(0), Y: newState.AtVec(1)})
	u.lastPrediction = last.Step(wgs.Lat, wgs.Lon, newState.AtVec(2))
	return u.lastPrediction
}

func (u *UKFPredictor) seedState(first model.Position, kinematics model.Kinematics) {
	u.state.SetVec(0, 0)
	u.state.SetVec(1, 0)
	u.state.SetVec(2, first.Heading().Value())
	u.state.SetVec(3, kinematics.Speed.Value())
	u.state.SetVec(4, kinematics.Acceleration.Longitudinal())
	u.state.SetVec(5, kinematics.YawRate.Value())
}

// processModel advances one sigma point by t seconds using the shared
// clamped-CTRA closed form for x,y,θ, and a simple first-order hold for
// v, a, ω — it does not reproduce the upstream behavior of leaving x,y
// unmodified below the yaw-rate threshold, since that would violate the
// always-finite, always-advancing prediction guarantee this pipeline
// requires of every predictor.
func (u *UKFPredictor) processModel(sp *mat.VecDense, t float64) *mat.VecDense {
	x, y, theta, v, a, w := sp.AtVec(0), sp.AtVec(1), sp.AtVec(2), sp.AtVec(3), sp.AtVec(4), sp.AtVec(5)

	nx, ny, ntheta := applyCTRA(x, y, theta, v, a, w, t)

	return mat.NewVecDense(ukfStateDim, []float64{nx, ny, ntheta, v + a*t, a, w})
}

// generateSigmaPoints builds the 2n+1 unscented sigma points for the
// current state/covariance plus their mean/covariance weights.
func (u *UKFPredictor) generateSigmaPoints() ([]*mat.VecDense, []float64, []float64) {
	n := float64(ukfStateDim)
	lambda := ukfAlpha*ukfAlpha*(n+ukfKappa) - n

	var chol mat.Cholesky
	scaled := mat.NewSymDense(ukfStateDim, nil)
	for i := 0; i < ukfStateDim; i++ {
		for j := 0; j < ukfStateDim; j++ {
			scaled.SetSym(i, j, u.covariance.At(i, j)*(n+lambda))
		}
	}

	ok := chol.Factorize(scaled)

	var sqrtCov mat.Dense
	if ok {
		var l mat.TriDense
		chol.LTo(&l)
		sqrtCov.CloneFrom(&l)
	} else {
		// Non-positive-definite covariance: fall back to a diagonal
		// square root so sigma-point generation never panics.
		sqrtCov = *mat.NewDense(ukfStateDim, ukfStateDim, nil)
		for i := 0; i < ukfStateDim; i++ {
			v := scaled.At(i, i)
			if v < 0 {
				v = 0
			}
			sqrtCov.Set(i, i, math.Sqrt(v))
		}
	}

	points := make([]*mat.VecDense, 2*ukfStateDim+1)
	points[0] = mat.VecDenseCopyOf(u.state)

	for i := 0; i < ukfStateDim; i++ {
		col := mat.Col(nil, i, &sqrtCov)
		plus := mat.NewVecDense(ukfStateDim, nil)
		minus := mat.NewVecDense(ukfStateDim, nil)
		for j := 0; j < ukfStateDim; j++ {
			plus.SetVec(j, u.state.AtVec(j)+col[j])
			minus.SetVec(j, u.state.AtVec(j)-col[j])
		}
		points[i+1] = plus
		points[ukfStateDim+i+1] = minus
	}

	wm := make([]float64, len(points))
	wc := make([]float64, len(points))
	wm[0] = lambda / (n + lambda)
	wc[0] = wm[0] + (1 - ukfAlpha*ukfAlpha + ukfBeta)
	for i := 1; i < len(points); i++ {
		wm[i] = 1 / (2 * (n + lambda))
		wc[i] = wm[i]
	}

	return points, wm, wc
}

// unscentedMean recombines propagated sigma points into a mean and
// covariance, adding diagonal process noise.
func unscentedMean(points []*mat.VecDense, wm, wc []float64, processVar []float64) (*mat.VecDense, *mat.SymDense) {
	mean := mat.NewVecDense(ukfStateDim, nil)
	for i, p := range points {
		for j := 0; j < ukfStateDim; j++ {
			mean.SetVec(j, mean.AtVec(j)+wm[i]*p.AtVec(j))
		}
	}

	cov := mat.NewSymDense(ukfStateDim, nil)
	for i, p := range points {
		diff := mat.NewVecDense(ukfStateDim, nil)
		diff.SubVec(p, mean)
		for a := 0; a < ukfStateDim; a++ {
			for b := a; b < ukfStateDim; b++ {
				cov.SetSym(a, b, cov.At(a, b)+wc[i]*diff.AtVec(a)*diff.AtVec(b))
			}
		}
	}
	for i := 0; i < ukfStateDim; i++ {
		cov.SetSym(i, i, cov.At(i, i)+processVar[i])
	}

	return mean, cov
}

// ukfUpdate performs the measurement-update half of the filter cycle using
// an identity measurement model (every state component is directly
// observed from the decoded CAM fields).
func ukfUpdate(predState *mat.VecDense, predCov *mat.SymDense, z *mat.VecDense, measVar []float64) (*mat.VecDense, *mat.SymDense, error) {
	innovation := mat.NewVecDense(ukfStateDim, nil)
	innovation.SubVec(z, predState)

	s := mat.NewSymDense(ukfStateDim, nil)
	for i := 0; i < ukfStateDim; i++ {
		for j := 0; j < ukfStateDim; j++ {
			s.SetSym(i, j, predCov.At(i, j))
		}
	}
	for i := 0; i < ukfStateDim; i++ {
		s.SetSym(i, i, s.At(i, i)+measVar[i])
	}

	var sInv mat.Dense
	if err := sInv.Inverse(s); err != nil {
		return nil, nil, err
	}

	var k mat.Dense
	k.Mul(predCov, &sInv)

	var correction mat.VecDense
	correction.MulVec(&k, innovation)

	newState := mat.NewVecDense(ukfStateDim, nil)
	newState.AddVec(predState, &correction)

	// Measurement model is the identity, so K*H collapses to K.
	ident := mat.NewDense(ukfStateDim, ukfStateDim, identity(ukfStateDim))
	var iMinusK mat.Dense
	iMinusK.Sub(ident, &k)

	var newCovDense mat.Dense
	newCovDense.Mul(&iMinusK, predCov)

	newCov := mat.NewSymDense(ukfStateDim, nil)
	for i := 0; i < ukfStateDim; i++ {
		for j := i; j < ukfStateDim; j++ {
			v := (newCovDense.At(i, j) + newCovDense.At(j, i)) / 2
			newCov.SetSym(i, j, v)
		}
	}

	return newState, newCov, nil
}

func identity(n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		out[i*n+i] = 1.0
	}
	return out
}
