package predictor

import (
	"math"

	"github.com/relabs-its/camquality/internal/model"
)

// YawRateThreshold is the |yaw rate| above which the CTRA model is selected
// over CV, in the deg/s scale model.YawRate.Value returns. At exactly the threshold CV is used (inclusive on the
// CV side, per the boundary decision spec.md §8/§9 calls out explicitly).
const YawRateThreshold = 2.0

// selectCTRA reports whether the CTRA motion model applies: forced, or the
// yaw rate magnitude exceeds YawRateThreshold.
func selectCTRA(yawRate float64, force bool) bool {
	if force {
		return true
	}
	return math.Abs(yawRate) > YawRateThreshold
}

// applyCV is the constant-velocity model. It applies v uncorrected for
// heading to both axes: x'=x+vT, y'=y+vT, θ'=θ. This is almost certainly
// wrong physically but is reproduced intentionally for scoring parity with
// the system this pipeline was modeled on (spec.md §9, open question #1).
func applyCV(x, y, theta, v, t float64) (nx, ny, ntheta float64) {
	return x + t*v, y + t*v, theta
}

// applyCTRA is the constant turn-rate-and-acceleration model. ω is clamped
// to ±YawRateThreshold (same sign, zero treated as positive) whenever its
// magnitude is below the threshold, so the closed form never divides by
// zero. The Δy closing term intentionally mirrors the Δx form's `-a cos θ`
// term rather than the `-a sin θ` a symmetric derivation would suggest —
// preserved as specified (spec.md §9, open question #2).
func applyCTRA(x, y, theta, v, a, w, t float64) (nx, ny, ntheta float64) {
	if math.Abs(w) < YawRateThreshold {
		if w < 0 {
			w = -YawRateThreshold
		} else {
			w = YawRateThreshold
		}
	}

	thOmT := theta + w*t
	cosThOmT := math.Cos(thOmT)
	sinThOmT := math.Sin(thOmT)
	cosTh := math.Cos(theta)
	sinTh := math.Sin(theta)

	dx := (1 / (w * w)) * ((v*w+a*w*t)*sinThOmT + a*cosThOmT - v*w*sinTh - a*cosTh)
	dy := (1 / (w * w)) * ((-v*w-a*w*t)*cosThOmT + a*sinThOmT + v*w*cosTh - a*cosTh)

	return x + dx, y + dy, theta + w*t
}

// applyModel projects (x,y) forward by t seconds under the kinematics in k,
// selecting CV or CTRA via selectCTRA.
func applyModel(x, y float64, k model.Kinematics, t float64, force bool) (nx, ny, ntheta float64) {
	theta := k.Heading.Value()
	v := k.Speed.Value()
	a := k.Acceleration.Longitudinal()
	w := k.YawRate.Value()

	if selectCTRA(w, force) {
		return applyCTRA(x, y, theta, v, a, w, t)
	}
	return applyCV(x, y, theta, v, t)
}

// timeStep derives T the way project() does in the source system: the gap
// between the last sample's time and the reference, minus the same gap for
// the previous sample if one exists, falling back to MeanDeltaTime when the
// result is exactly zero (e.g. a single-sample history).
func timeStep(history []model.Position, referenceTime float64) float64 {
	if len(history) == 0 {
		return model.MeanDeltaTime
	}

	last := history[len(history)-1]
	t := last.Time() - referenceTime

	if len(history) >= 2 {
		prev := history[len(history)-2]
		t -= prev.Time() - referenceTime
	}

	if t == 0 {
		return model.MeanDeltaTime
	}
	return t
}
