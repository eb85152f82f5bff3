package predictor

import (
	"math"
	"testing"

	"github.com/relabs-its/camquality/internal/model"
)

func TestSelectCTRABoundary(t *testing.T) {
	cases := []struct {
		yawRate float64
		want    bool
	}{
		{0, false},
		{1.999, false},
		{2.0, false}, // exactly at threshold: CV (inclusive on the CV side)
		{2.0001, true},
		{-2.0001, true},
	}

	for _, c := range cases {
		if got := selectCTRA(c.yawRate, false); got != c.want {
			t.Errorf("selectCTRA(%v, false) = %v, want %v", c.yawRate, got, c.want)
		}
	}
}

func TestSelectCTRAForced(t *testing.T) {
	if !selectCTRA(0, true) {
		t.Errorf("selectCTRA(0, true) = false, want true")
	}
}

func TestApplyCVBothAxesUseRawSpeed(t *testing.T) {
	// Reproduces the intentionally-preserved bug: v applies to both axes
	// uncorrected by heading.
	nx, ny, ntheta := applyCV(0, 0, math.Pi/2, 10, 1)
	if nx != 10 || ny != 10 {
		t.Errorf("applyCV = (%v, %v), want (10, 10)", nx, ny)
	}
	if ntheta != math.Pi/2 {
		t.Errorf("applyCV theta = %v, want unchanged", ntheta)
	}
}

func TestApplyCTRANeverProducesNaNOrInf(t *testing.T) {
	speeds := []float64{0, 1, 10, 30}
	yawRates := []float64{-5, -2, -0.5, 0, 0.5, 2, 5}
	accels := []float64{-2, 0, 2}

	for _, v := range speeds {
		for _, w := range yawRates {
			for _, a := range accels {
				nx, ny, ntheta := applyCTRA(0, 0, 0, v, a, w, 0.2)
				if math.IsNaN(nx) || math.IsNaN(ny) || math.IsNaN(ntheta) {
					t.Fatalf("applyCTRA(v=%v, a=%v, w=%v) produced NaN", v, a, w)
				}
				if math.IsInf(nx, 0) || math.IsInf(ny, 0) || math.IsInf(ntheta, 0) {
					t.Fatalf("applyCTRA(v=%v, a=%v, w=%v) produced Inf", v, a, w)
				}
			}
		}
	}
}

func TestTimeStepFallsBackToMeanDeltaTimeWhenZero(t *testing.T) {
	got := timeStep(nil, 0)
	if got != model.MeanDeltaTime {
		t.Errorf("timeStep(nil, 0) = %v, want MeanDeltaTime", got)
	}
}
