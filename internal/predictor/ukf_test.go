package predictor

import (
	"math"
	"testing"

	"github.com/relabs-its/camquality/internal/model"
)

func TestUKFPredictorProducesFiniteResult(t *testing.T) {
	u := NewUKF()
	history := buildHistory(t, 4)
	kinematics := model.Kinematics{
		Speed:   model.NewSpeed(800, model.UnavailableConfidence()),
		YawRate: model.NewYawRate(50, model.UnavailableConfidence()),
	}

	for i := 0; i < 5; i++ {
		pred := u.Predict(history, kinematics)
		if math.IsNaN(pred.Latitude()) || math.IsInf(pred.Latitude(), 0) {
			t.Fatalf("UKF Predict produced non-finite latitude on iteration %d", i)
		}
		history = append(history, pred)
	}
}

func TestUKFResetReinitializesState(t *testing.T) {
	u := NewUKF()
	history := buildHistory(t, 3)
	kinematics := model.Kinematics{Speed: model.NewSpeed(500, model.UnavailableConfidence())}

	u.Predict(history, kinematics)
	u.Reset()

	if u.state.AtVec(0) != 0 || u.state.AtVec(1) != 0 {
		t.Errorf("Reset did not zero the state vector")
	}
	if u.primed {
		t.Errorf("Reset did not clear primed flag")
	}
}

func TestGenerateSigmaPointsCount(t *testing.T) {
	u := NewUKF()
	points, wm, wc := u.generateSigmaPoints()

	want := 2*ukfStateDim + 1
	if len(points) != want {
		t.Fatalf("len(points) = %d, want %d", len(points), want)
	}
	if len(wm) != want || len(wc) != want {
		t.Errorf("weight vector length mismatch")
	}

	var sumWm float64
	for _, w := range wm {
		sumWm += w
	}
	if math.Abs(sumWm-1.0) > 1e-9 {
		t.Errorf("sum of mean weights = %v, want 1.0", sumWm)
	}
}
