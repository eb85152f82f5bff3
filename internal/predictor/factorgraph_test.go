package predictor

import (
	"math"
	"testing"

	"github.com/relabs-its/camquality/internal/model"
)

func TestFactorGraphPredictorSinglePositionFallback(t *testing.T) {
	f := NewFactorGraph()
	history := buildHistory(t, 1)
	kinematics := model.Kinematics{Speed: model.NewSpeed(500, model.UnavailableConfidence())}

	pred := f.Predict(history, kinematics)
	if math.IsNaN(pred.Latitude()) || math.IsNaN(pred.Longitude()) {
		t.Fatalf("single-position Predict produced NaN")
	}
}

func TestFactorGraphPredictorBuildsAndRebuilds(t *testing.T) {
	f := NewFactorGraph()
	kinematics := model.Kinematics{Speed: model.NewSpeed(500, model.UnavailableConfidence())}

	for n := 2; n <= MaxIterations+3; n++ {
		history := buildHistory(t, n)
		pred := f.Predict(history, kinematics)
		if math.IsNaN(pred.Latitude()) || math.IsInf(pred.Latitude(), 0) {
			t.Fatalf("Predict at history length %d produced non-finite result", n)
		}
	}
}

func TestRelativePoseInverse(t *testing.T) {
	a := pose2{X: 1, Y: 2, Theta: 0.3}
	b := pose2{X: 4, Y: -1, Theta: 1.1}

	rel := relativePose(a, b)
	reconstructedX := a.X + math.Cos(a.Theta)*rel.X - math.Sin(a.Theta)*rel.Y
	reconstructedY := a.Y + math.Sin(a.Theta)*rel.X + math.Cos(a.Theta)*rel.Y

	if math.Abs(reconstructedX-b.X) > 1e-9 || math.Abs(reconstructedY-b.Y) > 1e-9 {
		t.Errorf("relativePose round-trip mismatch: got (%.9f, %.9f), want (%.9f, %.9f)", reconstructedX, reconstructedY, b.X, b.Y)
	}
}

func TestSolveEphemeralConvergesOnConsistentTarget(t *testing.T) {
	prev := pose2{X: 0, Y: 0, Theta: 0}
	target := pose2{X: 5, Y: 0.2, Theta: 0.01}

	solved, converged := solveEphemeral(prev, target)
	if !converged {
		t.Fatalf("solveEphemeral did not converge on a consistent target")
	}
	if math.Abs(solved.X-target.X) > 1e-3 || math.Abs(solved.Y-target.Y) > 1e-3 {
		t.Errorf("solveEphemeral = %+v, want close to %+v", solved, target)
	}
}
