package predictor

import "testing"

func TestNewPredictorKinds(t *testing.T) {
	if _, ok := NewPredictor(KindSimple).(*SimplePredictor); !ok {
		t.Errorf("NewPredictor(KindSimple) did not return a *SimplePredictor")
	}
	if _, ok := NewPredictor(KindFactorGraph).(*FactorGraphPredictor); !ok {
		t.Errorf("NewPredictor(KindFactorGraph) did not return a *FactorGraphPredictor")
	}
	if _, ok := NewPredictor(KindUKF).(*UKFPredictor); !ok {
		t.Errorf("NewPredictor(KindUKF) did not return a *UKFPredictor")
	}
	if _, ok := NewPredictor(Kind(99)).(*SimplePredictor); !ok {
		t.Errorf("NewPredictor(unknown kind) did not default to *SimplePredictor")
	}
}
