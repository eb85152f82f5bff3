// Package predictor implements the pluggable motion-prediction engine: a
// Simple physical-motion projector, a factor-graph pose-smoothing predictor,
// and an Unscented Kalman Filter predictor, all behind one interface. Each
// StationState owns exactly one Predictor instance so per-vehicle reference
// frames, iteration counts, and filter state never leak across stations.
package predictor

import (
	"github.com/relabs-its/camquality/internal/geoprojection"
	"github.com/relabs-its/camquality/internal/model"
)

// Kind selects which Predictor implementation NewPredictor builds.
type Kind int

const (
	KindSimple Kind = iota
	KindFactorGraph
	KindUKF
)

func (k Kind) String() string {
	switch k {
	case KindFactorGraph:
		return "factorGraph"
	case KindUKF:
		return "ukf"
	default:
		return "simple"
	}
}

// Predictor projects a station's next expected Position from its bounded
// position history and current kinematics. Implementations are not safe for
// concurrent use and do no locking of their own; neither StationState nor
// the detector registry holds a lock while Predict runs.
type Predictor interface {
	Configure()
	Reset()
	Predict(history []model.Position, kinematics model.Kinematics) model.Position
	LastPrediction() model.Position
}

// basePredictor holds the state shared by every implementation: the last
// computed prediction, the local-frame reference point and time, and an
// iteration counter whose meaning is implementation-specific (ephemeral
// for Simple/UKF, the pose-graph node count for FactorGraph).
type basePredictor struct {
	lastPrediction model.Position
	reference      geoprojection.LatLon
	referenceTime  float64
	primed         bool
	nIterations    uint32
}

func (b *basePredictor) setReferencePosition(p model.Position) {
	b.reference = geoprojection.LatLon{Lat: p.Latitude(), Lon: p.Longitude()}
	b.referenceTime = p.Time()
	b.primed = true
}

func (b *basePredictor) LastPrediction() model.Position { return b.lastPrediction }
