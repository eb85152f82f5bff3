package predictor

import (
	"github.com/relabs-its/camquality/internal/geoprojection"
	"github.com/relabs-its/camquality/internal/model"
)

// SimplePredictor projects the last history point forward through the
// motion model and converts the result back to WGS84, with no correction
// stage. It is the pipeline's default predictor.
type SimplePredictor struct {
	basePredictor
}

// NewSimple builds a SimplePredictor ready for its first Predict call.
func NewSimple() *SimplePredictor {
	p := &SimplePredictor{}
	p.Configure()
	return p
}

func (s *SimplePredictor) Configure() {}

func (s *SimplePredictor) Reset() {
	s.basePredictor = basePredictor{}
}

// Predict sets the reference position to the first history element on the
// first call after construction or Reset, then projects the most recent
// sample forward by the derived time step.
func (s *SimplePredictor) Predict(history []model.Position, kinematics model.Kinematics) model.Position {
	if !s.primed {
		s.setReferencePosition(history[0])
	}

	last := history[len(history)-1]
	t := timeStep(history, s.referenceTime)

	xy := geoprojection.ToCartesian(s.reference, geoprojection.LatLon{Lat: last.Latitude(), Lon: last.Longitude()})
	nx, ny, ntheta := applyModel(xy.X, xy.Y, kinematics, t, false)
	wgs := geoprojection.FromCartesian(s.reference, geoprojection.XY{X: nx, Y: ny})

	s.lastPrediction = last.Step(wgs.Lat, wgs.Lon, ntheta)
	return s.lastPrediction
}
