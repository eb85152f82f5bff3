package predictor

// NewPredictor builds a fresh Predictor of the given kind. KindSimple is
// the default for any unrecognized value.
func NewPredictor(kind Kind) Predictor {
	switch kind {
	case KindFactorGraph:
		return NewFactorGraph()
	case KindUKF:
		return NewUKF()
	default:
		return NewSimple()
	}
}
