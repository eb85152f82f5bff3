// Package stationstate tracks one ITS station's kinematic history and
// motion predictor across the CAMs it has sent. Each StationState owns a
// bounded ring buffer of positions, the most recently decoded kinematics,
// drive-direction and curvature-mode passthrough fields, and exactly one
// Predictor instance, so its reference frame and filter state never leak
// into another station's.
package stationstate

import (
	"errors"
	"fmt"

	"github.com/relabs-its/camquality/internal/model"
	"github.com/relabs-its/camquality/internal/predictor"
	"github.com/relabs-its/camquality/internal/ringbuffer"
)

// historyCapacity is the number of past positions retained per station.
const historyCapacity = 16

// ErrIdentityMismatch is returned by Update when the incoming CAM's station
// ID does not match the StationState being updated.
var ErrIdentityMismatch = errors.New("stationstate: identity mismatch")

// DriveDirection mirrors the ETSI high-frequency container's drive
// direction enum.
type DriveDirection int

const (
	DriveDirectionForward DriveDirection = iota
	DriveDirectionBackward
	DriveDirectionUnavailable
)

// Decoded is the minimal set of fields Update needs from a freshly decoded
// CAM, independent of any wire format. Callers build one from their own
// decoding path (see package cam) and pass it in.
type Decoded struct {
	StationID                uint32
	StationType              model.StationType
	Position                 model.Position
	Kinematics                model.Kinematics
	DriveDirection            DriveDirection
	CurvatureCalculationMode string
}

// StationState holds everything the pipeline tracks for one ITS station.
type StationState struct {
	stationID                uint32
	stationType              model.StationType
	positions                *ringbuffer.Buffer[model.Position]
	kinematics                model.Kinematics
	driveDirection            DriveDirection
	curvatureCalculationMode string
	predictorKind             predictor.Kind
	predictor                 predictor.Predictor
}

// New builds a StationState from the first CAM received for a station,
// using the given predictor kind for its lifetime.
func New(d Decoded, kind predictor.Kind) *StationState {
	s := &StationState{
		stationID:                d.StationID,
		stationType:              d.StationType,
		positions:                ringbuffer.New[model.Position](historyCapacity),
		kinematics:                d.Kinematics,
		driveDirection:            d.DriveDirection,
		curvatureCalculationMode: d.CurvatureCalculationMode,
		predictorKind:             kind,
		predictor:                 predictor.NewPredictor(kind),
	}
	s.positions.Push(d.Position)
	return s
}

// Update folds a newly decoded CAM from the same station into the history,
// returning ErrIdentityMismatch if d belongs to a different station.
func (s *StationState) Update(d Decoded) error {
	if d.StationID != s.stationID {
		return fmt.Errorf("%w: station %d got CAM for station %d", ErrIdentityMismatch, s.stationID, d.StationID)
	}
	s.stationType = d.StationType
	s.kinematics = d.Kinematics
	s.driveDirection = d.DriveDirection
	s.curvatureCalculationMode = d.CurvatureCalculationMode
	s.positions.Push(d.Position)
	return nil
}

// UpdateWithPrediction substitutes the predictor's last prediction into the
// history instead of a real reported position — used when the incoming CAM
// fails validation and the pipeline chooses to carry the trajectory forward
// on predicted data rather than break the history.
func (s *StationState) UpdateWithPrediction() {
	s.positions.Push(s.predictor.LastPrediction())
}

// PredictNextPosition runs the station's predictor against its current
// history and kinematics, returning the projected next Position.
func (s *StationState) PredictNextPosition() model.Position {
	return s.predictor.Predict(s.positions.Slice(), s.kinematics)
}

func (s *StationState) StationID() uint32            { return s.stationID }
func (s *StationState) StationType() model.StationType { return s.stationType }
func (s *StationState) Kinematics() model.Kinematics  { return s.kinematics }
func (s *StationState) DriveDirection() DriveDirection { return s.driveDirection }
func (s *StationState) CurvatureCalculationMode() string { return s.curvatureCalculationMode }
func (s *StationState) SizePositions() int            { return s.positions.Len() }
func (s *StationState) Positions() []model.Position   { return s.positions.Slice() }
func (s *StationState) LastPosition() model.Position  { return s.positions.Back() }
func (s *StationState) Predictor() predictor.Predictor { return s.predictor }

// Clone returns a deep copy of s, including a deep copy of its position
// history and a freshly constructed predictor of the same kind (predictor
// internal state is reference-frame scoped and is not meaningfully
// copyable; a clone gets a clean predictor rather than a shared one).
func (s *StationState) Clone() *StationState {
	clone := &StationState{
		stationID:                s.stationID,
		stationType:              s.stationType,
		positions:                s.positions.Clone(),
		kinematics:                s.kinematics,
		driveDirection:            s.driveDirection,
		curvatureCalculationMode: s.curvatureCalculationMode,
		predictorKind:             s.predictorKind,
		predictor:                 predictor.NewPredictor(s.predictorKind),
	}
	return clone
}
