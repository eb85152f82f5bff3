// Package cam holds the decoded representation of an inbound Cooperative
// Awareness Message and the conversions from it into the model and
// stationstate packages. Wire decoding (ASN.1/UPER or any JSON envelope) is
// out of scope; this package starts from already-decoded integer fields,
// mirroring spec.md §6's inbound boundary.
package cam

import (
	"github.com/relabs-its/camquality/internal/model"
	"github.com/relabs-its/camquality/internal/stationstate"
)

// Header mirrors the ITS PDU header fields relevant to this pipeline.
type Header struct {
	StationID uint32
}

// BasicContainer mirrors the CAM basic container fields.
type BasicContainer struct {
	StationType       int32
	Latitude          int32
	Longitude         int32
	SemiMajorConfidence int32
	SemiMinorConfidence int32
	SemiMajorOrientation int32
	AltitudeValue     int32
	AltitudeConfidence string
}

// HighFrequencyContainer mirrors the CAM high-frequency container fields.
type HighFrequencyContainer struct {
	HeadingValue            int32
	HeadingConfidence       int32
	SpeedValue              int32
	SpeedConfidence         int32
	LongitudinalAcceleration int32
	LongitudinalAccelConfidence int32
	LateralAcceleration     int32
	VerticalAcceleration    int32
	AccelConfidence         int32
	YawRateValue            int32
	YawRateConfidence       int32
	CurvatureValue          int32
	CurvatureConfidence     int32
	CurvatureCalculationMode string
	SteeringWheelAngleValue int32
	SteeringWheelAngleConfidence int32
	DriveDirection          int32
}

// Message is the decoded CAM, structurally mirroring the ETSI EN 302 637-2
// payload down to the fields this pipeline consumes.
type Message struct {
	Header                 Header
	GenerationDeltaTime    uint16
	BasicContainer         BasicContainer
	HighFrequencyContainer HighFrequencyContainer
}

// ToPosition builds a model.Position from the message's basic container and
// heading field.
func (m Message) ToPosition() model.Position {
	heading := model.NewHeading(m.HighFrequencyContainer.HeadingValue, confidenceFromRaw(m.HighFrequencyContainer.HeadingConfidence))
	altitude := model.NewAltitude(m.BasicContainer.AltitudeValue, model.Confidence{Label: m.BasicContainer.AltitudeConfidence})
	ce := model.ConfidenceEllipse{
		SemiMajor:   m.BasicContainer.SemiMajorConfidence,
		SemiMinor:   m.BasicContainer.SemiMinorConfidence,
		Orientation: m.BasicContainer.SemiMajorOrientation,
	}
	return model.NewPositionFromRaw(
		m.GenerationDeltaTime,
		m.BasicContainer.Latitude,
		m.BasicContainer.Longitude,
		altitude,
		heading,
		ce,
	)
}

// ToKinematics builds a model.Kinematics from the message's high-frequency container.
func (m Message) ToKinematics() model.Kinematics {
	hf := m.HighFrequencyContainer
	return model.Kinematics{
		Heading:  model.NewHeading(hf.HeadingValue, confidenceFromRaw(hf.HeadingConfidence)),
		Speed:    model.NewSpeed(hf.SpeedValue, confidenceFromRaw(hf.SpeedConfidence)),
		Acceleration: model.NewAcceleration(
			hf.LongitudinalAcceleration,
			hf.LateralAcceleration,
			hf.VerticalAcceleration,
			confidenceFromRaw(hf.AccelConfidence),
		),
		YawRate:            model.NewYawRate(hf.YawRateValue, confidenceFromRaw(hf.YawRateConfidence)),
		SteeringWheelAngle: model.NewSteeringWheelAngle(hf.SteeringWheelAngleValue, confidenceFromRaw(hf.SteeringWheelAngleConfidence)),
		Curvature:          model.NewCurvature(hf.CurvatureValue, confidenceFromRaw(hf.CurvatureConfidence)),
	}
}

// ToDecoded builds a stationstate.Decoded ready for stationstate.New or
// StationState.Update.
func (m Message) ToDecoded() stationstate.Decoded {
	return stationstate.Decoded{
		StationID:                m.Header.StationID,
		StationType:              model.StationType(m.BasicContainer.StationType),
		Position:                 m.ToPosition(),
		Kinematics:               m.ToKinematics(),
		DriveDirection:           driveDirection(m.HighFrequencyContainer.DriveDirection),
		CurvatureCalculationMode: m.HighFrequencyContainer.CurvatureCalculationMode,
	}
}

func confidenceFromRaw(raw int32) model.Confidence {
	return model.Confidence{Raw: raw}
}

func driveDirection(raw int32) stationstate.DriveDirection {
	switch raw {
	case 0:
		return stationstate.DriveDirectionForward
	case 1:
		return stationstate.DriveDirectionBackward
	default:
		return stationstate.DriveDirectionUnavailable
	}
}
