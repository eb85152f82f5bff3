// Package model implements the ETSI ITS fixed-point data model: the
// raw-integer/SI scalar value objects carried on a CAM, the composite
// Position and Kinematics types built from them, and the station
// classification enum. Every type here is immutable value data — produced
// once from decoded input and never mutated in place, except Position.Step
// which predictors use to write back a projected pose.
package model

import (
	"fmt"
	"math"
)

// Conversion constants authoritative for the wire format. Raw integer
// values multiplied by these factors yield SI units.
const (
	LatLonUnitConversion    = 1e-7               // deg per 0.1 microdegree
	AltitudeUnitConversion  = 0.01                // m per cm
	HeadingUnitConversion   = 0.1 * math.Pi / 180 // rad per 0.1 degree
	SpeedUnitConversion     = 0.01                // m/s per cm/s
	AccelUnitConversion     = 0.1                 // m/s^2 per 0.1 m/s^2
	YawRateUnitConversion   = 0.01                // deg/s per 0.01 deg/s (kept in its native unit, see YawRate.Value)
	SteeringWheelConversion = 1.5
	TimeUnitConversion      = 0.001 // s per ms

	// MeanDeltaTime is the nominal CAM transmission period in seconds, used
	// whenever a predictor cannot derive a real elapsed time between samples.
	MeanDeltaTime = 0.2
)

const (
	MinRawLatitude  int32 = -900_000_000
	MaxRawLatitude  int32 = 900_000_000
	MinRawLongitude int32 = -1_800_000_000
	MaxRawLongitude int32 = 1_800_000_000
)

// Confidence carries the confidence metadata that accompanies most CAM
// scalar fields. ETSI confidences are integer codes; a handful of fields
// (altitude) instead use an enum tag. The zero value is not the
// "unavailable" sentinel (its String is "raw"); UnavailableConfidence
// builds that sentinel.
type Confidence struct {
	Raw   int32
	Label string
}

// UnavailableConfidence is the sentinel used whenever a CAM field is absent.
func UnavailableConfidence() Confidence {
	return Confidence{Label: "unavailable"}
}

func (c Confidence) String() string {
	if c.Label != "" {
		return c.Label
	}
	return "raw"
}

// Heading represents a vehicle heading in 0.1 degree raw units.
type Heading struct {
	raw        int32
	confidence Confidence
}

func NewHeading(raw int32, confidence Confidence) Heading {
	return Heading{raw: raw, confidence: confidence}
}

func (h Heading) Raw() int32             { return h.raw }
func (h Heading) Confidence() Confidence { return h.confidence }

// Value returns the heading in radians.
func (h Heading) Value() float64 { return float64(h.raw) * HeadingUnitConversion }

func (h Heading) String() string {
	return fmt.Sprintf("Heading(%.4f rad)", h.Value())
}

// Speed represents ground speed in cm/s raw units.
type Speed struct {
	raw        int32
	confidence Confidence
}

func NewSpeed(raw int32, confidence Confidence) Speed {
	return Speed{raw: raw, confidence: confidence}
}

func (s Speed) Raw() int32             { return s.raw }
func (s Speed) Confidence() Confidence { return s.confidence }
func (s Speed) Value() float64         { return float64(s.raw) * SpeedUnitConversion }

// Acceleration bundles the three acceleration axes CAMs carry. Longitudinal
// is the component the motion models consume.
type Acceleration struct {
	longitudinal int32
	lateral      int32
	vertical     int32
	confidence   Confidence
}

func NewAcceleration(longitudinal, lateral, vertical int32, confidence Confidence) Acceleration {
	return Acceleration{longitudinal: longitudinal, lateral: lateral, vertical: vertical, confidence: confidence}
}

func (a Acceleration) Longitudinal() float64 { return float64(a.longitudinal) * AccelUnitConversion }
func (a Acceleration) Lateral() float64      { return float64(a.lateral) * AccelUnitConversion }
func (a Acceleration) Vertical() float64     { return float64(a.vertical) * AccelUnitConversion }
func (a Acceleration) Confidence() Confidence { return a.confidence }

// YawRate represents yaw rate in 0.01 deg/s raw units. Value returns it in
// its native deg/s scale rather than converting to rad/s: the motion models
// compare it directly against YawRateThreshold in that scale, matching the
// source system's its_utils.cpp YawRate::getValue(), which never converts to
// radians either.
type YawRate struct {
	raw        int32
	confidence Confidence
}

func NewYawRate(raw int32, confidence Confidence) YawRate {
	return YawRate{raw: raw, confidence: confidence}
}

func (y YawRate) Raw() int32             { return y.raw }
func (y YawRate) Confidence() Confidence { return y.confidence }

// Value returns the yaw rate in deg/s, i.e. raw * 0.01.
func (y YawRate) Value() float64 {
	return float64(y.raw) * YawRateUnitConversion
}

// SteeringWheelAngle is dimensionless-times-degree raw data; Value applies
// the ETSI conversion factor without asserting a physical unit, matching
// the upstream CAM definition.
type SteeringWheelAngle struct {
	raw        int32
	confidence Confidence
}

func NewSteeringWheelAngle(raw int32, confidence Confidence) SteeringWheelAngle {
	return SteeringWheelAngle{raw: raw, confidence: confidence}
}

func (s SteeringWheelAngle) Value() float64 { return float64(s.raw) * SteeringWheelConversion }

// Curvature represents the vehicle's current curvature radius reciprocal.
type Curvature struct {
	raw        int32
	confidence Confidence
}

func NewCurvature(raw int32, confidence Confidence) Curvature {
	return Curvature{raw: raw, confidence: confidence}
}

func (c Curvature) Value() float64 { return float64(c.raw) }

// Altitude carries height above the reference ellipsoid in cm raw units
// plus an ETSI confidence tag (not an integer code).
type Altitude struct {
	raw        int32
	confidence Confidence
}

func NewAltitude(raw int32, confidence Confidence) Altitude {
	return Altitude{raw: raw, confidence: confidence}
}

func (a Altitude) Raw() int32             { return a.raw }
func (a Altitude) Confidence() Confidence { return a.confidence }
func (a Altitude) Value() float64         { return float64(a.raw) * AltitudeUnitConversion }
