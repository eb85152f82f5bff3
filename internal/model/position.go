package model

import (
	"fmt"
	"math"
)

// ConfidenceEllipse carries the ETSI position confidence ellipse fields.
type ConfidenceEllipse struct {
	SemiMajor   int32
	SemiMinor   int32
	Orientation int32
}

// Position is one reported or predicted vehicle pose. It is constructed
// from decoded CAM fields, from raw integers, or from a double lat/lon pair,
// and is otherwise treated as immutable: the only mutation predictors are
// allowed is Step, which overwrites a copy with a projected pose.
type Position struct {
	deltaTime         uint16
	latitude          int32 // raw, 0.1 microdegree units
	longitude         int32 // raw, 0.1 microdegree units
	altitude          Altitude
	heading           Heading
	confidenceEllipse ConfidenceEllipse
}

// NewPositionFromRaw builds a Position directly from wire-format integers.
// It panics on an out-of-range latitude/longitude, which the decoder
// boundary is expected to have already rejected (DecodeError).
func NewPositionFromRaw(deltaTime uint16, latitude, longitude int32, altitude Altitude, heading Heading, ce ConfidenceEllipse) Position {
	if latitude < MinRawLatitude || latitude > MaxRawLatitude {
		panic(fmt.Sprintf("model: latitude %d out of range", latitude))
	}
	if longitude < MinRawLongitude || longitude > MaxRawLongitude {
		panic(fmt.Sprintf("model: longitude %d out of range", longitude))
	}
	return Position{
		deltaTime:         deltaTime,
		latitude:          latitude,
		longitude:         longitude,
		altitude:          altitude,
		heading:           heading,
		confidenceEllipse: ce,
	}
}

// NewPositionFromLatLon converts double-precision degrees into the raw
// fixed-point representation and builds a Position from it. Used by tests
// and by predictors writing back a freshly projected pose.
func NewPositionFromLatLon(deltaTime uint16, latitude, longitude float64, heading Heading, altitude Altitude, ce ConfidenceEllipse) Position {
	return NewPositionFromRaw(
		deltaTime,
		int32(math.Round(latitude/LatLonUnitConversion)),
		int32(math.Round(longitude/LatLonUnitConversion)),
		altitude,
		heading,
		ce,
	)
}

func (p Position) DeltaTime() uint16 { return p.deltaTime }

// Time returns delta-time converted to seconds, the unit every predictor's
// time-step arithmetic operates in.
func (p Position) Time() float64 { return float64(p.deltaTime) * TimeUnitConversion }

func (p Position) RawLatitude() int32  { return p.latitude }
func (p Position) RawLongitude() int32 { return p.longitude }

func (p Position) Latitude() float64  { return float64(p.latitude) * LatLonUnitConversion }
func (p Position) Longitude() float64 { return float64(p.longitude) * LatLonUnitConversion }

func (p Position) Altitude() Altitude               { return p.altitude }
func (p Position) Heading() Heading                 { return p.heading }
func (p Position) ConfidenceEllipse() ConfidenceEllipse { return p.confidenceEllipse }

// LatLon returns the lat/lon pair in SI degrees, the form GeoProjection and
// Haversine both consume.
func (p Position) LatLon() (float64, float64) { return p.Latitude(), p.Longitude() }

// earthRadiusMeters is the sphere radius used by the Haversine approximation.
const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance between two positions, in
// meters, on a sphere of radius earthRadiusMeters.
func Haversine(a, b Position) float64 {
	lat1, lon1 := a.LatLon()
	lat2, lon2 := b.LatLon()

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sa := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(sa), math.Sqrt(1-sa))

	return earthRadiusMeters * c
}

// Step returns a copy of p with latitude/longitude/heading overwritten from
// the given SI values and deltaTime advanced by one nominal CAM period.
// This is the only mutation path a predictor uses to materialize a
// prediction as a Position; it never mutates p in place.
func (p Position) Step(latitude, longitude, heading float64) Position {
	next := p
	next.latitude = int32(math.Round(latitude / LatLonUnitConversion))
	next.longitude = int32(math.Round(longitude / LatLonUnitConversion))
	next.heading = NewHeading(int32(math.Round(heading/HeadingUnitConversion)), UnavailableConfidence())
	next.deltaTime = p.deltaTime + uint16(math.Round(MeanDeltaTime/TimeUnitConversion))
	return next
}

func (p Position) String() string {
	return fmt.Sprintf("Position(t=%.3fs lat=%.7f lon=%.7f heading=%.4f)", p.Time(), p.Latitude(), p.Longitude(), p.heading.Value())
}

// StationType is the ETSI station classification carried on every CAM.
type StationType int

const (
	StationUnknown StationType = iota
	StationPedestrian
	StationCyclist
	StationMoped
	StationMotorcycle
	StationPassengerCar
	StationBus
	StationLightTruck
	StationHeavyTruck
	StationTrailer
	StationSpecialVehicles
	StationTram
	StationRoadSideUnit
)

func (s StationType) String() string {
	switch s {
	case StationPedestrian:
		return "pedestrian"
	case StationCyclist:
		return "cyclist"
	case StationMoped:
		return "moped"
	case StationMotorcycle:
		return "motorcycle"
	case StationPassengerCar:
		return "passengerCar"
	case StationBus:
		return "bus"
	case StationLightTruck:
		return "lightTruck"
	case StationHeavyTruck:
		return "heavyTruck"
	case StationTrailer:
		return "trailer"
	case StationSpecialVehicles:
		return "specialVehicles"
	case StationTram:
		return "tram"
	case StationRoadSideUnit:
		return "roadSideUnit"
	default:
		return "unknown"
	}
}

// Kinematics bundles the high-frequency container fields a CAM carries
// beyond position. Every field defaults to its "unavailable" sentinel when
// absent from the decoded message.
type Kinematics struct {
	Heading            Heading
	Speed              Speed
	Acceleration       Acceleration
	YawRate            YawRate
	SteeringWheelAngle SteeringWheelAngle
	Curvature          Curvature
}

// UnavailableKinematics returns a Kinematics bundle with every field zeroed
// and tagged unavailable, the default for a CAM missing its high-frequency
// container.
func UnavailableKinematics() Kinematics {
	u := UnavailableConfidence()
	return Kinematics{
		Heading:            NewHeading(0, u),
		Speed:              NewSpeed(0, u),
		Acceleration:       NewAcceleration(0, 0, 0, u),
		YawRate:            NewYawRate(0, u),
		SteeringWheelAngle: NewSteeringWheelAngle(0, u),
		Curvature:          NewCurvature(0, u),
	}
}
