// Package geoprojection converts between WGS84 lat/lon and a local
// Cartesian tangent-plane frame anchored at a per-station reference point.
// Both functions are pure and accurate to within roughly 10 m over
// kilometer-scale areas, which is the accuracy the predictors need: they
// only ever project a few hundred meters from the reference.
package geoprojection

import "math"

// earthRadiusMeters matches model.Haversine's sphere radius so cartesian
// round-trips and great-circle distances stay consistent with each other.
const earthRadiusMeters = 6_371_000.0

// LatLon is a WGS84 point in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// XY is a point in the local tangent-plane frame, in meters.
type XY struct {
	X float64
	Y float64
}

// ToCartesian projects pt into the local equirectangular frame anchored at
// ref: X grows east, Y grows north.
func ToCartesian(ref, pt LatLon) XY {
	refLatRad := ref.Lat * math.Pi / 180
	dLat := (pt.Lat - ref.Lat) * math.Pi / 180
	dLon := (pt.Lon - ref.Lon) * math.Pi / 180

	return XY{
		X: dLon * math.Cos(refLatRad) * earthRadiusMeters,
		Y: dLat * earthRadiusMeters,
	}
}

// FromCartesian is the exact inverse of ToCartesian for the same reference
// point: FromCartesian(ref, ToCartesian(ref, p)) == p within floating-point
// rounding.
func FromCartesian(ref LatLon, xy XY) LatLon {
	refLatRad := ref.Lat * math.Pi / 180

	dLat := xy.Y / earthRadiusMeters
	dLon := xy.X / (earthRadiusMeters * math.Cos(refLatRad))

	return LatLon{
		Lat: ref.Lat + dLat*180/math.Pi,
		Lon: ref.Lon + dLon*180/math.Pi,
	}
}
