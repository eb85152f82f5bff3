package geoprojection

import "testing"

func TestRoundTrip(t *testing.T) {
	ref := LatLon{Lat: 48.8566, Lon: 2.3522}

	cases := []LatLon{
		{Lat: 48.8566, Lon: 2.3522},
		{Lat: 48.8600, Lon: 2.3600},
		{Lat: 48.8500, Lon: 2.3400},
		{Lat: 48.9000, Lon: 2.2000},
	}

	for _, pt := range cases {
		xy := ToCartesian(ref, pt)
		back := FromCartesian(ref, xy)

		if diff := abs(back.Lat - pt.Lat); diff > 1e-9 {
			t.Errorf("lat round-trip: got %.12f want %.12f (diff %.2e)", back.Lat, pt.Lat, diff)
		}
		if diff := abs(back.Lon - pt.Lon); diff > 1e-9 {
			t.Errorf("lon round-trip: got %.12f want %.12f (diff %.2e)", back.Lon, pt.Lon, diff)
		}
	}
}

func TestToCartesianOriginIsZero(t *testing.T) {
	ref := LatLon{Lat: 10, Lon: 20}
	xy := ToCartesian(ref, ref)
	if xy.X != 0 || xy.Y != 0 {
		t.Errorf("origin should map to (0,0), got (%.6f, %.6f)", xy.X, xy.Y)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
