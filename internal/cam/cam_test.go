package cam

import "testing"

func TestToDecodedMapsFields(t *testing.T) {
	msg := Message{
		Header:              Header{StationID: 7},
		GenerationDeltaTime: 200,
		BasicContainer: BasicContainer{
			StationType: 5,
			Latitude:    488566000,
			Longitude:   23522000,
		},
		HighFrequencyContainer: HighFrequencyContainer{
			HeadingValue: 900,
			SpeedValue:   1000,
			YawRateValue: 50,
			DriveDirection: 1,
		},
	}

	decoded := msg.ToDecoded()

	if decoded.StationID != 7 {
		t.Errorf("StationID = %d, want 7", decoded.StationID)
	}
	if decoded.DriveDirection != 1 {
		// DriveDirectionBackward == 1
		t.Errorf("DriveDirection = %v, want DriveDirectionBackward", decoded.DriveDirection)
	}
	if decoded.Kinematics.Speed.Value() != 10 {
		t.Errorf("Speed.Value() = %v, want 10", decoded.Kinematics.Speed.Value())
	}
}

func TestToPositionUsesBasicContainerCoordinates(t *testing.T) {
	msg := Message{
		BasicContainer: BasicContainer{
			Latitude:  488566000,
			Longitude: 23522000,
		},
	}

	pos := msg.ToPosition()
	if pos.RawLatitude() != 488566000 {
		t.Errorf("RawLatitude() = %d, want 488566000", pos.RawLatitude())
	}
}
