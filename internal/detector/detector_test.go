package detector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/relabs-its/camquality/internal/model"
	"github.com/relabs-its/camquality/internal/predictor"
	"github.com/relabs-its/camquality/internal/stationstate"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []struct {
		dataFlowID uint32
		quality    int
	}
}

func (f *fakePublisher) Publish(ctx context.Context, dataFlowID uint32, quality int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, struct {
		dataFlowID uint32
		quality    int
	}{dataFlowID, quality})
	return nil
}

func testDecoded(stationID uint32, lat, lon float64) stationstate.Decoded {
	return stationstate.Decoded{
		StationID:   stationID,
		StationType: model.StationPassengerCar,
		Position: model.NewPositionFromLatLon(200, lat, lon,
			model.NewHeading(0, model.UnavailableConfidence()),
			model.NewAltitude(0, model.UnavailableConfidence()),
			model.ConfidenceEllipse{}),
		Kinematics:     model.UnavailableKinematics(),
		DriveDirection: stationstate.DriveDirectionForward,
	}
}

func TestScoreForDistanceBoundaries(t *testing.T) {
	cases := []struct {
		distance float64
		want     int
	}{
		{0.0, 7},
		{0.49, 7},
		{0.5, 6},
		{0.99, 6},
		{1.0, 5},
		{1.99, 5},
		{2.0, 4},
		{4.99, 4},
		{5.0, 3},
		{9.99, 3},
		{10.0, 2},
		{19.99, 2},
		{20.0, 1},
		{1000.0, 1},
	}

	for _, c := range cases {
		if got := ScoreForDistance(c.distance); got != c.want {
			t.Errorf("ScoreForDistance(%v) = %d, want %d", c.distance, got, c.want)
		}
	}
}

func TestAddNewStationThenUnknownStationError(t *testing.T) {
	reg := New(nil)

	if err := reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple); err != nil {
		t.Fatalf("AddNewStation() error: %v", err)
	}
	if err := reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple); !errors.Is(err, ErrStationExists) {
		t.Errorf("re-adding station: err = %v, want ErrStationExists", err)
	}

	if err := reg.UpdateStation(testDecoded(2, 48.85, 2.35)); !errors.Is(err, ErrUnknownStation) {
		t.Errorf("updating unknown station: err = %v, want ErrUnknownStation", err)
	}
}

func TestDetectNewStationScoresZero(t *testing.T) {
	reg := New(nil)
	score, err := reg.Detect(context.Background(), testDecoded(1, 48.85, 2.35))
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if score != 0 {
		t.Errorf("Detect() for unregistered station = %d, want 0", score)
	}
}

func TestDetectFewPositionsScoresSeven(t *testing.T) {
	reg := New(nil)
	reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple)

	score, err := reg.Detect(context.Background(), testDecoded(1, 48.85, 2.35))
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if score != 7 {
		t.Errorf("Detect() with <2 positions = %d, want 7", score)
	}
}

func TestBatchPublishesEveryFourScores(t *testing.T) {
	pub := &fakePublisher{}
	reg := New(pub)
	reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple)

	ctx := context.Background()
	for i := 0; i < BatchSize; i++ {
		if err := reg.UpdateAndVisualizeBatchMetrics(ctx, 1, 7); err != nil {
			t.Fatalf("UpdateAndVisualizeBatchMetrics() error: %v", err)
		}
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.published) != 1 {
		t.Fatalf("published %d times, want 1", len(pub.published))
	}
	if pub.published[0].dataFlowID != 42 || pub.published[0].quality != 7 {
		t.Errorf("published %+v, want dataFlowID=42 quality=7", pub.published[0])
	}
}

func TestBatchDoesNotPublishBeforeFourScores(t *testing.T) {
	pub := &fakePublisher{}
	reg := New(pub)
	reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple)

	ctx := context.Background()
	for i := 0; i < BatchSize-1; i++ {
		reg.UpdateAndVisualizeBatchMetrics(ctx, 1, 7)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.published) != 0 {
		t.Errorf("published %d times, want 0", len(pub.published))
	}
}

func TestRegisterDetectorKindAffectsWeightedMean(t *testing.T) {
	reg := New(nil)
	reg.AddNewStation(testDecoded(1, 48.85, 2.35), 42, predictor.KindSimple)

	reg.RegisterDetectorKind(Kind{
		Name:   "alwaysOne",
		Weight: 1,
		Score:  func(*Registry, uint32, stationstate.Decoded) int { return 1 },
	})

	// Station has <2 positions so positionConsistency scores 7; alwaysOne
	// scores 1; equal weights average to 4.
	score, err := reg.Detect(context.Background(), testDecoded(1, 48.85, 2.35))
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if score != 4 {
		t.Errorf("Detect() with custom kind = %d, want 4", score)
	}
}
