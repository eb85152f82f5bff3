// Package detector scores incoming CAMs against each station's predicted
// trajectory and batches the resulting quality scores for downstream
// publication. Registry owns the station and batch-metric maps behind a
// single coarse-grained mutex; the lock is released before any detector
// kind runs or any external I/O happens, per spec.md §5's concurrency model.
package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-its/camquality/internal/logging"
	"github.com/relabs-its/camquality/internal/model"
	"github.com/relabs-its/camquality/internal/predictor"
	"github.com/relabs-its/camquality/internal/stationstate"
)

// BatchSize is the number of scores a BatchMetric accumulates before it
// publishes its mean and resets.
const BatchSize = 4

// ValidityThreshold is the minimum Detect score at which an incoming CAM's
// reported position is trusted and committed into its station's history.
// Currently 0, so every score (1-7) clears it and the reject branch
// (UpdateStationWithLastPrediction) is dead at runtime — kept live so a
// future deployment can raise it without touching the pipeline's control
// flow.
const ValidityThreshold = 0

// ErrUnknownStation is returned by UpdateStation and
// UpdateStationWithLastPrediction when no station with the given ID is registered.
var ErrUnknownStation = errors.New("detector: unknown station")

// ErrStationExists is returned by AddNewStation when the station is already registered.
var ErrStationExists = errors.New("detector: station already registered")

// Kind names a single scoring dimension a Registry can run. The pipeline
// ships PositionConsistency; RegisterDetectorKind lets callers add more
// without touching Registry's fan-out logic.
type Kind struct {
	Name   string
	Weight int
	Score  func(reg *Registry, stationID uint32, incoming stationstate.Decoded) int
}

// BatchMetric accumulates scores for one station's data flow until BatchSize
// samples have arrived, then publishes their mean and resets.
type BatchMetric struct {
	DataFlowID uint32
	sum        int
	count      int
}

func newBatchMetric(dataFlowID uint32) *BatchMetric {
	return &BatchMetric{DataFlowID: dataFlowID}
}

func (m *BatchMetric) update(score int) {
	m.sum += score
	m.count++
}

func (m *BatchMetric) reset() {
	m.sum = 0
	m.count = 0
}

// ready reports whether the batch has accumulated BatchSize samples.
func (m *BatchMetric) ready() bool { return m.count >= BatchSize }

// mean returns the integer-truncated mean of the accumulated scores.
func (m *BatchMetric) mean() int { return m.sum / m.count }

// Publisher receives a station's batched mean quality score for its data flow.
type Publisher interface {
	Publish(ctx context.Context, dataFlowID uint32, quality int) error
}

// Registry holds every tracked station's state and batch metrics behind a
// single mutex, and runs the registered detector kinds against incoming CAMs.
type Registry struct {
	mu        sync.Mutex
	stations  map[uint32]*stationstate.StationState
	metrics   map[uint32]*BatchMetric
	kinds     []Kind
	publisher Publisher
}

// New builds an empty Registry. The PositionConsistency kind is registered
// by default; RegisterDetectorKind adds more.
func New(publisher Publisher) *Registry {
	r := &Registry{
		stations:  make(map[uint32]*stationstate.StationState),
		metrics:   make(map[uint32]*BatchMetric),
		publisher: publisher,
	}
	r.RegisterDetectorKind(Kind{
		Name:   "positionConsistency",
		Weight: 1,
		Score:  scorePositionConsistency,
	})
	return r
}

// RegisterDetectorKind adds a scoring dimension to run on every Detect call.
// Weights combine via an integer-truncated weighted mean, matching the
// source's weightedMean.
func (r *Registry) RegisterDetectorKind(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, k)
}

// AddNewStation registers a new station from its first decoded CAM, using
// kind as the predictor implementation for that station's lifetime.
func (r *Registry) AddNewStation(d stationstate.Decoded, dataFlowID uint32, kind predictor.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[d.StationID]; ok {
		return fmt.Errorf("%w: station %d", ErrStationExists, d.StationID)
	}

	r.stations[d.StationID] = stationstate.New(d, kind)
	r.metrics[d.StationID] = newBatchMetric(dataFlowID)
	return nil
}

// HasStation reports whether a station with the given ID is registered.
func (r *Registry) HasStation(stationID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stations[stationID]
	return ok
}

// UpdateStation folds a new CAM into an already-registered station's history.
func (r *Registry) UpdateStation(d stationstate.Decoded) error {
	r.mu.Lock()
	station, ok := r.stations[d.StationID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: station %d", ErrUnknownStation, d.StationID)
	}
	return station.Update(d)
}

// UpdateStationWithLastPrediction substitutes the station's last predicted
// position into its history in place of a real sample, used when an
// incoming CAM's Detect score falls below ValidityThreshold.
func (r *Registry) UpdateStationWithLastPrediction(stationID uint32) error {
	r.mu.Lock()
	station, ok := r.stations[stationID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: station %d", ErrUnknownStation, stationID)
	}
	station.UpdateWithPrediction()
	return nil
}

// Detect runs every registered detector kind concurrently against the
// incoming CAM and combines their scores into one integer-weighted mean.
// The registry mutex is held only long enough to snapshot what each kind
// needs; no detector kind or external I/O runs while it is held.
func (r *Registry) Detect(ctx context.Context, d stationstate.Decoded) (int, error) {
	r.mu.Lock()
	kinds := make([]Kind, len(r.kinds))
	copy(kinds, r.kinds)
	r.mu.Unlock()

	results := make([]int, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		i, k := i, k
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = k.Score(r, d.StationID, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return weightedMean(kinds, results), nil
}

func weightedMean(kinds []Kind, results []int) int {
	var weightedSum, weightTotal int
	for i, k := range kinds {
		weightedSum += k.Weight * results[i]
		weightTotal += k.Weight
	}
	if weightTotal == 0 {
		return 7
	}
	return weightedSum / weightTotal
}

// scorePositionConsistency is the PositionConsistency detector kind: an
// unregistered station scores 0, a station with fewer than two positions
// scores 7 (nothing to compare against yet), and otherwise the haversine
// distance between the station's predicted and reported positions is
// mapped to a 1-7 score via ScoreForDistance.
func scorePositionConsistency(reg *Registry, stationID uint32, incoming stationstate.Decoded) int {
	reg.mu.Lock()
	station, ok := reg.stations[stationID]
	reg.mu.Unlock()

	if !ok {
		return 0
	}
	if station.SizePositions() < 2 {
		return 7
	}

	prediction := station.PredictNextPosition()
	distance := model.Haversine(prediction, incoming.Position)
	return ScoreForDistance(distance)
}

// ScoreForDistance maps a haversine distance in meters to the pipeline's
// 1-7 quality score, matching the source's positionConsistencyMetric
// thresholds exactly.
func ScoreForDistance(metric float64) int {
	switch {
	case metric < 0.5:
		return 7
	case metric < 1:
		return 6
	case metric < 2:
		return 5
	case metric < 5:
		return 4
	case metric < 10:
		return 3
	case metric < 20:
		return 2
	default:
		return 1
	}
}

// UpdateAndVisualizeBatchMetrics accumulates score into the station's batch
// metric, creating one on demand if the station was never registered with
// AddNewStation, then publishes and resets once BatchSize scores have
// accumulated.
func (r *Registry) UpdateAndVisualizeBatchMetrics(ctx context.Context, stationID uint32, score int) error {
	r.mu.Lock()
	metric, ok := r.metrics[stationID]
	if !ok {
		metric = newBatchMetric(0)
		r.metrics[stationID] = metric
	}
	metric.update(score)

	var publishDataFlowID uint32
	var publishQuality int
	shouldPublish := metric.ready()
	if shouldPublish {
		publishDataFlowID = metric.DataFlowID
		publishQuality = metric.mean()
		metric.reset()
	}
	r.mu.Unlock()

	if !shouldPublish {
		return nil
	}

	if r.publisher == nil {
		return nil
	}
	if err := r.publisher.Publish(ctx, publishDataFlowID, publishQuality); err != nil {
		logging.Station(stationID).WithError(err).Error("failed to publish batch quality score")
		return err
	}
	return nil
}
