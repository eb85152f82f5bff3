// Command camquality runs the CAM quality-scoring pipeline: it subscribes
// to inbound Cooperative Awareness Messages, scores each against its
// sending station's predicted trajectory, batches the scores per station,
// and publishes each batch's mean quality under the station's data flow ID
// to the configured sink.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/relabs-its/camquality/internal/cam"
	"github.com/relabs-its/camquality/internal/config"
	"github.com/relabs-its/camquality/internal/detector"
	"github.com/relabs-its/camquality/internal/logging"
	"github.com/relabs-its/camquality/internal/persistence"
	"github.com/relabs-its/camquality/internal/predictor"
	"github.com/relabs-its/camquality/internal/transport"
)

func main() {
	log := logging.Logger

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sink, err := persistence.NewPostgresSink(persistence.PostgresConfig{
		Address:  cfg.DBAddress,
		Username: cfg.DBUsername,
		Password: cfg.DBPassword,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to quality score sink")
	}
	defer sink.Close()

	registry := detector.New(sink)

	source, err := transport.NewNATSSource(transport.NATSConfig{
		Address:       cfg.AMQPAddress,
		Username:      cfg.AMQPUsername,
		Password:      cfg.AMQPPassword,
		ClientName:    "camquality",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to inbound transport")
	}
	defer source.Close()

	pl := &pipeline{registry: registry, log: log}

	go func() {
		if err := source.Subscribe(ctx, cfg.AMQPTopic, pl.handle); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("inbound subscription ended")
		}
	}()

	log.WithField("topic", cfg.AMQPTopic).Info("camquality pipeline started")

	<-sigCh
	log.Info("shutdown signal received, stopping pipeline")
	cancel()
}

// pipeline wires one decoded CAM through registration/update, scoring, and
// batch publication.
type pipeline struct {
	registry *detector.Registry
	log      *logrus.Logger
}

// inboundMessage is the minimal JSON envelope this pipeline accepts for its
// CAM payload; a real deployment's AMQP transport would carry an
// ASN.1/UPER-encoded CAM instead, which is out of scope here.
type inboundMessage struct {
	cam.Message
}

func (p *pipeline) handle(ctx context.Context, env transport.Envelope) error {
	var msg inboundMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		p.log.WithError(err).Warn("failed to decode inbound CAM payload")
		return nil
	}

	decoded := msg.ToDecoded()
	correlationID := uuid.New()

	logEntry := logging.Station(decoded.StationID).WithField("correlationId", correlationID.String())

	if !p.registry.HasStation(decoded.StationID) {
		if err := p.registry.AddNewStation(decoded, env.DataFlowID, predictor.KindSimple); err != nil {
			logEntry.WithError(err).Error("failed to register station")
			return err
		}
		logEntry.Debug("registered new station")
		return nil
	}

	// Score against the station's existing history *before* committing the
	// incoming reading, so the prediction is never compared against itself.
	score, err := p.registry.Detect(ctx, decoded)
	if err != nil {
		logEntry.WithError(err).Error("detector run failed")
		return err
	}

	if score >= detector.ValidityThreshold {
		if err := p.registry.UpdateStation(decoded); err != nil {
			logEntry.WithError(err).Error("failed to commit accepted reading")
			return err
		}
	} else {
		if err := p.registry.UpdateStationWithLastPrediction(decoded.StationID); err != nil {
			logEntry.WithError(err).Error("failed to substitute prediction for rejected reading")
			return err
		}
		logEntry.WithField("score", score).Warn("rejected implausible reading, substituted prediction")
	}

	if err := p.registry.UpdateAndVisualizeBatchMetrics(ctx, decoded.StationID, score); err != nil {
		logEntry.WithError(err).Error("failed to update batch metrics")
		return err
	}

	logEntry.WithField("score", score).Debug("scored inbound CAM")
	return nil
}
