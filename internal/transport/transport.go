// Package transport abstracts the inbound CAM message source. The
// production transport for this pipeline is AMQP 1.0, which is out of
// scope here and specified only by the Source interface; the concrete
// adapter in this package talks to NATS instead, standing in for whatever
// broker a deployment actually wires up.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/relabs-its/camquality/internal/logging"
)

// Envelope carries one inbound message's raw payload alongside the
// transport-level dataFlowId property the batch aggregator needs.
type Envelope struct {
	DataFlowID uint32
	Payload    []byte
}

// Handler processes one inbound Envelope. A returned error is logged; it
// does not stop the subscription.
type Handler func(ctx context.Context, env Envelope) error

// Source is the inbound CAM transport boundary. Subscribe blocks until ctx
// is canceled or an unrecoverable transport error occurs.
type Source interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// NATSSource adapts a NATS subject to Source, extracting DataFlowID from
// the "dataFlowId" message header.
type NATSSource struct {
	conn *nats.Conn
}

// NATSConfig configures NewNATSSource.
type NATSConfig struct {
	Address       string
	Username      string
	Password      string
	ClientName    string
	ReconnectWait time.Duration
	MaxReconnects int
}

// NewNATSSource connects to a NATS server and returns a Source backed by it.
func NewNATSSource(cfg NATSConfig) (*NATSSource, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logging.Logger.WithError(err).WithField("subject", subject).Warn("nats transport error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Logger.WithError(err).Warn("nats transport disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Logger.WithField("url", nc.ConnectedUrl()).Info("nats transport reconnected")
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("transport: connect to %s: %w", cfg.Address, err)
	}
	return &NATSSource{conn: conn}, nil
}

// Subscribe registers handler against topic and blocks until ctx is done.
func (s *NATSSource) Subscribe(ctx context.Context, topic string, handler Handler) error {
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		env := Envelope{
			DataFlowID: dataFlowIDFromHeader(msg),
			Payload:    msg.Data,
		}
		if err := handler(ctx, env); err != nil {
			logging.Logger.WithError(err).WithField("topic", topic).Error("inbound CAM handler failed")
		}
	})
	if err != nil {
		return fmt.Errorf("transport: subscribe to %s: %w", topic, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

// Close drains and closes the underlying NATS connection.
func (s *NATSSource) Close() error {
	s.conn.Drain()
	return nil
}

func dataFlowIDFromHeader(msg *nats.Msg) uint32 {
	if msg.Header == nil {
		return 0
	}
	raw := msg.Header.Get("dataFlowId")
	if raw == "" {
		return 0
	}
	var id uint32
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0
	}
	return id
}
