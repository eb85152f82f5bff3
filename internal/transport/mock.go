package transport

import (
	"context"

	"github.com/relabs-its/camquality/internal/logging"
)

// MockSource replays a fixed sequence of envelopes to whatever handler
// Subscribe is called with, logging (not returning) handler errors, then
// blocks until ctx is canceled. It exists for tests that need a Source
// without a real NATS server.
type MockSource struct {
	Envelopes []Envelope
	closed    bool
}

func (m *MockSource) Subscribe(ctx context.Context, topic string, handler Handler) error {
	for _, env := range m.Envelopes {
		if err := handler(ctx, env); err != nil {
			logging.Logger.WithError(err).WithField("topic", topic).Error("inbound CAM handler failed")
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}
