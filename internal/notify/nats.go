package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// bus is the slice of *nats.Conn the publisher needs.
type bus interface {
	Publish(subject string, data []byte) error
}

// Publisher puts JSON-encoded domain events on NATS subjects.
type Publisher struct {
	bus    bus
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS and logs connection state changes.
func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("production-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{bus: conn, conn: conn, logger: logger}, nil
}

func newPublisher(b bus, logger *zap.Logger) *Publisher {
	return &Publisher{bus: b, logger: logger}
}

// Publish marshals payload to JSON and sends it on subject.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.bus.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.conn.Close()
	}
}
