// Package events publishes stock events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamName = "STOCK_EVENTS"

	SubjectImportCompleted = "stock.import.completed"
	SubjectLowStock        = "stock.low"
)

// ImportCompleted is published after every import attempt that reached the reconciler.
type ImportCompleted struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Flavor    string    `json:"flavor"`
	FileName  string    `json:"fileName"`
	UploadID  string    `json:"uploadId,omitempty"`
	Status    string    `json:"status"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
	ActorID   string    `json:"actorId,omitempty"`
}

// LowStock lists items left below their minimum by an import.
type LowStock struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Codes     []string  `json:"codes"`
}

// Publisher wraps a NATS connection. A nil *Publisher is valid and drops
// every event, so callers need no connectivity checks.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to natsURL and ensures the stock stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "stock-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("stock-service-publisher"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Disconnected from NATS")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"stock.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to ensure stock stream exists")
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// PublishImportCompleted publishes a stock.import.completed event.
func (p *Publisher) PublishImportCompleted(ctx context.Context, event ImportCompleted) error {
	if p == nil {
		return nil
	}
	event.EventType = SubjectImportCompleted
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return p.publish(ctx, SubjectImportCompleted, event, logrus.Fields{
		"flavor":   event.Flavor,
		"uploadId": event.UploadID,
	})
}

// PublishLowStock publishes a stock.low event. Empty code lists are not sent.
func (p *Publisher) PublishLowStock(ctx context.Context, source string, codes []string) error {
	if p == nil || len(codes) == 0 {
		return nil
	}
	event := LowStock{
		EventType: SubjectLowStock,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Codes:     codes,
	}
	return p.publish(ctx, SubjectLowStock, event, logrus.Fields{
		"source": source,
		"count":  len(codes),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, event interface{}, fields logrus.Fields) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.WithFields(fields).WithError(err).Errorf("Failed to publish %s event", subject)
		return err
	}
	p.logger.WithFields(fields).Debugf("Published %s event", subject)
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.nc != nil && p.nc.IsConnected()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
