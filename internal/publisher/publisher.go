package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/metrics"
	"github.com/padelhub/storefront/pkg/model"
)

// Publisher emits catalog change events.
type Publisher interface {
	PublishCatalogEvent(ctx context.Context, evt model.CatalogEvent) error
	Close()
}

// DefaultPublishTimeout bounds a single publish including its ack.
const DefaultPublishTimeout = 5 * time.Second

// jetStream is the publish call the publisher makes.
type jetStream interface {
	PublishMsg(ctx context.Context, m *nats.Msg) (*nats.PubAck, error)
}

type jsContext struct {
	js nats.JetStreamContext
}

func (j jsContext) PublishMsg(ctx context.Context, m *nats.Msg) (*nats.PubAck, error) {
	return j.js.PublishMsg(m, nats.Context(ctx))
}

// NATSPublisher publishes events to JetStream under <prefix>.<event type>.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetStream
	prefix  string
	service string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a publisher on an established connection with JetStream enabled.
func New(nc *nats.Conn, prefix, service string, logger *zap.Logger) (*NATSPublisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return newWithJetStream(nc, jsContext{js: js}, prefix, service, logger), nil
}

func newWithJetStream(nc *nats.Conn, js jetStream, prefix, service string, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{
		nc:      nc,
		js:      js,
		prefix:  prefix,
		service: service,
		timeout: DefaultPublishTimeout,
		logger:  logger,
	}
}

// WithTimeout sets the per-publish timeout and returns p.
func (p *NATSPublisher) WithTimeout(d time.Duration) *NATSPublisher {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t model.CatalogEventType) string {
	return p.prefix + "." + string(t)
}

// PublishCatalogEvent serializes and publishes evt.
func (p *NATSPublisher) PublishCatalogEvent(ctx context.Context, evt model.CatalogEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	subject := p.Subject(evt.Type)

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.String("event_type", string(evt.Type)),
			zap.Error(err))
		metrics.IncNATSMessage(subject, "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{string(evt.Type)},
			"event_id":     []string{uuid.NewString()},
			"service":      []string{p.service},
			"content_type": []string{"application/json"},
			"actor_role":   []string{string(evt.ActorRole)},
		},
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	_, err = p.js.PublishMsg(pubCtx, msg)
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, subject)

	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("product_id", evt.ProductID),
			zap.Error(err))
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	p.logger.Info("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("product_id", evt.ProductID))
	metrics.IncNATSMessage(subject, "ok")
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}

// Nop drops every event. Used when NATS is not configured.
type Nop struct{}

func (Nop) PublishCatalogEvent(context.Context, model.CatalogEvent) error { return nil }
func (Nop) Close()                                                       {}
