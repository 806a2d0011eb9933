package events

import (
	"context"
	"encoding/json"
	"time"

	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/config"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobhub/dashboard/events")

const (
	JobUpsertedSubject         = "jobhub.jobs.upserted"
	JobDeletedSubject          = "jobhub.jobs.deleted"
	ApplicationCreatedSubject  = "jobhub.applications.created"
	ApplicationsClearedSubject = "jobhub.applications.cleared"
)

type Envelope struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type JobEvent struct {
	Envelope
	JobID string      `json:"job_id"`
	Job   *models.Job `json:"job,omitempty"`
}

type ApplicationEvent struct {
	Envelope
	JobID     string     `json:"job_id,omitempty"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Publisher announces local mutations to other services.
type Publisher interface {
	JobUpserted(ctx context.Context, job models.Job) error
	JobDeleted(ctx context.Context, id string) error
	ApplicationCreated(ctx context.Context, rec models.ApplicationRecord) error
	ApplicationsCleared(ctx context.Context) error
	Close()
}

// Connect dials NATS. An empty NATS_URL disables messaging and returns a nil
// connection.
func Connect(cfg *config.Config, logger *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		logger.Info("NATS_URL not set, event publishing disabled")
		return nil, nil
	}

	opts := []nats.Option{
		nats.Name("jobhub-dashboard"),
		nats.Timeout(cfg.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}
	return conn, nil
}

type publishConn interface {
	Publish(subject string, data []byte) error
}

type natsPublisher struct {
	conn   publishConn
	close  func()
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher publishes on conn, or returns a NopPublisher when conn is nil.
func NewPublisher(conn *nats.Conn, logger *zap.Logger) Publisher {
	if conn == nil {
		return NopPublisher{}
	}
	return &natsPublisher{conn: conn, close: conn.Close, logger: logger, now: time.Now}
}

func (p *natsPublisher) envelope() Envelope {
	return Envelope{EventID: uuid.NewString(), OccurredAt: p.now().UTC()}
}

func (p *natsPublisher) JobUpserted(ctx context.Context, job models.Job) error {
	return p.publish(ctx, JobUpsertedSubject, JobEvent{Envelope: p.envelope(), JobID: job.ID, Job: &job})
}

func (p *natsPublisher) JobDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, JobDeletedSubject, JobEvent{Envelope: p.envelope(), JobID: id})
}

func (p *natsPublisher) ApplicationCreated(ctx context.Context, rec models.ApplicationRecord) error {
	at := rec.AppliedAt
	return p.publish(ctx, ApplicationCreatedSubject, ApplicationEvent{Envelope: p.envelope(), JobID: rec.JobID, AppliedAt: &at})
}

func (p *natsPublisher) ApplicationsCleared(ctx context.Context) error {
	return p.publish(ctx, ApplicationsClearedSubject, ApplicationEvent{Envelope: p.envelope()})
}

func (p *natsPublisher) publish(ctx context.Context, subject string, event any) error {
	_, span := tracer.Start(ctx, "Publish")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published event", zap.String("subject", subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) JobUpserted(context.Context, models.Job) error                      { return nil }
func (NopPublisher) JobDeleted(context.Context, string) error                           { return nil }
func (NopPublisher) ApplicationCreated(context.Context, models.ApplicationRecord) error { return nil }
func (NopPublisher) ApplicationsCleared(context.Context) error                          { return nil }
func (NopPublisher) Close()                                                             {}
