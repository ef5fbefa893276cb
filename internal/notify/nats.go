// Package notify announces auto-created pages on a NATS subject.
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/retry"
)

const connectTimeout = 5 * time.Second

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Message is the JSON body published for every auto-created page.
type Message struct {
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	RevisionID int64     `json:"revision_id"`
	User       string    `json:"user"`
	Timestamp  time.Time `json:"timestamp"`
}

// NATSPublisher forwards PageAutoCreated events to NATS.
type NATSPublisher struct {
	conn    Conn
	subject string
	policy  retry.Policy
	logger  *slog.Logger
}

// Connect dials url and returns a publisher for subject that retries
// failed publishes according to policy.
func Connect(url, subject string, policy retry.Policy, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("autopage"),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	p := NewNATSPublisher(conn, subject, logger).WithRetry(policy)
	p.logger.Info("NATS notifications enabled", slog.String("url", url), slog.String("subject", subject))
	return p, nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn Conn, subject string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, subject: subject, policy: retry.NoRetry(), logger: logger}
}

// WithRetry sets the policy applied to failed publishes.
func (p *NATSPublisher) WithRetry(policy retry.Policy) *NATSPublisher {
	p.policy = policy
	return p
}

// Subject returns the subject messages are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

// HandleEvent is a hooks.Handler. Events other than PageAutoCreated are ignored.
func (p *NATSPublisher) HandleEvent(ctx context.Context, e hooks.Event) error {
	created, ok := e.(*hooks.PageAutoCreated)
	if !ok {
		return nil
	}
	return p.PublishCreated(ctx, created)
}

// PublishCreated publishes one message and flushes it to the server.
func (p *NATSPublisher) PublishCreated(ctx context.Context, e *hooks.PageAutoCreated) error {
	payload := e.Payload()
	data, err := json.Marshal(Message{
		Source:     payload.Source,
		Title:      payload.Title,
		RevisionID: payload.RevisionID,
		User:       payload.User,
		Timestamp:  payload.Timestamp,
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal notification").Build()
	}

	attempt := 0
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.logger.Warn("Retrying page notification",
				logfields.TargetTitle(payload.Title),
				slog.Int("attempt", attempt))
		}
		return p.publish(ctx, data)
	})
	if err != nil {
		return err
	}

	p.logger.Debug("Published page notification",
		logfields.SourcePage(payload.Source),
		logfields.TargetTitle(payload.Title),
		logfields.RevisionID(payload.RevisionID))
	return nil
}

// publish sends data once. A closed connection is final; other publish
// failures are retried with backoff. A failed flush already waited for its
// own timeout, so it is retried immediately.
func (p *NATSPublisher) publish(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		b := errors.WrapError(err, errors.CategoryNotify, "failed to publish notification").
			WithContext("subject", p.subject)
		if !stderrors.Is(err, nats.ErrConnectionClosed) {
			b = b.Retryable()
		}
		return b.Build()
	}
	flushCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to flush notification").
			WithContext("subject", p.subject).
			WithRetry(errors.RetryImmediate).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

var _ Conn = (*nats.Conn)(nil)
