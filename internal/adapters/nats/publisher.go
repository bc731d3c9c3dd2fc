package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/midway/internal/core/domain"
)

const (
	// StreamName holds every resolved meeting point for a day.
	StreamName = "MEETING_POINTS"
	// SubjectPrefix is followed by "<session id>.resolved".
	SubjectPrefix = "midway.session."
)

// SessionSubject returns the subject results for sessionID are published on.
func SessionSubject(sessionID string) string {
	return SubjectPrefix + sessionID + ".resolved"
}

// SessionFromSubject extracts the session ID from a result subject.
func SessionFromSubject(subject string) (string, bool) {
	const suffix = ".resolved"
	if len(subject) <= len(SubjectPrefix)+len(suffix) ||
		subject[:len(SubjectPrefix)] != SubjectPrefix ||
		subject[len(subject)-len(suffix):] != suffix {
		return "", false
	}
	return subject[len(SubjectPrefix) : len(subject)-len(suffix)], true
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + "*.resolved"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishMeetingPoint appends result to the session's subject.
func (p *Publisher) PublishMeetingPoint(ctx context.Context, sessionID string, result *domain.MeetingPointResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SessionSubject(sessionID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("midway"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
