// Package notify publishes run outcomes to NATS so dashboards and home
// automation can follow compiles and uploads.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/retry"
)

// DefaultSubjectPrefix is used when Options.SubjectPrefix is empty.
const DefaultSubjectPrefix = "zephyrforge"

// Notification is the message body published for a finished run.
type Notification struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Project   string    `json:"project"`
	Board     string    `json:"board"`
	Status    string    `json:"status"`
	Strategy  string    `json:"strategy,omitempty"`
	Address   string    `json:"address,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// NoopPublisher drops every notification.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Notification) error { return nil }
func (NoopPublisher) Close() error                                { return nil }

// Options configures a NATSPublisher.
type Options struct {
	URL           string
	SubjectPrefix string
	// KVBucket, when set, keeps the latest notification per project in a
	// JetStream key-value bucket.
	KVBucket string
	Timeout  time.Duration
	// Retry governs re-sending after a failed publish or flush; the zero
	// value sends once.
	Retry  retry.Policy
	Logger *slog.Logger
}

type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

type keyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSPublisher publishes on <prefix>.<project>.<kind>.
type NATSPublisher struct {
	conn    conn
	kv      keyValue
	prefix  string
	timeout time.Duration
	retry   retry.Policy
	logger  *slog.Logger
}

// NewNATSPublisher connects to the server at opts.URL.
func NewNATSPublisher(ctx context.Context, opts Options) (*NATSPublisher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	nc, err := nats.Connect(opts.URL, nats.Name("zephyrforge"), nats.Timeout(opts.Timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", opts.URL).
			Build()
	}

	p := newPublisher(nc, opts)
	if opts.KVBucket != "" {
		kv, err := openBucket(ctx, nc, opts.KVBucket)
		if err != nil {
			nc.Close()
			return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to open NATS key-value bucket").
				WithContext("bucket", opts.KVBucket).
				Build()
		}
		p.kv = kv
	}
	p.logger.Info("NATS notifications enabled", slog.String("url", opts.URL), slog.String("subject_prefix", p.prefix))
	return p, nil
}

func newPublisher(c conn, opts Options) *NATSPublisher {
	prefix := opts.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSPublisher{conn: c, prefix: prefix, timeout: timeout, retry: opts.Retry, logger: logger}
}

func openBucket(ctx context.Context, nc *nats.Conn, bucket string) (jetstream.KeyValue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Latest zephyrforge run per project",
		History:     1,
	})
}

// Subject returns the subject a notification is published on.
func (p *NATSPublisher) Subject(n Notification) string {
	return strings.Join([]string{p.prefix, subjectToken(n.Project), subjectToken(n.Kind)}, ".")
}

// Publish sends n and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal notification").Build()
	}

	subject := p.Subject(n)
	attempts := 0
	err = p.retry.Do(ctx, func() error {
		attempts++
		if err := p.conn.Publish(subject, data); err != nil {
			return errors.WrapError(err, errors.CategoryNetwork, "failed to publish notification").
				WithContext("subject", subject).
				Build()
		}
		if err := p.conn.FlushTimeout(p.timeout); err != nil {
			return errors.WrapError(err, errors.CategoryNetwork, "failed to flush notification").
				WithContext("subject", subject).
				Build()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if attempts > 1 {
		p.logger.Debug("Notification delivered after retry", slog.Int("attempts", attempts))
	}

	if p.kv != nil {
		if _, err := p.kv.Put(ctx, subjectToken(n.Project), data); err != nil {
			p.logger.Warn("Failed to store latest run", logfields.Project(n.Project), logfields.Error(err))
		}
	}
	p.logger.Debug("Published run notification", slog.String("subject", subject), logfields.Project(n.Project))
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// subjectToken maps a name onto a single NATS subject token.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
