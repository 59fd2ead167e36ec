// Package session holds the state of one build invocation: the board, the
// accumulated Kconfig options, the hardware bus arena and the devicetree
// overlay fragments. A Session is used from a single goroutine.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
)

// Session is the explicit build context threaded through arbitration,
// project layout and builds.
type Session struct {
	ID      string
	Project string
	Board   *board.Descriptor

	options  *Options
	pool     *Pool
	overlays []string
	softI2C  int
	ota      bool

	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRecorder sets the metrics recorder for peripheral allocations.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithClock overrides time.Now for the firmware version stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID fixes the session id (tests, replays).
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// New starts a session for project on board d. Buses start disabled, the
// base firmware options are applied and the board's base overlays are
// appended before any peripheral request.
func New(project string, d *board.Descriptor, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Project:  project,
		Board:    d,
		options:  NewOptions(),
		pool:     NewPool(d),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(logfields.SessionID(s.ID), logfields.Board(d.Name))

	s.SetOptions([]KV{
		{"CONFIG_SPI", false},
		{"CONFIG_I2C", false},
	})
	s.SetOptions(baseOptions(project, versionStamp(s.now())))
	for _, frag := range d.BaseOverlays {
		s.AppendOverlay(frag)
	}
	return s
}

// KV is one option assignment.
type KV struct {
	Key   string
	Value any
}

// SetOption assigns one Kconfig option, replacing an earlier value.
func (s *Session) SetOption(key string, value any) {
	s.options.Set(key, value)
}

// SetOptions assigns options in order.
func (s *Session) SetOptions(pairs []KV) {
	for _, kv := range pairs {
		s.options.Set(kv.Key, kv.Value)
	}
}

// Options exposes the accumulated option set.
func (s *Session) Options() *Options { return s.options }

// AppendOverlay adds a devicetree fragment. Fragments are never removed.
func (s *Session) AppendOverlay(text string) {
	s.overlays = append(s.overlays, text)
}

// Overlays returns a copy of the fragments in registration order.
func (s *Session) Overlays() []string {
	out := make([]string, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// ApplicationOverlay is the app.overlay content: every fragment in order
// followed by the board's application flash layout.
func (s *Session) ApplicationOverlay() string {
	return strings.Join(s.overlays, "") + s.Board.FlashLayoutOverlay(board.ImageApplication)
}

// BootloaderOverlay is the overlay appended to the mcuboot source tree.
func (s *Session) BootloaderOverlay() string {
	return s.Board.BootOverlay()
}

// Pool exposes the hardware arena (read-only use).
func (s *Session) Pool() *Pool { return s.pool }

// OTAEnabled reports whether EnableOTA was called.
func (s *Session) OTAEnabled() bool { return s.ota }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// versionStamp renders the image version passed to imgtool: yy.m.d+hhmmss.
func versionStamp(t time.Time) string {
	build := t.Hour()*10000 + t.Minute()*100 + t.Second()
	return fmt.Sprintf("%d.%d.%d+%d", t.Year()-2000, int(t.Month()), t.Day(), build)
}
