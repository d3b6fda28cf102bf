// Package audit records authorization-relevant events. Recording is best-effort: it never
// returns errors to the caller and stops touching a sink whose storage target is absent.
package audit

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/audit/domain"
	auditrepo "sdr-juridico/backend/internal/audit/repository"
	"sdr-juridico/backend/internal/logging"
)

// SentinelOrgID is the org_id used for events that have no org (e.g. operator actions, denials
// before an org is resolved).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// Mirror receives a copy of every recorded event. Mirrors cannot fail a record.
type Mirror interface {
	Mirror(ctx context.Context, e *domain.Event)
}

// Recorder is what callers depend on. *Emitter implements it.
type Recorder interface {
	Record(ctx context.Context, e domain.Event) bool
}

// Emitter writes events to a durable sink plus optional mirrors.
type Emitter struct {
	sink        auditrepo.Sink
	mirrors     []Mirror
	ipExtractor IPExtractor
	log         logrus.FieldLogger
	now         func() time.Time

	disabled atomic.Bool
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithMirror adds a mirror.
func WithMirror(m Mirror) Option {
	return func(e *Emitter) {
		if m != nil {
			e.mirrors = append(e.mirrors, m)
		}
	}
}

// WithIPExtractor records the client IP under details["ip"].
func WithIPExtractor(f IPExtractor) Option {
	return func(e *Emitter) { e.ipExtractor = f }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Emitter) { e.log = l }
}

// NewEmitter returns an emitter writing to sink. A nil sink yields an emitter whose Record always
// returns false (mirrors still receive events).
func NewEmitter(sink auditrepo.Sink, opts ...Option) *Emitter {
	e := &Emitter{sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.Component(e.log, "audit")
	if sink == nil {
		e.disabled.Store(true)
	}
	return e
}

// Probe checks the sink once at startup. A missing storage target disables the emitter for the
// process lifetime; other errors are returned and leave it enabled.
func (e *Emitter) Probe(ctx context.Context) error {
	if e.Disabled() {
		return auditrepo.ErrSinkUnavailable
	}
	err := e.sink.Probe(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, auditrepo.ErrSinkUnavailable) {
		e.disable(err)
	}
	return err
}

// Disabled reports whether the emitter has stopped writing to its sink.
func (e *Emitter) Disabled() bool { return e.disabled.Load() }

// Record stores ev and reports whether it was durably recorded. It never panics and never
// returns an error.
func (e *Emitter) Record(ctx context.Context, ev domain.Event) (ok bool) {
	if e == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Error("audit record panicked")
			ok = false
		}
	}()

	e.fill(ctx, &ev)
	for _, m := range e.mirrors {
		m.Mirror(ctx, &ev)
	}

	if e.Disabled() {
		return false
	}
	err := e.sink.Write(ctx, &ev)
	if err == nil {
		return true
	}
	if errors.Is(err, auditrepo.ErrSinkUnavailable) {
		e.disable(err)
		return false
	}
	e.log.WithError(err).WithFields(logrus.Fields{
		"action": ev.Action,
		"entity": ev.Entity,
		"org_id": ev.OrgID,
	}).Warn("audit write failed")
	return false
}

func (e *Emitter) fill(ctx context.Context, ev *domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OrgID == "" {
		ev.OrgID = SentinelOrgID
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = e.now().UTC()
	}
	if e.ipExtractor != nil {
		if ip := e.ipExtractor(ctx); ip != "" {
			details := make(map[string]any, len(ev.Details)+1)
			for k, v := range ev.Details {
				details[k] = v
			}
			details["ip"] = ip
			ev.Details = details
		}
	}
}

func (e *Emitter) disable(cause error) {
	if e.disabled.CompareAndSwap(false, true) {
		e.log.WithError(cause).Warn("audit sink unavailable; audit disabled for process lifetime")
	}
}
