package guard

import (
	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/logging"
)

type options struct {
	redirect string
	fallback *string
	bypass   bool
	log      logrus.FieldLogger
}

// Option configures a guard.
type Option func(*options)

// WithRedirect replaces the default redirect target of denials (except unauthenticated, which
// always goes to PathLogin).
func WithRedirect(target string) Option {
	return func(o *options) { o.redirect = target }
}

// WithFallback makes denials render content instead of redirecting.
func WithFallback(content string) Option {
	return func(o *options) { o.fallback = &content }
}

// WithoutOperatorBypass disables the platform operator bypass of OrgAdmin and OrgActive.
func WithoutOperatorBypass() Option {
	return func(o *options) { o.bypass = false }
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	o := options{bypass: true}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.Component(o.log, "guard")
	return o
}

// deny builds a denial with the configured disposition, defaulting the redirect to def.
func (o options) deny(guard string, cause Cause, reason, def string) Decision {
	d := Decision{State: StateDenied, Cause: cause, Reason: reason, Guard: guard}
	switch {
	case o.fallback != nil:
		d.Disposition = Disposition{Kind: DispositionFallback, Fallback: *o.fallback}
	case o.redirect != "":
		d.Disposition = Disposition{Kind: DispositionRedirect, Target: o.redirect}
	default:
		d.Disposition = Disposition{Kind: DispositionRedirect, Target: def}
	}
	return d
}
