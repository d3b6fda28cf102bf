package repository

import (
	"context"
	"errors"

	"sdr-juridico/backend/internal/audit/domain"
)

// ErrSinkUnavailable means the sink's storage target does not exist. It is permanent for the
// process lifetime.
var ErrSinkUnavailable = errors.New("audit: sink unavailable")

// Sink durably stores audit events.
type Sink interface {
	// Probe checks that the storage target exists. Returns ErrSinkUnavailable when it does not.
	Probe(ctx context.Context) error
	// Write stores e. Returns an error wrapping ErrSinkUnavailable when the target has gone away.
	Write(ctx context.Context, e *domain.Event) error
}
