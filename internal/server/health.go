package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sdr-juridico/backend/internal/logging"
)

// Pinger checks a backing store. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the compiled policy. The OPA and Cedar engines implement it.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Readiness sets the overall ("") serving status from the database and policy engine checks.
type Readiness struct {
	Health *health.Server
	DB     Pinger
	Policy PolicyChecker
	// Timeout bounds one round of checks. Defaults to 2s.
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// Check runs one round and returns the status it set.
func (r Readiness) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	log := logging.Component(r.Log, "health")

	st := healthpb.HealthCheckResponse_SERVING
	if r.DB != nil {
		if err := r.DB.PingContext(ctx); err != nil {
			log.WithError(err).Warn("database ping failed")
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if r.Policy != nil {
		if err := r.Policy.HealthCheck(ctx); err != nil {
			log.WithError(err).Warn("policy engine check failed")
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if r.Health != nil {
		r.Health.SetServingStatus("", st)
	}
	return st
}

// Watch runs Check every interval until ctx is done.
func (r Readiness) Watch(ctx context.Context, interval time.Duration) {
	r.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Check(ctx)
		}
	}
}
