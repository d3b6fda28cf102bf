// Package server builds the gRPC server: interceptor chain, access rules and health service.
package server

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sdr-juridico/backend/internal/audit"
	"sdr-juridico/backend/internal/server/interceptors"
)

// Deps holds the server's collaborators.
type Deps struct {
	// Tokens validates bearer access tokens.
	Tokens interceptors.AccessValidator
	// Authorize configures the guard pipeline interceptor.
	Authorize interceptors.AuthorizeConfig
	// Rules is the per-method access table. Nil uses DefaultRules.
	Rules interceptors.Rules
	// Audit records denials and mutating calls. Nil disables the audit interceptor.
	Audit audit.Recorder
	Log   logrus.FieldLogger
	// Health reports readiness. Nil registers a health server that is always SERVING.
	Health *health.Server
}

// NewServer returns a gRPC server with the interceptor chain
// logging → auth → audit → authorize, the otelgrpc stats handler, and the health service
// registered. Domain handlers register on the returned server.
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	rules := deps.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	rules = withHealthRules(rules)
	public := PublicMethods(rules)

	chain := []grpc.UnaryServerInterceptor{
		interceptors.LoggingUnary(deps.Log, public),
		interceptors.AuthUnary(deps.Tokens, public, deps.Log),
	}
	if deps.Audit != nil {
		chain = append(chain, interceptors.AuditUnary(deps.Audit, public))
	}
	chain = append(chain, interceptors.AuthorizeUnary(deps.Authorize, rules))

	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, opts...)
	s := grpc.NewServer(opts...)

	hs := deps.Health
	if hs == nil {
		hs = health.NewServer()
	}
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// PublicMethods returns the full method names whose rule is public.
func PublicMethods(rules interceptors.Rules) map[string]bool {
	out := make(map[string]bool)
	for m, r := range rules {
		if r.Public {
			out[m] = true
		}
	}
	return out
}

func withHealthRules(rules interceptors.Rules) interceptors.Rules {
	out := make(interceptors.Rules, len(rules)+2)
	for m, r := range rules {
		out[m] = r
	}
	out[healthpb.Health_Check_FullMethodName] = interceptors.Rule{Public: true}
	out[healthpb.Health_List_FullMethodName] = interceptors.Rule{Public: true}
	return out
}
