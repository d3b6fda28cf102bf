package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/health"

	"sdr-juridico/backend/internal/audit"
	auditrepo "sdr-juridico/backend/internal/audit/repository"
	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/config"
	"sdr-juridico/backend/internal/db"
	"sdr-juridico/backend/internal/identity"
	"sdr-juridico/backend/internal/logging"
	membershiprepo "sdr-juridico/backend/internal/membership/repository"
	orgrepo "sdr-juridico/backend/internal/organization/repository"
	"sdr-juridico/backend/internal/policy/engine"
	"sdr-juridico/backend/internal/scope"
	"sdr-juridico/backend/internal/security"
	"sdr-juridico/backend/internal/server"
	"sdr-juridico/backend/internal/server/interceptors"
	"sdr-juridico/backend/internal/session"
	telotel "sdr-juridico/backend/internal/telemetry/otel"
	userrepo "sdr-juridico/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telotel.NewProviders(ctx, telotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
		Log:         logger,
	})
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("telemetry shutdown")
		}
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	members := membershiprepo.NewPostgresRepository(conn)
	var orgs orgrepo.Repository = orgrepo.NewPostgresRepository(conn)
	if ttl := cfg.OrgCacheLifetime(); ttl > 0 {
		orgs = orgrepo.NewCachedRepository(orgs, 1024, ttl)
	}

	scopes := scope.NewResolver(members, orgs, logger)
	eng, err := engine.New(ctx, cfg.PolicyEngine, logger)
	if err != nil {
		logger.Fatalf("policy engine: %v", err)
	}
	ident := identity.NewRepositoryProvider(users, interceptors.GetUserID)

	store := session.NewStore(session.Deps{
		Identity: ident,
		Scopes:   scopes,
		Orgs:     orgs,
		Log:      logger,
		Timeout:  cfg.BootstrapBound(),
	}, cfg.SessionCacheSize, cfg.SessionLifetime())
	defer store.Purge()

	tokens, err := security.LoadProvider(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		logger.Fatalf("jwt keys: %v", err)
	}

	var recorder audit.Recorder
	if cfg.AuditEnabled {
		em := audit.NewEmitter(
			auditrepo.NewPostgresSink(conn, cfg.AuditTableList()...),
			audit.WithMirror(telotel.NewAuditMirror(providers.LoggerProvider)),
			audit.WithIPExtractor(interceptors.ClientIP),
			audit.WithLogger(logger),
		)
		if err := em.Probe(ctx); err != nil {
			if em.Disabled() {
				logger.WithError(err).Warn("audit sink unavailable, audit disabled")
			} else {
				logger.WithError(err).Warn("audit sink check failed, retrying on first record")
			}
		}
		recorder = em
	}

	hs := health.NewServer()
	readiness := server.Readiness{Health: hs, DB: conn, Log: logger}
	if hc, ok := eng.(engine.HealthChecker); ok {
		readiness.Policy = hc
	}
	go readiness.Watch(ctx, 15*time.Second)

	meter := providers.MeterProvider.Meter("sdr-juridico/backend/internal/authz")
	s := server.NewServer(server.Deps{
		Tokens: tokens,
		Authorize: interceptors.AuthorizeConfig{
			Sessions: store,
			Evaluator: func(sess *session.Session) *authz.Evaluator {
				return authz.New(sess, authz.Deps{
					Identity: ident,
					Scopes:   scopes,
					Engine:   eng,
					Log:      logger,
					Meter:    meter,
				})
			},
			Bound: cfg.BootstrapBound(),
			Log:   logger,
		},
		Audit:  recorder,
		Log:    logger,
		Health: hs,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}

	go func() {
		logger.WithField("addr", cfg.GRPCAddr).WithField("policy_engine", eng.Name()).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			logger.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gRPC server")
	hs.Shutdown()
	s.GracefulStop()
	logger.Info("gRPC server stopped")
}
