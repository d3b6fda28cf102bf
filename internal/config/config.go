// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Policy engine names accepted by POLICY_ENGINE.
const (
	PolicyEngineCatalog = "catalog"
	PolicyEngineOPA     = "opa"
	PolicyEngineCedar   = "cedar"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN holding users, organizations, memberships and the audit log.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file. Only needed to issue tokens (seed, authzctl).
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file used to validate access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "sdr-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "sdr-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// PolicyEngine selects the decision backend: catalog, opa or cedar.
	PolicyEngine string `mapstructure:"POLICY_ENGINE"`
	// SessionTTL is how long a bootstrapped session is kept in the session store (e.g. "30m").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// SessionCacheSize bounds the number of sessions held in memory.
	SessionCacheSize int `mapstructure:"SESSION_CACHE_SIZE"`
	// BootstrapTimeout bounds how long a request waits for session resolution before it is reported as pending.
	BootstrapTimeout string `mapstructure:"BOOTSTRAP_TIMEOUT"`
	// OrgCacheTTL is the lifetime of cached organization status lookups; "0s" disables the cache.
	OrgCacheTTL string `mapstructure:"ORG_CACHE_TTL"`

	// AuditEnabled turns the audit emitter on. When false, Record always returns false.
	AuditEnabled bool `mapstructure:"AUDIT_ENABLED"`
	// AuditTables is a comma-separated list of candidate audit tables probed in order at startup.
	AuditTables string `mapstructure:"AUDIT_TABLES"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on telemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// LogLevel is the logrus level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "sdr-auth")
	v.SetDefault("JWT_AUDIENCE", "sdr-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("POLICY_ENGINE", PolicyEngineCatalog)
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_CACHE_SIZE", 4096)
	v.SetDefault("BOOTSTRAP_TIMEOUT", "3s")
	v.SetDefault("ORG_CACHE_TTL", "5s")
	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("AUDIT_TABLES", "audit_log,audit_logs")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "sdr-authz")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	cfg.PolicyEngine = strings.ToLower(strings.TrimSpace(cfg.PolicyEngine))
	switch cfg.PolicyEngine {
	case PolicyEngineCatalog, PolicyEngineOPA, PolicyEngineCedar:
	default:
		return nil, fmt.Errorf("config: POLICY_ENGINE must be one of catalog, opa, cedar; got %q", cfg.PolicyEngine)
	}

	if cfg.SessionCacheSize <= 0 {
		return nil, errors.New("config: SESSION_CACHE_SIZE must be positive")
	}

	if cfg.AuditEnabled && len(cfg.AuditTableList()) == 0 {
		return nil, errors.New("config: AUDIT_TABLES must name at least one table when AUDIT_ENABLED is true")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// SessionLifetime parses SessionTTL. Returns 30m if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	return parseDuration(c.SessionTTL, 30*time.Minute)
}

// BootstrapBound parses BootstrapTimeout. Returns 3s if unset or invalid.
func (c *Config) BootstrapBound() time.Duration {
	return parseDuration(c.BootstrapTimeout, 3*time.Second)
}

// OrgCacheLifetime parses OrgCacheTTL. Returns 0 (cache disabled) when set to "0s" or invalid.
func (c *Config) OrgCacheLifetime() time.Duration {
	d, err := time.ParseDuration(c.OrgCacheTTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// AuditTableList returns the candidate audit tables from the comma-separated config, in probe order.
func (c *Config) AuditTableList() []string {
	if c == nil || c.AuditTables == "" {
		return nil
	}
	parts := strings.Split(c.AuditTables, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
