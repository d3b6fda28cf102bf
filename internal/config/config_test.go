package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTIssuer != "sdr-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "sdr-auth")
	}
	if cfg.JWTAudience != "sdr-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "sdr-api")
	}
	if cfg.PolicyEngine != PolicyEngineCatalog {
		t.Errorf("PolicyEngine = %q, want %q", cfg.PolicyEngine, PolicyEngineCatalog)
	}
	if !cfg.AuditEnabled {
		t.Error("AuditEnabled should default to true")
	}
	if cfg.SessionCacheSize != 4096 {
		t.Errorf("SessionCacheSize = %d, want 4096", cfg.SessionCacheSize)
	}
	if got := cfg.AuditTableList(); len(got) != 2 || got[0] != "audit_log" || got[1] != "audit_logs" {
		t.Errorf("AuditTableList = %v, want [audit_log audit_logs]", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("POLICY_ENGINE", " OPA ")
	os.Setenv("AUDIT_TABLES", "audit_logs")
	os.Setenv("SESSION_TTL", "5m")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.PolicyEngine != PolicyEngineOPA {
		t.Errorf("PolicyEngine = %q, want %q", cfg.PolicyEngine, PolicyEngineOPA)
	}
	if got := cfg.AuditTableList(); len(got) != 1 || got[0] != "audit_logs" {
		t.Errorf("AuditTableList = %v, want [audit_logs]", got)
	}
	if cfg.SessionLifetime() != 5*time.Minute {
		t.Errorf("SessionLifetime = %v, want 5m", cfg.SessionLifetime())
	}
}

func TestLoad_InvalidPolicyEngine(t *testing.T) {
	os.Clearenv()
	os.Setenv("POLICY_ENGINE", "casbin")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown POLICY_ENGINE")
	}
}

func TestLoad_AuditEnabledWithoutTables(t *testing.T) {
	os.Clearenv()
	os.Setenv("AUDIT_TABLES", " , ")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("expected error when AUDIT_TABLES is empty and audit is enabled")
	}
}

func TestLoad_InvalidSessionCacheSize(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_CACHE_SIZE", "0")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("expected error for SESSION_CACHE_SIZE=0")
	}
}

func TestDurations_FallBackOnInvalid(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "soon", SessionTTL: "-1m", BootstrapTimeout: "", OrgCacheTTL: "bad"}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.SessionLifetime() != 30*time.Minute {
		t.Errorf("SessionLifetime = %v, want 30m", cfg.SessionLifetime())
	}
	if cfg.BootstrapBound() != 3*time.Second {
		t.Errorf("BootstrapBound = %v, want 3s", cfg.BootstrapBound())
	}
	if cfg.OrgCacheLifetime() != 0 {
		t.Errorf("OrgCacheLifetime = %v, want 0", cfg.OrgCacheLifetime())
	}
}

func TestAuditTableList_Nil(t *testing.T) {
	var cfg *Config
	if got := cfg.AuditTableList(); got != nil {
		t.Errorf("AuditTableList on nil config = %v, want nil", got)
	}
}
