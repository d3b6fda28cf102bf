package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"sdr-juridico/backend/internal/audit"
	"sdr-juridico/backend/internal/audit/domain"
)

type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// AuditMirror sends audit events as OTel log records.
type AuditMirror struct {
	logger recordEmitter
}

var _ audit.Mirror = (*AuditMirror)(nil)

// NewAuditMirror returns a mirror logging through provider, or nil when provider is nil.
func NewAuditMirror(provider *sdklog.LoggerProvider) *AuditMirror {
	if provider == nil {
		return nil
	}
	return &AuditMirror{logger: provider.Logger("sdr.audit")}
}

// Mirror emits e. Details become the JSON body.
func (m *AuditMirror) Mirror(ctx context.Context, e *domain.Event) {
	if m == nil || e == nil {
		return
	}
	rec := otellog.Record{}
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			rec.SetBody(otellog.BytesValue(b))
		}
	}
	attrs := []struct{ k, v string }{
		{"audit.id", e.ID},
		{"org_id", e.OrgID},
		{"user_id", e.ActorUserID},
		{"action", e.Action},
		{"entity", e.Entity},
		{"entity_id", e.EntityID},
	}
	for _, a := range attrs {
		if a.v != "" {
			rec.AddAttributes(otellog.String(a.k, a.v))
		}
	}
	m.logger.Emit(ctx, rec)
}
