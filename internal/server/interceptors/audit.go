package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/audit"
	"sdr-juridico/backend/internal/audit/domain"
)

// ActionAccessDenied is the audit action of a call refused by AuthorizeUnary.
const ActionAccessDenied = "access_denied"

// AuditUnary returns a unary server interceptor that records denied calls and successful
// mutating calls. It must run after AuthUnary and before AuthorizeUnary.
// skipMethods is the set of full method names to not audit (e.g. the health check).
// Recording is best-effort and never affects the RPC result.
func AuditUnary(rec audit.Recorder, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if rec == nil || skipMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		ctx, ci := withCallInfo(ctx)
		resp, err := handler(ctx, req)

		ma := audit.ParseFullMethod(info.FullMethod)
		userID, _ := GetUserID(ctx)
		ev := domain.Event{
			OrgID:       ci.OrgID,
			ActorUserID: userID,
			Entity:      ma.Entity,
			Details:     map[string]any{"method": info.FullMethod},
		}
		switch {
		case ci.Denied:
			ev.Action = ActionAccessDenied
			ev.Details["cause"] = ci.Cause
			ev.Details["reason"] = ci.Reason
			ev.Details["code"] = status.Code(err).String()
		case err == nil && ma.Mutating():
			ev.Action = ma.Action
		default:
			return resp, err
		}
		rec.Record(ctx, ev)
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
