package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"sdr-juridico/backend/internal/authz"
)

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	sessionIDKey = contextKey{"session_id"}
	evaluatorKey = contextKey{"evaluator"}
	callInfoKey  = contextKey{"call_info"}
)

// OrgHeader is the metadata key a caller uses to target a specific organization.
const OrgHeader = "x-org-id"

// WithIdentity returns a context with user_id and session_id set.
func WithIdentity(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok && v != ""
}

// WithEvaluator attaches the authorized call's evaluator.
func WithEvaluator(ctx context.Context, ev *authz.Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorKey, ev)
}

// GetEvaluator returns the evaluator set by AuthorizeUnary.
func GetEvaluator(ctx context.Context) (*authz.Evaluator, bool) {
	v, ok := ctx.Value(evaluatorKey).(*authz.Evaluator)
	return v, ok && v != nil
}

// TargetOrgID returns the organization named by the OrgHeader metadata, if any.
func TargetOrgID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(OrgHeader)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// CallInfo carries the authorization outcome of a call from AuthorizeUnary out to AuditUnary.
type CallInfo struct {
	OrgID  string
	Denied bool
	Cause  string
	Reason string
}

func withCallInfo(ctx context.Context) (context.Context, *CallInfo) {
	info := &CallInfo{}
	return context.WithValue(ctx, callInfoKey, info), info
}

func callInfo(ctx context.Context) *CallInfo {
	v, _ := ctx.Value(callInfoKey).(*CallInfo)
	return v
}
