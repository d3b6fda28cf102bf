package interceptors

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/guard"
	"sdr-juridico/backend/internal/logging"
	"sdr-juridico/backend/internal/session"
)

// Rule is the access rule of one full method.
type Rule struct {
	// Public methods skip authorization entirely.
	Public   bool
	Pipeline guard.Pipeline
}

// Rules maps full method names to rules. Methods without a rule are denied.
type Rules map[string]Rule

// SessionOpener returns the session for a (session, user) pair. *session.Store implements it.
type SessionOpener interface {
	Open(sessionID, userID string) (*session.Session, error)
}

// AuthorizeConfig holds AuthorizeUnary's collaborators.
type AuthorizeConfig struct {
	Sessions SessionOpener
	// Evaluator builds the evaluator of one call.
	Evaluator func(*session.Session) *authz.Evaluator
	// Bound caps how long a call waits for session resolution.
	Bound time.Duration
	Log   logrus.FieldLogger
}

// AuthorizeUnary returns a unary server interceptor that runs the method's guard pipeline
// against the caller's session. It must run after AuthUnary.
//
// Pending decisions map to Unavailable, denials redirecting to login to Unauthenticated, and all
// other denials to PermissionDenied. Allowed calls get the evaluator in context.
func AuthorizeUnary(cfg AuthorizeConfig, rules Rules) grpc.UnaryServerInterceptor {
	log := logging.Component(cfg.Log, "authorize")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		rule, ok := rules[info.FullMethod]
		if ok && rule.Public {
			return handler(ctx, req)
		}
		ci := callInfo(ctx)
		deny := func(code codes.Code, cause, reason string) error {
			if ci != nil {
				ci.Denied, ci.Cause, ci.Reason = true, cause, reason
			}
			return status.Error(code, reason)
		}
		if !ok {
			log.WithField("method", info.FullMethod).Warn("no access rule for method; denying")
			return nil, deny(codes.PermissionDenied, string(guard.CauseMisconfigured), "no access rule for method")
		}

		userID, okUser := GetUserID(ctx)
		sessionID, okSess := GetSessionID(ctx)
		if !okUser || !okSess {
			return nil, deny(codes.Unauthenticated, string(guard.CauseUnauthenticated), "authentication required")
		}
		sess, err := cfg.Sessions.Open(sessionID, userID)
		if err != nil {
			if errors.Is(err, session.ErrSubjectMismatch) {
				return nil, deny(codes.Unauthenticated, string(guard.CauseUnauthenticated), "session does not belong to caller")
			}
			return nil, status.Error(codes.Internal, "failed to open session")
		}

		ev := cfg.Evaluator(sess)
		d := rule.Pipeline.EvaluateSession(ctx, sess, cfg.Bound, ev)
		snap := ev.Snapshot()
		if ci != nil && snap != nil {
			ci.OrgID = snap.Scope.ActiveOrgID
		}
		switch {
		case d.Pending():
			if d.Err != nil {
				log.WithError(d.Err).WithField("session_id", sessionID).Warn("session resolution failed")
			}
			return nil, status.Error(codes.Unavailable, "authorization pending: "+d.String())
		case d.Denied():
			code := codes.PermissionDenied
			if d.Disposition.Kind == guard.DispositionRedirect && d.Disposition.Target == guard.PathLogin {
				code = codes.Unauthenticated
			}
			return nil, deny(code, string(d.Cause), d.String())
		}

		if target := TargetOrgID(ctx); target != "" && !snap.Scope.IsPlatformOperator && target != snap.Scope.ActiveOrgID {
			return nil, deny(codes.PermissionDenied, "cross_org", authz.ReasonCrossOrg)
		}
		return handler(WithEvaluator(ctx, ev), req)
	}
}
