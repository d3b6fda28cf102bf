package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/server/interceptors"
)

// RequirePermission runs a fresh check of action on resource against the organization the call
// targets (or the caller's active one). Resolution failures map to Unavailable, never to a
// decision; an operator targeting an organization that does not exist gets NotFound.
func RequirePermission(ctx context.Context, resource permission.Resource, action permission.Action) (*authz.Evaluator, error) {
	ev, ok := interceptors.GetEvaluator(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authorization context required")
	}
	res, err := ev.CheckTarget(ctx, resource, action, interceptors.TargetOrgID(ctx))
	if err != nil {
		return nil, status.Error(codes.Unavailable, "authorization could not be resolved")
	}
	if !res.Allowed {
		switch res.Reason {
		case authz.ReasonNotAuthenticated:
			return nil, status.Error(codes.Unauthenticated, res.Reason)
		case authz.ReasonOrgNotFound:
			return nil, status.Error(codes.NotFound, res.Reason)
		}
		return nil, status.Error(codes.PermissionDenied, res.Reason)
	}
	return ev, nil
}
