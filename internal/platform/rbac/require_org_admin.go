// Package rbac holds the data-service helpers handlers call after AuthorizeUnary. They return
// gRPC status errors so handlers can return them unchanged.
package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/server/interceptors"
	"sdr-juridico/backend/internal/session"
)

// caller returns the call's evaluator and its ready, authenticated snapshot.
func caller(ctx context.Context) (*authz.Evaluator, *session.Snapshot, error) {
	ev, ok := interceptors.GetEvaluator(ctx)
	if !ok {
		return nil, nil, status.Error(codes.Unauthenticated, "authorization context required")
	}
	snap := ev.Snapshot()
	if !snap.Ready() {
		return nil, nil, status.Error(codes.Unavailable, "authorization pending")
	}
	if !snap.Authenticated() {
		return nil, nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return ev, snap, nil
}

// RequireOrgAdmin ensures the caller holds the org_admin role in its active organization.
// Platform operators pass. Returns (orgID, userID, nil) on success; orgID is empty for operators
// unless the call targets an organization.
func RequireOrgAdmin(ctx context.Context) (orgID, userID string, err error) {
	ev, snap, err := caller(ctx)
	if err != nil {
		return "", "", err
	}
	if ev.IsPlatformOperator() {
		return interceptors.TargetOrgID(ctx), snap.User.ID, nil
	}
	if !ev.IsOrgAdmin() {
		return "", "", status.Error(codes.PermissionDenied, "organization admin required")
	}
	return snap.Scope.ActiveOrgID, snap.User.ID, nil
}

// RequirePlatformOperator ensures the caller is a platform operator. Returns the user id.
func RequirePlatformOperator(ctx context.Context) (string, error) {
	ev, snap, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if !ev.IsPlatformOperator() {
		return "", status.Error(codes.PermissionDenied, "platform operator required")
	}
	return snap.User.ID, nil
}
