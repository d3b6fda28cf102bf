package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/server/interceptors"
)

// RequireActiveOrg ensures the caller works in an operational organization and returns its id.
// Platform operators pass and get the targeted organization, if any.
func RequireActiveOrg(ctx context.Context) (string, error) {
	ev, snap, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if ev.IsPlatformOperator() {
		return interceptors.TargetOrgID(ctx), nil
	}
	if !snap.Scope.HasOrg() || snap.Org == nil {
		return "", status.Error(codes.FailedPrecondition, "no organization assigned")
	}
	if !snap.Org.IsOperational() {
		return "", status.Errorf(codes.FailedPrecondition, "organization is %s", snap.Org.Status)
	}
	return snap.Scope.ActiveOrgID, nil
}
