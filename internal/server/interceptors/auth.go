package interceptors

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/logging"
	"sdr-juridico/backend/internal/security"
)

const bearerPrefix = "bearer "

// AccessValidator validates access tokens. *security.TokenProvider implements it.
type AccessValidator interface {
	ValidateAccess(token string) (security.Access, error)
}

// AuthUnary returns a unary server interceptor that resolves the caller from the Bearer
// access token and puts user and session ids in context. Public methods run anonymously when
// the token is missing or invalid; every other method is rejected with Unauthenticated.
func AuthUnary(tokens AccessValidator, publicMethods map[string]bool, l logrus.FieldLogger) grpc.UnaryServerInterceptor {
	log := logging.Component(l, "auth")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public := publicMethods[info.FullMethod]
		token := extractBearer(ctx)
		if token == "" {
			if public {
				return handler(ctx, req)
			}
			log.WithField("method", info.FullMethod).Debug("rejected call without bearer token")
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		access, err := tokens.ValidateAccess(token)
		switch {
		case err == nil:
			return handler(WithIdentity(ctx, access.UserID, access.SessionID), req)
		case public:
			return handler(ctx, req)
		}
		log.WithError(err).WithField("method", info.FullMethod).Debug("rejected invalid access token")
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
