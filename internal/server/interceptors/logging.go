package interceptors

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/logging"
)

// LoggingUnary returns a unary server interceptor that logs each RPC with its status code and
// duration. Server-side failures log at warn, everything else at debug.
// skipMethods is the set of full method names to not log (e.g. the health check).
func LoggingUnary(l logrus.FieldLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	log := logging.Component(l, "grpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		entry := log.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   ClientIP(ctx),
		})
		if userID, ok := GetUserID(ctx); ok {
			entry = entry.WithField("user_id", userID)
		}
		switch code {
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			entry.WithError(err).Warn("rpc failed")
		default:
			entry.Debug("rpc")
		}
		return resp, err
	}
}
