package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/association"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

// Authenticator verifies bearer tokens and resolves the caller's
// association once per request.
type Authenticator struct {
	secret   []byte
	resolver association.UseCase
	logger   logger.ZapLogger
}

func NewAuthenticator(secret string, resolver association.UseCase, log logger.ZapLogger) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		resolver: resolver,
		logger:   log,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, authorization string) (*model.Association, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return nil, apperr.Unauthenticated("missing bearer token")
	}

	claims, err := ParseToken(token, a.secret)
	if err != nil {
		a.logger.Warn("invalid token", zap.Error(err))
		return nil, apperr.Unauthenticated("invalid or expired token")
	}

	return a.resolver.ResolveOrCreate(ctx, claims.Email, claims.Name)
}

// Middleware rejects unauthenticated requests and stores the resolved
// association in the request context.
func (a *Authenticator) Middleware(resp *respond.Responder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			assoc, err := a.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return resp.Error(c, err)
			}
			c.SetRequest(req.WithContext(WithAssociation(req.Context(), assoc)))
			return next(c)
		}
	}
}

// UnaryInterceptor authenticates every call except the health and
// reflection services.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		var authorization string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				authorization = vals[0]
			}
		}

		assoc, err := a.Authenticate(ctx, authorization)
		if err != nil {
			return nil, status.Error(apperr.GRPCCode(apperr.KindOf(err)), apperr.PublicMessage(err))
		}
		return handler(WithAssociation(ctx, assoc), req)
	}
}

func isPublicMethod(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, "/grpc.health.v1.Health/") ||
		strings.HasPrefix(fullMethod, "/grpc.reflection.")
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
