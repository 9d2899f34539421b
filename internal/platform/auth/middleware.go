package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// Scheme is the Authorization header keyword.
const Scheme = "Token"

// ErrInvalidToken is returned by resolvers when no token matches the key.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the user a request runs as.
type Principal struct {
	UserID   int64
	Username string
}

// TokenResolver maps a presented key to its owning user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (Principal, error)
}

// TokenMiddleware authenticates "Authorization: Token <key>". Requests without
// a resolvable token are rejected with 401 before reaching the handler.
func TokenMiddleware(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, err := parseHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			p, err := resolver.ResolveToken(c.Request().Context(), key)
			if errors.Is(err, ErrInvalidToken) {
				return apierr.Unauthorized("Invalid token.")
			}
			if err != nil {
				return fmt.Errorf("resolve token: %w", err)
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

func parseHeader(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], Scheme) {
		return "", apierr.Unauthorized("Authentication credentials were not provided.")
	}
	switch len(parts) {
	case 1:
		return "", apierr.Unauthorized("Invalid token header. No credentials provided.")
	case 2:
		return parts[1], nil
	default:
		return "", apierr.Unauthorized("Invalid token header. Token string should not contain spaces.")
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated user, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
