package middleware

import (
	"strings"

	"jobtracker/internal/common"
	"jobtracker/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenParser validates access tokens. *services.CredentialService implements it.
type TokenParser interface {
	ParseAccessToken(token string) (*services.AccessClaims, error)
}

// JWTMiddleware attaches the caller identity when a valid bearer token is
// present. A missing or invalid token leaves the request anonymous; operations
// that need a caller reject it themselves.
func JWTMiddleware(tokens TokenParser, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(tokenString) == "" {
				logger.Debug("ignoring malformed authorization header")
				return next(c)
			}

			claims, err := tokens.ParseAccessToken(strings.TrimSpace(tokenString))
			if err != nil {
				logger.Debug("ignoring invalid access token", zap.Error(err))
				return next(c)
			}

			identity, err := claims.Identity()
			if err != nil {
				logger.Debug("ignoring access token with bad subject", zap.Error(err))
				return next(c)
			}

			ctx := common.WithIdentity(c.Request().Context(), identity)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
