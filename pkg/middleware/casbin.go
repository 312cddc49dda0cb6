package middleware

import (
	"NoticeBoard/internal/access"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RBAC enforces route grants with the casbin policy, using the matched route
// path as the object and the request method as the action. It must run after
// Authenticator.Require.
func RBAC(policy *access.Policy, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := access.FromContext(c.Request().Context())
			if !ok {
				return ErrNoToken
			}
			allowed, err := policy.Allowed(actor.Subject(), c.Path(), c.Request().Method)
			if err != nil {
				logger.Error("casbin enforce failed", zap.String("path", c.Path()), zap.Error(err))
				return err
			}
			if !allowed {
				return access.ErrForbidden
			}
			return next(c)
		}
	}
}
