package middleware

import (
	"strings"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/auth"
	"NoticeBoard/internal/identity"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderAuthToken carries the session token. Authorization: Bearer is also
// accepted.
const HeaderAuthToken = "x-auth-token"

var (
	ErrNoToken     = apperr.Authentication("No token, authorization denied")
	ErrStaleToken  = apperr.Authentication("Token no longer matches the account, please log in again")
	ErrUnknownUser = apperr.Authentication("User no longer exists")
)

// Authenticator resolves the caller from the session token and checks the
// account against live state on every request.
type Authenticator struct {
	tokens *auth.TokenIssuer
	users  identity.Store
	logger *zap.Logger
}

func NewAuthenticator(tokens *auth.TokenIssuer, users identity.Store, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

func tokenFrom(c echo.Context) string {
	if t := strings.TrimSpace(c.Request().Header.Get(HeaderAuthToken)); t != "" {
		return t
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// Require rejects requests without a valid token for an eligible account.
func (a *Authenticator) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFrom(c)
		if raw == "" {
			return ErrNoToken
		}
		claims, err := a.tokens.Verify(raw)
		if err != nil {
			return err
		}
		id, err := claims.UserID()
		if err != nil {
			return auth.ErrInvalidToken
		}

		ctx := c.Request().Context()
		u, err := a.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUnknownUser
		}
		if u.Role() != claims.Role {
			a.logger.Info("token role is stale",
				zap.String("user", id.Hex()),
				zap.String("token_role", string(claims.Role)),
				zap.String("role", string(u.Role())))
			return ErrStaleToken
		}
		if err := identity.Eligible(u); err != nil {
			return err
		}

		actor := access.Actor{ID: id, Role: u.Role(), IsAdmin: u.Base().IsAdmin}
		c.SetRequest(c.Request().WithContext(access.NewContext(ctx, actor)))
		return next(c)
	}
}
