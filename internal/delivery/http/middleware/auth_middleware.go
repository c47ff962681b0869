package middleware

import (
	"context"
	"errors"
	"net/url"

	"todolist/internal/domain/user"
	"todolist/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const (
	CtxUserKey = "current_user"

	LoginPath = "/accounts/login/"
)

// Authenticator resolves a session token into the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
	logger     *zap.Logger
}

func NewAuthMiddleware(a Authenticator, cookieName string, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{auth: a, cookieName: cookieName, logger: logger}
}

// Session resolves the session cookie, if any, and stores the user in
// Locals. It never rejects a request; a stale cookie is cleared.
func (m *AuthMiddleware) Session() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(m.cookieName)
		if token == "" {
			return c.Next()
		}

		u, err := m.auth.Authenticate(c.Context(), token)
		switch {
		case err == nil:
			c.Locals(CtxUserKey, u)
		case errors.Is(err, auth.ErrUnauthenticated):
			c.ClearCookie(m.cookieName)
		default:
			m.logger.Warn("session lookup failed", zap.Error(err))
		}
		return c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page, remembering where
// they were going.
func (m *AuthMiddleware) RequireLogin() fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return c.Redirect().Status(fiber.StatusFound).To(LoginURL(c.OriginalURL()))
		}
		return c.Next()
	}
}

// RequireStaff must run after RequireLogin.
func (m *AuthMiddleware) RequireStaff() fiber.Handler {
	return func(c fiber.Ctx) error {
		u, ok := CurrentUser(c)
		if !ok || !u.IsStaff {
			return NewAppError(fiber.StatusForbidden, "You don't have permission to access this page.", nil)
		}
		return c.Next()
	}
}

// CurrentUser returns the user resolved by Session.
func CurrentUser(c fiber.Ctx) (user.User, bool) {
	u, ok := c.Locals(CtxUserKey).(user.User)
	return u, ok
}

func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}
