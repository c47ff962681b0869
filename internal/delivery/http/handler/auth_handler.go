package handler

import (
	"errors"

	"todolist/internal/delivery/http/middleware"
	"todolist/internal/domain/user"
	"todolist/internal/form"
	"todolist/internal/metrics"
	ucauth "todolist/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
)

// SessionCookie describes how the session token is stored in the browser.
type SessionCookie struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	uc      *ucauth.Service
	cookie  SessionCookie
	metrics *metrics.Metrics
}

func NewAuthHandler(uc *ucauth.Service, cookie SessionCookie, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{uc: uc, cookie: cookie, metrics: m}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/register/", h.RegisterForm)
	r.Post("/register/", h.Register)
	r.Get("/login/", h.LoginForm)
	r.Post("/login/", h.Login)
	r.Post("/logout/", h.Logout)
}

func (h *AuthHandler) RegisterForm(c fiber.Ctx) error {
	return render(c, fiber.StatusOK, "register", fiber.Map{
		"Form":   form.RegistrationForm{},
		"Errors": form.Errors{},
	})
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var f form.RegistrationForm
	if err := c.Bind().Form(&f); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}

	usr, err := h.uc.Register(c.Context(), f)
	if err != nil {
		if vErr, ok := form.AsValidationError(err); ok {
			f.Password1, f.Password2 = "", ""
			return render(c, fiber.StatusOK, "register", fiber.Map{"Form": f, "Errors": vErr.Errors})
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}
	h.metrics.UserRegistered()

	if err := h.startSession(c, usr); err != nil {
		return err
	}
	return redirect(c, HomePath)
}

func (h *AuthHandler) LoginForm(c fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); ok {
		return redirect(c, safeNext(c.Query("next"), HomePath))
	}
	return render(c, fiber.StatusOK, "login", fiber.Map{
		"Form":   form.LoginForm{},
		"Errors": form.Errors{},
		"Next":   c.Query("next"),
	})
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var f form.LoginForm
	if err := c.Bind().Form(&f); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}
	next := c.FormValue("next")

	usr, err := h.uc.Login(c.Context(), f)
	if err != nil {
		if vErr, ok := form.AsValidationError(err); ok {
			f.Password = ""
			return render(c, fiber.StatusOK, "login", fiber.Map{"Form": f, "Errors": vErr.Errors, "Next": next})
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}

	if err := h.startSession(c, usr); err != nil {
		return err
	}
	return redirect(c, safeNext(next, HomePath))
}

// Logout revokes the session and clears the cookie. It is POST-only so a
// cross-site GET cannot sign the user out.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if err := h.uc.Logout(c.Context(), c.Cookies(h.cookie.Name)); err != nil && !errors.Is(err, ucauth.ErrUnauthenticated) {
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}
	expireCookie(c, h.cookie.Name)
	return redirect(c, middleware.LoginPath)
}

func (h *AuthHandler) startSession(c fiber.Ctx, usr user.User) error {
	token, claims, err := h.uc.StartSession(usr)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}
