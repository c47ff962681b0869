package handler

import (
	"net/url"
	"strings"
	"time"

	"todolist/internal/delivery/http/middleware"
	"todolist/internal/delivery/http/view"

	"github.com/gofiber/fiber/v3"
)

// HomePath is where a signed-in user lands by default.
const HomePath = "/todos/"

// noticeKey names the flash message shown once on the next rendered page.
const noticeKey = "notice"

// render writes a full page. The current user, the default title and any
// pending flash notice are added to data.
func render(c fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = view.Title(name)
	}
	if u, ok := middleware.CurrentUser(c); ok {
		data["CurrentUser"] = &u
	}
	if msg := c.Redirect().Message(noticeKey).Value; msg != "" {
		data["Flash"] = msg
	}
	return c.Status(status).Render(name, data, view.Layout)
}

func redirect(c fiber.Ctx, to string) error {
	return c.Redirect().Status(fiber.StatusFound).To(to)
}

// redirectWithNotice redirects and leaves msg for the next rendered page.
func redirectWithNotice(c fiber.Ctx, to, msg string) error {
	return c.Redirect().Status(fiber.StatusFound).With(noticeKey, msg).To(to)
}

func expireCookie(c fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// safeNext accepts only local absolute paths, falling back to def.
func safeNext(next, def string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return def
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return def
	}
	return next
}
