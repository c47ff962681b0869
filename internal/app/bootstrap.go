package app

import (
	"context"
	"fmt"
	"strings"

	"todolist/internal/config"
	"todolist/internal/delivery/http/handler"
	"todolist/internal/delivery/http/middleware"
	"todolist/internal/delivery/http/routes"
	"todolist/internal/delivery/http/view"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application over an already wired container.
func New(c *Container) *App {
	cfg := c.Config
	f := fiber.New(fiber.Config{
		AppName:     cfg.App.AppName,
		Views:       view.New(),
		ViewsLayout: view.Layout,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container from cfg and builds the app. The returned
// cleanup closes the database and Redis connections.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

// registerGlobalMiddleware installs, outermost first: metrics, access log,
// session lookup and error rendering.
func registerGlobalMiddleware(app *fiber.App, c *Container) {
	app.Use(c.Metrics.Middleware())
	app.Use(middleware.NewAccessLogMiddleware(c.Logger.Named("http")).Middleware())
	app.Use(sessionMiddleware(c).Session())
	app.Use(middleware.NewErrorMiddleware(c.Logger.Named("http")).Middleware())
}

func sessionMiddleware(c *Container) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(c.Auth, c.Config.Session.CookieName, c.Logger.Named("session"))
}

func registerRoutes(app *fiber.App, c *Container) {
	cookie := handler.SessionCookie{Name: c.Config.Session.CookieName, Secure: c.Config.Session.CookieSecure}

	reg := routes.Registry{
		Auth:     sessionMiddleware(c),
		Metrics:  c.Metrics,
		Health:   handler.NewHealthHandler(c.Repos.Store, c.Logger.Named("health")),
		Accounts: handler.NewAuthHandler(c.Auth, cookie, c.Metrics),
		Todos:    handler.NewTodoHandler(c.Todos, c.Metrics),
		Users:    handler.NewUserHandler(c.Users),
		Admin:    handler.NewAdminHandler(c.Todos),
	}
	reg.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
