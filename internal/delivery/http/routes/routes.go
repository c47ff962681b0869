package routes

import (
	"todolist/internal/delivery/http/handler"
	"todolist/internal/delivery/http/middleware"
	"todolist/internal/metrics"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Auth    *middleware.AuthMiddleware
	Metrics *metrics.Metrics

	Health   *handler.HealthHandler
	Accounts *handler.AuthHandler
	Todos    *handler.TodoHandler
	Users    *handler.UserHandler
	Admin    *handler.AdminHandler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerOperational(app)
	r.registerPages(app)
}

func (r *Registry) registerOperational(app *fiber.App) {
	r.Health.RegisterRoutes(app)
	if r.Metrics != nil {
		app.Get("/metrics", r.Metrics.Handler())
	}
}

func (r *Registry) registerPages(app *fiber.App) {
	app.Get("/", func(c fiber.Ctx) error {
		return c.Redirect().Status(fiber.StatusMovedPermanently).To(handler.HomePath)
	})

	r.Accounts.RegisterRoutes(app.Group("/accounts"))

	login := r.Auth.RequireLogin()
	r.Todos.RegisterRoutes(app.Group("/todos", login))
	r.Users.RegisterRoutes(app.Group("/profile", login))
	r.Admin.RegisterRoutes(app.Group("/admin", login, r.Auth.RequireStaff()))
}
