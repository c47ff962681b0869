package handler

import (
	uctodo "todolist/internal/usecase/todo"

	"github.com/gofiber/fiber/v3"
)

// AdminHandler serves the staff-only listing of every user's todos.
type AdminHandler struct {
	todos *uctodo.Service
}

func NewAdminHandler(todos *uctodo.Service) *AdminHandler {
	return &AdminHandler{todos: todos}
}

// RegisterRoutes expects r to be behind the staff requirement.
func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/todos/", h.ListTodos)
}

func (h *AdminHandler) ListTodos(c fiber.Ctx) error {
	q := uctodo.AdminQuery{
		Completed: c.Query("completed"),
		Created:   c.Query("created"),
		Search:    c.Query("q"),
	}

	rows, err := h.todos.ListAll(c.Context(), q)
	if err != nil {
		return mapTodoError(err, "")
	}
	return render(c, fiber.StatusOK, "admin_todos", fiber.Map{"Rows": rows, "Query": q})
}
