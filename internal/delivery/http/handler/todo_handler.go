package handler

import (
	"errors"

	"todolist/internal/delivery/http/middleware"
	"todolist/internal/domain/todo"
	"todolist/internal/form"
	"todolist/internal/metrics"
	uctodo "todolist/internal/usecase/todo"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const editTitle = "Edit TODO"

type TodoHandler struct {
	uc      *uctodo.Service
	metrics *metrics.Metrics
}

func NewTodoHandler(uc *uctodo.Service, m *metrics.Metrics) *TodoHandler {
	return &TodoHandler{uc: uc, metrics: m}
}

// RegisterRoutes expects r to be behind the login requirement.
func (h *TodoHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Get("/new/", h.CreateForm)
	r.Post("/new/", h.Create)
	r.Get("/:id/", h.Detail)
	r.Get("/:id/edit/", h.EditForm)
	r.Post("/:id/edit/", h.Update)
	r.Get("/:id/delete/", h.ConfirmDelete)
	r.Post("/:id/delete/", h.Delete)
}

func (h *TodoHandler) List(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)

	items, err := h.uc.List(c.Context(), actor.ID)
	if err != nil {
		return mapTodoError(err, "")
	}
	return render(c, fiber.StatusOK, "todo_list", fiber.Map{"Todos": items})
}

func (h *TodoHandler) CreateForm(c fiber.Ctx) error {
	return render(c, fiber.StatusOK, "todo_form", fiber.Map{
		"Form":   form.TodoForm{},
		"Errors": form.Errors{},
	})
}

func (h *TodoHandler) Create(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)

	f, err := bindTodoForm(c)
	if err != nil {
		return err
	}

	if _, err := h.uc.Create(c.Context(), actor.ID, f); err != nil {
		if vErr, ok := form.AsValidationError(err); ok {
			return render(c, fiber.StatusOK, "todo_form", fiber.Map{"Form": f, "Errors": vErr.Errors})
		}
		return mapTodoError(err, "")
	}
	h.metrics.TodoCreated()
	return redirect(c, HomePath)
}

func (h *TodoHandler) Detail(c fiber.Ctx) error {
	t, err := h.load(c, "view")
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "todo_detail", fiber.Map{"Title": t.Title, "Todo": t})
}

func (h *TodoHandler) EditForm(c fiber.Ctx) error {
	t, err := h.load(c, "edit")
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "todo_form", fiber.Map{
		"Title":  editTitle,
		"Todo":   t,
		"Form":   form.TodoForm{Title: t.Title, Description: t.Description, Completed: t.Completed},
		"Errors": form.Errors{},
	})
}

func (h *TodoHandler) Update(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	id, ok := parseTodoID(c)
	if !ok {
		return mapTodoError(uctodo.ErrNotFound, "edit")
	}

	f, err := bindTodoForm(c)
	if err != nil {
		return err
	}

	current, err := h.uc.Update(c.Context(), actor.ID, id, f)
	if err != nil {
		if vErr, ok := form.AsValidationError(err); ok {
			return render(c, fiber.StatusOK, "todo_form", fiber.Map{"Title": editTitle, "Todo": current, "Form": f, "Errors": vErr.Errors})
		}
		return mapTodoError(err, "edit")
	}
	return redirect(c, HomePath)
}

func (h *TodoHandler) ConfirmDelete(c fiber.Ctx) error {
	t, err := h.load(c, "delete")
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "todo_confirm_delete", fiber.Map{"Todo": t})
}

func (h *TodoHandler) Delete(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	id, ok := parseTodoID(c)
	if !ok {
		return mapTodoError(uctodo.ErrNotFound, "delete")
	}

	if err := h.uc.Delete(c.Context(), actor.ID, id); err != nil {
		return mapTodoError(err, "delete")
	}
	h.metrics.TodoDeleted()
	return redirect(c, HomePath)
}

// load fetches the todo named in the path for the current user. action
// completes the forbidden message.
func (h *TodoHandler) load(c fiber.Ctx, action string) (todo.Todo, error) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := parseTodoID(c)
	if !ok {
		return todo.Todo{}, mapTodoError(uctodo.ErrNotFound, action)
	}

	t, err := h.uc.Get(c.Context(), actor.ID, id)
	if err != nil {
		return todo.Todo{}, mapTodoError(err, action)
	}
	return t, nil
}

func parseTodoID(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func bindTodoForm(c fiber.Ctx) (form.TodoForm, error) {
	var f form.TodoForm
	if err := c.Bind().Form(&f); err != nil {
		return f, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}
	f.Completed = form.Checkbox(c.FormValue("completed"))
	return f, nil
}

func mapTodoError(err error, action string) error {
	switch {
	case errors.Is(err, uctodo.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "No TODO item found matching the query.", err)
	case errors.Is(err, uctodo.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "You don't have permission to "+action+" this TODO item.", err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}
}
