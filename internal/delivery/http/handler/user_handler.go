package handler

import (
	"errors"

	"todolist/internal/delivery/http/middleware"
	"todolist/internal/form"
	useruc "todolist/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
)

const (
	profilePath = "/profile/"

	profileUpdatedNotice = "Your profile was successfully updated!"
	profileInvalidNotice = "Please correct the error below."
)

type UserHandler struct {
	uc *useruc.Service
}

func NewUserHandler(uc *useruc.Service) *UserHandler {
	return &UserHandler{uc: uc}
}

// RegisterRoutes expects r to be behind the login requirement.
func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.Profile)
	r.Post("/", h.UpdateProfile)
}

func (h *UserHandler) Profile(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)

	acc, err := h.uc.GetAccount(c.Context(), actor.ID)
	if err != nil {
		return mapUserError(err)
	}

	return render(c, fiber.StatusOK, "profile", fiber.Map{
		"UserForm": form.UserForm{
			FirstName: acc.User.FirstName,
			LastName:  acc.User.LastName,
			Email:     acc.User.Email,
		},
		"ProfileForm": form.ProfileForm{
			Bio:       acc.Profile.Bio,
			Location:  acc.Profile.Location,
			BirthDate: form.FormatDate(acc.Profile.BirthDate),
		},
		"Errors": form.Errors{},
	})
}

func (h *UserHandler) UpdateProfile(c fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)

	var uf form.UserForm
	var pf form.ProfileForm
	if err := c.Bind().Form(&uf); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}
	if err := c.Bind().Form(&pf); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}

	if _, err := h.uc.UpdateAccount(c.Context(), actor.ID, uf, pf); err != nil {
		if vErr, ok := form.AsValidationError(err); ok {
			return render(c, fiber.StatusOK, "profile", fiber.Map{
				"UserForm":    uf,
				"ProfileForm": pf,
				"Errors":      vErr.Errors,
				"Notice":      profileInvalidNotice,
			})
		}
		return mapUserError(err)
	}

	return redirectWithNotice(c, profilePath, profileUpdatedNotice)
}

func mapUserError(err error) error {
	if errors.Is(err, useruc.ErrNotFound) {
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", err)
	}
	return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
}
