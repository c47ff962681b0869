package form

import "strings"

type TodoForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description"`
	Completed   bool   `form:"-"` // set from Checkbox; browsers submit "on"
}

func (f *TodoForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
}

// Validate normalizes f in place and reports field errors.
func (f *TodoForm) Validate() Errors {
	f.Normalize()
	return check(f)
}
