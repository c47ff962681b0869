package form

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// UserForm edits the account fields kept on the user record.
type UserForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,max=254,email"`
}

func (f *UserForm) Validate() Errors {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// ProfileForm edits the profile record. BirthDate is submitted as YYYY-MM-DD
// and may be blank.
type ProfileForm struct {
	Bio       string `form:"bio"`
	Location  string `form:"location" validate:"max=100"`
	BirthDate string `form:"birth_date"`

	birthDate *time.Time
}

func (f *ProfileForm) Validate() Errors {
	f.Bio = strings.TrimSpace(f.Bio)
	f.Location = strings.TrimSpace(f.Location)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	f.birthDate = nil

	errs := check(f)
	if f.BirthDate != "" {
		d, err := time.Parse(DateLayout, f.BirthDate)
		if err != nil {
			errs.Add("birth_date", "Enter a valid date.")
		} else {
			f.birthDate = &d
		}
	}
	return errs
}

// ParsedBirthDate is only meaningful after a successful Validate.
func (f *ProfileForm) ParsedBirthDate() *time.Time {
	return f.birthDate
}

// FormatDate renders an optional date the way ProfileForm accepts it.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
