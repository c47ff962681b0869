package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the one-to-one extension of a User.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Bio       string
	Location  string
	BirthDate *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
