package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Repository interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	SetStaff(ctx context.Context, id uuid.UUID, staff bool) error
	ListUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

type ProfileRepository interface {
	// GetOrCreateProfile returns the user's profile, inserting an empty one
	// when absent. created reports whether the insert happened.
	GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (p Profile, created bool, err error)

	// UpdateAccount writes the user's name/email fields and the profile
	// fields as one unit: either both are persisted or neither is.
	UpdateAccount(ctx context.Context, u User, p Profile) error
}
