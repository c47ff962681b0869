package user

import (
	"context"
	"errors"

	"todolist/internal/domain/user"
	"todolist/internal/form"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrInternal = errors.New("internal error")
)

const backfillPageSize = 200

// Account is a user together with its profile.
type Account struct {
	User    user.User
	Profile user.Profile
}

type BackfillResult struct {
	Scanned int
	Created int
}

type Service struct {
	users    user.Repository
	profiles user.ProfileRepository
	logger   *zap.Logger
}

func NewService(users user.Repository, profiles user.ProfileRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, profiles: profiles, logger: logger}
}

// GetAccount loads the actor and its profile, creating an empty profile the
// first time.
func (s *Service) GetAccount(ctx context.Context, actor uuid.UUID) (Account, error) {
	usr, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Account{}, ErrNotFound
		}
		return Account{}, ErrInternal
	}

	prof, created, err := s.profiles.GetOrCreateProfile(ctx, actor)
	if err != nil {
		s.logger.Error("get or create profile failed", zap.String("user_id", actor.String()), zap.Error(err))
		return Account{}, ErrInternal
	}
	if created {
		s.logger.Info("profile created", zap.String("user_id", actor.String()))
	}
	return Account{User: sanitizeUser(usr), Profile: prof}, nil
}

// UpdateAccount validates both forms and only then writes the user and
// profile fields together. On validation failure nothing is written and the
// merged field errors come back as *form.ValidationError.
func (s *Service) UpdateAccount(ctx context.Context, actor uuid.UUID, uf form.UserForm, pf form.ProfileForm) (Account, error) {
	acc, err := s.GetAccount(ctx, actor)
	if err != nil {
		return Account{}, err
	}

	errs := uf.Validate()
	errs.Merge(pf.Validate())
	if errs.Any() {
		return acc, form.NewValidationError(errs)
	}

	usr := acc.User
	usr.FirstName = uf.FirstName
	usr.LastName = uf.LastName
	usr.Email = uf.Email

	prof := acc.Profile
	prof.Bio = pf.Bio
	prof.Location = pf.Location
	prof.BirthDate = pf.ParsedBirthDate()

	if err := s.profiles.UpdateAccount(ctx, usr, prof); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Account{}, ErrNotFound
		}
		s.logger.Error("update account failed", zap.String("user_id", actor.String()), zap.Error(err))
		return Account{}, ErrInternal
	}

	return s.GetAccount(ctx, actor)
}

// BackfillProfiles makes sure every user has a profile. Running it again
// creates nothing new.
func (s *Service) BackfillProfiles(ctx context.Context) (BackfillResult, error) {
	var res BackfillResult
	for offset := 0; ; offset += backfillPageSize {
		ids, err := s.users.ListUserIDs(ctx, backfillPageSize, offset)
		if err != nil {
			return res, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			_, created, err := s.profiles.GetOrCreateProfile(ctx, id)
			if err != nil {
				return res, err
			}
			res.Scanned++
			if created {
				res.Created++
			}
		}
		if len(ids) < backfillPageSize {
			break
		}
	}

	s.logger.Info("profile backfill finished", zap.Int("scanned", res.Scanned), zap.Int("created", res.Created))
	return res, nil
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
