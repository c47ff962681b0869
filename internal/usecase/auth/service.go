package auth

import (
	"context"
	"errors"
	"time"

	"todolist/internal/domain/user"
	"todolist/internal/form"
	"todolist/internal/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInternal           = errors.New("internal error")
)

const invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// SessionRevocations is the deny-list of logged-out session ids.
type SessionRevocations interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type Service struct {
	users      user.Repository
	tokens     jwt.Service
	revoked    SessionRevocations
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(users user.Repository, tokens jwt.Service, revoked SessionRevocations, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Register validates f, creates the account and returns it without its hash.
// Validation problems come back as *form.ValidationError.
func (s *Service) Register(ctx context.Context, f form.RegistrationForm) (user.User, error) {
	errs := f.Validate()

	if !errs.Has("username") {
		exists, err := s.users.ExistsByUsername(ctx, f.Username)
		if err != nil {
			return user.User{}, ErrInternal
		}
		if exists {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if !errs.Has("password1") && !errs.Has("password2") {
		for _, msg := range PasswordProblems(f.Password2, f.Username, f.Email) {
			errs.Add("password2", msg)
		}
	}
	if errs.Any() {
		return user.User{}, form.NewValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password1), s.bcryptCost)
	if err != nil {
		return user.User{}, ErrInternal
	}

	u := user.User{
		ID:           uuid.New(),
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			taken := form.Errors{}
			taken.Add("username", "A user with that username already exists.")
			return user.User{}, form.NewValidationError(taken)
		}
		s.logger.Error("create user failed", zap.String("username", f.Username), zap.Error(err))
		return user.User{}, ErrInternal
	}

	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return user.User{}, ErrInternal
	}
	s.logger.Info("user registered", zap.String("user_id", created.ID.String()))
	return sanitizeUser(created), nil
}

func (s *Service) Login(ctx context.Context, f form.LoginForm) (user.User, error) {
	if errs := f.Validate(); errs.Any() {
		return user.User{}, form.NewValidationError(errs)
	}

	u, err := s.users.GetUserByUsername(ctx, f.Username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, invalidLogin()
		}
		return user.User{}, ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(f.Password)); err != nil {
		return user.User{}, invalidLogin()
	}
	return sanitizeUser(u), nil
}

func invalidLogin() error {
	errs := form.Errors{}
	errs.Add(form.NonFieldErrors, invalidLoginMessage)
	return errors.Join(ErrInvalidCredentials, form.NewValidationError(errs))
}

// StartSession issues a signed session token for u.
func (s *Service) StartSession(u user.User) (string, *jwt.Claims, error) {
	tok, claims, err := s.tokens.GenerateSessionToken(u.ID, u.Username)
	if err != nil {
		return "", nil, ErrInternal
	}
	return tok, claims, nil
}

// Authenticate resolves a session token to the current user. Revoked tokens
// and tokens for deleted users are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, ErrUnauthenticated
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return user.User{}, ErrUnauthenticated
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Debug("revocation lookup failed", zap.Error(err))
		}
		if revoked {
			return user.User{}, ErrUnauthenticated
		}
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, ErrInternal
	}
	return sanitizeUser(u), nil
}

// Logout revokes the session until its natural expiry. Invalid tokens are
// ignored: there is nothing left to revoke.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoked == nil {
		return nil
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresIn(s.now())); err != nil {
		s.logger.Warn("session revoke failed", zap.String("user_id", claims.UserID.String()), zap.Error(err))
	}
	return nil
}

// GrantStaff flips the operator flag for username.
func (s *Service) GrantStaff(ctx context.Context, username string, staff bool) (user.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return user.User{}, err
	}
	if err := s.users.SetStaff(ctx, u.ID, staff); err != nil {
		return user.User{}, err
	}
	u.IsStaff = staff
	s.logger.Info("staff flag changed", zap.String("user_id", u.ID.String()), zap.Bool("staff", staff))
	return sanitizeUser(u), nil
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
