package jwt

import (
	"errors"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenTypeSession = "session"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	TokenType string    `json:"token_type"`
	gjwt.RegisteredClaims
}

// ExpiresIn is the time left before the token expires.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

type Service interface {
	GenerateSessionToken(userID uuid.UUID, username string) (string, *Claims, error)
	ValidateToken(token string) (*Claims, error)
}

type HMACService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACService(secret, issuer string, ttl time.Duration) *HMACService {
	return &HMACService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *HMACService) GenerateSessionToken(userID uuid.UUID, username string) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: TokenTypeSession,
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			IssuedAt:  gjwt.NewNumericDate(now),
			NotBefore: gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func (s *HMACService) ValidateToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gjwt.ParseWithClaims(token, claims, func(t *gjwt.Token) (any, error) {
		if _, ok := t.Method.(*gjwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		gjwt.WithIssuer(s.issuer),
		gjwt.WithTimeFunc(s.now),
		gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, gjwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.TokenType != TokenTypeSession || claims.UserID == uuid.Nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
