package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/model"
)

// TokenService is the identity resolver: it issues bearer credentials for
// authenticated users and maps presented credentials back to a user id.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	clock     Clock
}

func NewTokenService(secret string, expiresIn time.Duration, clock Clock) *TokenService {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn, clock: clock}
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID uuid.UUID) (*model.Token, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.expiresIn)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &model.Token{Token: signed, ExpiresAt: expiresAt}, nil
}

// Resolve maps a presented credential to the user id it was issued for.
// The credential is opaque to callers; all failures surface as auth errors.
func (s *TokenService) Resolve(credential string) (uuid.UUID, error) {
	if credential == "" {
		return uuid.Nil, apperrors.Unauthorized("Missing credential")
	}

	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, apperrors.TokenExpired().WithCause(err)
		}
		return uuid.Nil, apperrors.InvalidToken("Credential is invalid").WithCause(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, apperrors.InvalidToken("Credential is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperrors.InvalidToken("Credential subject is not a user id").WithCause(err)
	}

	return userID, nil
}
