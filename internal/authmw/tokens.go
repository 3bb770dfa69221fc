package authmw

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the HS256 bearer tokens handed out by
// /auth/register and /auth/login.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// optional clock skew
	Leeway time.Duration
}

// Build once at startup
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &TokenService{
		secret: secret,
		ttl:    ttl,
		Leeway: 30 * time.Second,
	}, nil
}

type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
}

// Issue signs a token for the given user. Subject carries the user id.
func (s *TokenService) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: username,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies signature and expiry and returns the embedded claims.
func (s *TokenService) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithLeeway(s.Leeway),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Username == "" {
		return nil, errors.New("token missing identity claims")
	}

	return claims, nil
}
