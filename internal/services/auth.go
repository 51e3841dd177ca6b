package services

import (
	"errors"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the access token payload. Role and Name are hints only; authority
// decisions re-read the user row.
type Claims struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

type TokenService struct {
	Secret     []byte
	TTL        time.Duration
	BcryptCost int
}

func (t TokenService) HashPassword(raw string) (string, error) {
	cost := t.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (t TokenService) VerifyPassword(raw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

func (t TokenService) Issue(u models.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		ID:   u.ID,
		Role: u.Role,
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.Secret)
}

func (t TokenService) Parse(tokenStr string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid || claims.ID == "" {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
