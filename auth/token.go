// Package auth implements e-mail OTP login and the session tokens issued
// after it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"finzora/api/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTTL = 7 * 24 * time.Hour
	issuer   = "finzora"
)

var ErrInvalidToken = errors.New("invalid token")

// Tokens signs and verifies HS256 session tokens. Every session maps to
// Subject, the single data owner.
type Tokens struct {
	secret  []byte
	Subject string
	now     func() time.Time
}

func NewTokens(secret, subject string) *Tokens {
	return &Tokens{secret: []byte(secret), Subject: subject, now: time.Now}
}

func (t *Tokens) Issue(addr string) (string, error) {
	now := t.now()
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Email: addr,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Parse(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
