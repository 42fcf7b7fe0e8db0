// Package auth implements the single-user login gate. A configured email
// and bcrypt password hash identify the owner; successful logins mint a
// short-lived HS256 token carried in a session cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const CookieName = "tempo_session"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Config struct {
	Email        string
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
}

type Gate struct {
	cfg Config
	now func() time.Time
}

func NewGate(cfg Config) *Gate {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Gate{cfg: cfg, now: time.Now}
}

// Enabled reports whether the gate is active. Without a signing secret
// every request passes through, which is the expected mode for local use.
func (g *Gate) Enabled() bool {
	return g.cfg.Secret != ""
}

// Login checks the credentials and returns a signed session token.
func (g *Gate) Login(email, password string) (string, error) {
	if email != g.cfg.Email {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.cfg.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(g.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the subject it was issued for.
func (g *Gate) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(g.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TTL returns the configured session lifetime.
func (g *Gate) TTL() time.Duration {
	return g.cfg.TokenTTL
}

// HashPassword is a setup helper for generating the configured hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
