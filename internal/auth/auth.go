// Package auth issues and checks the admin dashboard's login tokens.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadToken           = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const DefaultTokenTTL = 12 * time.Hour

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func MakeToken(email, secret string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

type Config struct {
	AdminEmail   string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// Authenticator holds the single admin credential.
type Authenticator struct {
	email  string
	hash   string
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg Config) *Authenticator {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		email:  strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		hash:   cfg.PasswordHash,
		secret: cfg.JWTSecret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether tokens are issued and enforced at all.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.secret != ""
}

// Login checks the admin credential and returns a signed token.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(strings.TrimSpace(email)) != a.email || !CheckPassword(a.hash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return MakeToken(a.email, a.secret, a.now(), a.ttl)
}

func (a *Authenticator) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrBadToken
	}
	c, err := ParseToken(raw, a.secret)
	if err != nil {
		return nil, ErrBadToken
	}
	if c.Email != a.email {
		return nil, ErrBadToken
	}
	return c, nil
}
