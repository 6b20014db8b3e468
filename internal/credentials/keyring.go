// Package credentials keeps the CLI's API token in the OS keyring.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "bookinghub"
	user    = "api-token"
)

var (
	// ErrNotFound is returned when no token is stored.
	ErrNotFound = errors.New("no token stored in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func GetToken() (string, error) {
	token, err := keyring.Get(service, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

func SetToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(service, user, token); err != nil {
		return fmt.Errorf("store token in keyring: %w", err)
	}
	return nil
}

func DeleteToken() error {
	if err := keyring.Delete(service, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete token from keyring: %w", err)
	}
	return nil
}

// TokenSource prefers an explicitly configured token and falls back to the
// keyring. A missing or unreachable keyring yields no token rather than an
// error, so unauthenticated servers keep working.
type TokenSource struct {
	Static string
}

func (s TokenSource) Token(context.Context) (string, error) {
	if s.Static != "" {
		return s.Static, nil
	}
	token, err := GetToken()
	if err != nil {
		return "", nil
	}
	return token, nil
}
