// Package session holds the small amount of state the client keeps between
// runs. Today that is only the username of the last successful login.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourdesk/internal/config"
)

// KeyUsername is the storage key for the logged-in username
const KeyUsername = "username"

// Session wraps a Store with the client's typed accessors
type Session struct {
	store Store
}

// New creates a session over store
func New(store Store) *Session {
	return &Session{store: store}
}

// Open builds the store selected by cfg
func Open(cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.SessionStore) {
	case config.StoreRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case config.StoreFile, "":
		return NewFileStore(cfg.SessionFile), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// Login records username as the current user. There is no matching logout;
// the value is replaced by the next login.
func (s *Session) Login(ctx context.Context, username string) error {
	if err := s.store.Set(ctx, KeyUsername, username); err != nil {
		return fmt.Errorf("failed to store username: %w", err)
	}
	return nil
}

// Username returns the stored username, or "" when nobody has logged in
func (s *Session) Username(ctx context.Context) (string, error) {
	name, err := s.store.Get(ctx, KeyUsername)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return name, nil
}

// Close releases the underlying store
func (s *Session) Close() error {
	return s.store.Close()
}
