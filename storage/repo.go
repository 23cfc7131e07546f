package storage

import (
	"context"
	"errors"
)

// Keys of the durable session record.
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "refresh_token" // Written on login, never read back
	KeyUserData     = "user_data"
)

var ErrNotFound = errors.New("key not found")

// Repo is a durable string key-value store that survives process restarts.
type Repo interface {
	// Get returns the stored value or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set creates or replaces the value for key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing an absent key is not an error
	Remove(ctx context.Context, key string) error
}
