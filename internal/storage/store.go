// Package storage provides the host key-value storage behind the shared state bus.
// Every backend stores opaque byte values under flat string keys and replaces the
// whole value on write.
package storage

import (
	"context"
	stderrors "errors"
	"regexp"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/foundation/errors"
)

// Backend is a durable key-value store shared by every context attached to it.
type Backend interface {
	// Get returns the stored value or ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Keys lists every stored key in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Name identifies the backend kind in logs and metrics.
	Name() string

	// Close releases any resources held by the store.
	Close() error
}

// Timestamped is implemented by backends that know when a key was last written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// ErrNotFound is returned when a key has never been written.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return stderrors.As(err, &nf)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that cannot be used as file names or NATS KV keys.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key[len(key)-1] == '.' {
		return errors.ValidationError("invalid storage key").
			WithContext("key", key).
			Build()
	}
	return nil
}

func storageFailure(err error, backend, op, key string) error {
	return errors.WrapError(err, errors.CategoryStorage, backend+" "+op+" failed").
		WithContext("backend", backend).
		WithContext("key", key).
		Build()
}
