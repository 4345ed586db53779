// Package storage defines the key-value persistence contract the SDK uses
// for its durable session state. Drivers live in subpackages.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by GetItem when no value is stored under the key.
var ErrNotFound = errors.New("storage: item not found")

// Store is the persistence contract. Implementations decide durability;
// none of the operations are transactional.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
