package model

import "context"

// Keys of the two records persisted per shopper.
const (
	CartKey        = "cart"
	CurrentUserKey = "currentUser"
)

// Storage is a last-write-wins key/value store with no transactional guarantees.
type Storage interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
