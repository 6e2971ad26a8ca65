// Package storage defines the key-value persistence adapter the habit engine
// is built on. Values are opaque strings; each Set replaces one key as a unit.
package storage

import "context"

type KV interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)

	// Utils
	GetConfigPath() string
}
