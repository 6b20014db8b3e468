package store

import "context"

// SlotStore is a flat key-value store of string slots. Backends return
// ErrUnavailable when the underlying storage cannot be reached at all.
type SlotStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
