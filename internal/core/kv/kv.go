package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is a durable per-key value store with optimistic concurrency.
// Every successful write bumps the key's version by one.
type Store interface {
	// Get returns the value and version of key. A missing key yields a nil
	// value and version 0.
	Get(ctx context.Context, key string) ([]byte, int64, error)
	// CompareAndSwap writes value only if the key is still at expectedVersion.
	// Version 0 means the key must not exist yet.
	CompareAndSwap(ctx context.Context, key string, expectedVersion int64, value []byte) (bool, error)
}

// MaxAttempts bounds the read-modify-write retries of Update.
const MaxAttempts = 8

var ErrConflict = errors.New("concurrent update conflict")

// Load decodes the JSON value stored at key. A missing key yields the zero value.
func Load[T any](ctx context.Context, store Store, key string) (T, error) {
	var v T
	raw, _, err := store.Get(ctx, key)
	if err != nil {
		return v, fmt.Errorf("get %s: %w", key, err)
	}
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

// Update reads the value at key, applies fn and writes it back with
// CompareAndSwap, starting over when another writer got in first.
// An error from fn aborts without writing.
func Update[T any](ctx context.Context, store Store, key string, fn func(*T) error) (T, error) {
	var zero T
	for range MaxAttempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		raw, version, err := store.Get(ctx, key)
		if err != nil {
			return zero, fmt.Errorf("get %s: %w", key, err)
		}
		var v T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return zero, fmt.Errorf("decode %s: %w", key, err)
			}
		}
		if err := fn(&v); err != nil {
			return zero, err
		}

		encoded, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("encode %s: %w", key, err)
		}
		swapped, err := store.CompareAndSwap(ctx, key, version, encoded)
		if err != nil {
			return zero, fmt.Errorf("write %s: %w", key, err)
		}
		if swapped {
			return v, nil
		}
	}
	return zero, fmt.Errorf("%w: %s", ErrConflict, key)
}
