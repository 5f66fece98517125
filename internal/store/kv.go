// Package store defines the key-value contract the cart is mirrored to.
// Backends live in the subpackages.
package store

import (
	"context"
	"errors"
)

// KV is a string key-value store. Get reports absent keys with ok == false
// and a nil error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store: closed")
