package cart

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when a consumer asks for the store outside a
// context made by NewContext.
var ErrNoProvider = errors.New("cart: store not available; must be used within a cart provider")

type ctxKey struct{}

// NewContext returns a child of ctx that carries s. Everything that runs
// with the returned context can reach the store through FromContext.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Store, error) {
	if ctx == nil {
		return nil, ErrNoProvider
	}
	s, _ := ctx.Value(ctxKey{}).(*Store)
	if s == nil {
		return nil, ErrNoProvider
	}
	return s, nil
}

// MustFromContext panics with ErrNoProvider when ctx carries no store.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
