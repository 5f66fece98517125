// Package ledisstore persists values in an embedded LedisDB database.
package ledisstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	lediscfg "github.com/siddontang/ledisdb/config"
	"github.com/siddontang/ledisdb/ledis"

	"github.com/idilsaglam/cart/internal/store"
)

type Store struct {
	mu     sync.Mutex
	conn   *ledis.Ledis
	db     *ledis.DB
	closed bool
}

// Open opens (or creates) the database under dir/ledis and selects db 0.
func Open(dir string) (*Store, error) {
	conf := lediscfg.NewConfigDefault()
	conf.DataDir = filepath.Join(dir, "ledis")

	conn, err := ledis.Open(conf)
	if err != nil {
		return nil, fmt.Errorf("ledis open: %w", err)
	}
	db, err := conn.Select(0)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledis select: %w", err)
	}
	return &Store{conn: conn, db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, store.ErrClosed
	}
	k := []byte(key)
	// Get returns nil for both a missing key and an empty value.
	n, err := s.db.Exists(k)
	if err != nil {
		return "", false, fmt.Errorf("ledis exists: %w", err)
	}
	if n == 0 {
		return "", false, nil
	}
	v, err := s.db.Get(k)
	if err != nil {
		return "", false, fmt.Errorf("ledis get: %w", err)
	}
	return string(v), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := s.db.Set([]byte(key), []byte(value)); err != nil {
		return fmt.Errorf("ledis set: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.Close()
	return nil
}
