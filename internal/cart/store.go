// Package cart holds the shopping cart in memory and mirrors it to a
// store.KV under a fixed key.
//
// The cart is loaded once in the background when the Store is created.
// Changes made before that load resolves are replayed on top of the loaded
// cart. Every change is persisted by a single writer goroutine: at most one
// write is in flight and changes made meanwhile collapse into one follow-up
// write of the latest cart.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/op/go-logging"

	"github.com/idilsaglam/cart/internal/model"
	"github.com/idilsaglam/cart/internal/store"
)

const DefaultKey = "@app:cart"

// ErrClosed is returned by Flush when the writer stopped before the
// requested changes were written.
var ErrClosed = errors.New("cart: store closed")

var log = logging.MustGetLogger("cart")

// mutation derives the next cart from the current one and reports whether
// anything changed. It must not modify its argument.
type mutation func([]model.LineItem) ([]model.LineItem, bool)

type Option func(*Store)

// WithKey sets the storage key. The default is DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithWriteTimeout bounds every storage call. Zero means no bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

type Store struct {
	kv      store.KV
	key     string
	timeout time.Duration

	mu       sync.Mutex
	items    []model.LineItem
	loaded   bool
	pending  []mutation // changes made before the load resolved
	version  uint64     // bumped on every change
	written  uint64     // version of the last write attempt
	writeErr error
	wrote    chan struct{} // closed and replaced after each write attempt

	kick      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	loadedCh  chan struct{}
	closeOnce sync.Once
}

// New returns an empty store and starts loading the saved cart from kv.
// The caller keeps ownership of kv and closes it after Close.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      DefaultKey,
		items:    []model.LineItem{},
		wrote:    make(chan struct{}),
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		loadedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Key is the storage key the cart is mirrored to.
func (s *Store) Key() string { return s.key }

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddToCart appends p with quantity 1. Items are not merged by id.
func (s *Store) AddToCart(p model.Product) {
	s.apply(addItem(p))
}

// Increment adds one to the quantity of every item with the given id and
// reports whether any matched.
func (s *Store) Increment(id string) bool {
	return s.apply(adjust(id, 1))
}

// Decrement subtracts one from the quantity of every item with the given
// id. Quantities may go below zero; items are never removed.
func (s *Store) Decrement(id string) bool {
	return s.apply(adjust(id, -1))
}

// Loaded is closed once the initial load resolved, whether or not it found
// a saved cart.
func (s *Store) Loaded() <-chan struct{} { return s.loadedCh }

func (s *Store) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.loadedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every change made before the call has been written and
// returns the error of the latest write, if any.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.version
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.written >= target {
			err := s.writeErr
			s.mu.Unlock()
			return err
		}
		wrote := s.wrote
		s.mu.Unlock()

		select {
		case <-wrote:
		case <-s.done:
			s.mu.Lock()
			reached, err := s.written >= target, s.writeErr
			s.mu.Unlock()
			if reached {
				return err
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close writes any outstanding change, stops the writer and returns the
// error of the final write. It is safe to call more than once. The cart
// stays usable in memory but is no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.quit) })
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr
}

func (s *Store) apply(m mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.pending = append(s.pending, m)
	}
	next, changed := m(s.items)
	if !changed {
		return false
	}
	s.items = next
	s.version++
	if s.loaded {
		s.signal()
	}
	return true
}

// signal wakes the writer. A wake-up already queued covers this change too.
func (s *Store) signal() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Store) run() {
	defer close(s.done)

	s.load()
	for {
		select {
		case <-s.kick:
			s.persist()
		case <-s.quit:
			s.persist()
			return
		}
	}
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

func (s *Store) load() {
	ctx, cancel := s.opContext()
	text, ok, err := s.kv.Get(ctx, s.key)
	cancel()

	base := []model.LineItem{}
	switch {
	case err != nil:
		log.Errorf("load %s: %v", s.key, err)
	case !ok || text == "":
		log.Debugf("load %s: nothing stored", s.key)
	default:
		items, err := Decode(text)
		if err != nil {
			log.Errorf("load %s: %v; starting with an empty cart", s.key, err)
			break
		}
		base = items
		log.Infof("load %s: %d items", s.key, len(items))
	}

	s.mu.Lock()
	replayed := false
	for _, m := range s.pending {
		if next, changed := m(base); changed {
			base = next
			replayed = true
		}
	}
	if len(s.pending) > 0 {
		log.Debugf("load %s: replayed %d early changes", s.key, len(s.pending))
	}
	s.items = base
	s.pending = nil
	s.loaded = true
	if replayed {
		s.version++
	}
	if s.version != s.written {
		s.signal()
	}
	s.mu.Unlock()

	close(s.loadedCh)
}

func (s *Store) persist() {
	s.mu.Lock()
	if s.written == s.version {
		s.mu.Unlock()
		return
	}
	v := s.version
	snapshot := s.items // never modified in place
	s.mu.Unlock()

	text, err := Encode(snapshot)
	if err == nil {
		ctx, cancel := s.opContext()
		err = s.kv.Set(ctx, s.key, text)
		cancel()
	}
	if err != nil {
		log.Warningf("persist %s: %v", s.key, err)
	} else {
		log.Debugf("persist %s: %d items", s.key, len(snapshot))
	}

	s.mu.Lock()
	s.written = v
	s.writeErr = err
	close(s.wrote)
	s.wrote = make(chan struct{})
	s.mu.Unlock()
}

func addItem(p model.Product) mutation {
	return func(items []model.LineItem) ([]model.LineItem, bool) {
		next := make([]model.LineItem, len(items), len(items)+1)
		copy(next, items)
		return append(next, model.NewLineItem(p, 1)), true
	}
}

func adjust(id string, delta int) mutation {
	return func(items []model.LineItem) ([]model.LineItem, bool) {
		var next []model.LineItem
		for i, it := range items {
			if it.ID != id {
				continue
			}
			if next == nil {
				next = make([]model.LineItem, len(items))
				copy(next, items)
			}
			next[i].Quantity += delta
		}
		if next == nil {
			return items, false
		}
		return next, true
	}
}
