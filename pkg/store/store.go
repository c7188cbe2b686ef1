// Package store persists subscribers, the topic catalog and the delivery log as one document.
// Every backend loads and saves the whole state, there is no partial update.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

// ErrNotFound is returned by lookups for missing records
var ErrNotFound = errors.New("not found")

// State is the whole persisted document
type State struct {
	Subscribers []domain.Subscriber       `json:"subscribers"`
	Topics      []domain.Topic            `json:"topics"`
	EmailLogs   []domain.DeliveryLogEntry `json:"email_logs"`
}

// Store loads and saves the whole state
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
}

// Update loads the state, applies fn and saves the result. Nothing is saved if fn fails.
func Update(ctx context.Context, s Store, fn func(st *State) error) error {
	st, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := fn(&st); err != nil {
		return err
	}
	if err := s.Save(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Shared serializes load/mutate/save sequences of one process over a store.
// Delivery cycles hold the lock for the whole cycle, adapters take it per update.
type Shared struct {
	Store
	sync.Mutex
}

// NewShared wraps a store
func NewShared(s Store) *Shared {
	return &Shared{Store: s}
}

// Update runs Update under the lock
func (s *Shared) Update(ctx context.Context, fn func(st *State) error) error {
	s.Lock()
	defer s.Unlock()
	return Update(ctx, s.Store, fn)
}

// New makes the configured store backend. Close must be called for sqlite stores.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "", "json":
		return NewJSONFile(cfg.Path), nil
	case "sqlite":
		s, err := NewSQLite(ctx, SQLiteConfig{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Type)
}

// Subscriber returns the subscriber with the given id
func (st *State) Subscriber(id int64) (domain.Subscriber, error) {
	for _, s := range st.Subscribers {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Subscriber{}, fmt.Errorf("subscriber %d: %w", id, ErrNotFound)
}

// SubscriberByToken returns the subscriber owning the unsubscribe token
func (st *State) SubscriberByToken(token string) (*domain.Subscriber, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", ErrNotFound)
	}
	for i := range st.Subscribers {
		if st.Subscribers[i].UnsubscribeToken == token {
			return &st.Subscribers[i], nil
		}
	}
	return nil, fmt.Errorf("token: %w", ErrNotFound)
}

// LogEntry returns the delivery log entry with the given id
func (st *State) LogEntry(id int64) (domain.DeliveryLogEntry, error) {
	for _, l := range st.EmailLogs {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.DeliveryLogEntry{}, fmt.Errorf("log entry %d: %w", id, ErrNotFound)
}

// NextSubscriberID returns an id greater than any existing one
func (st *State) NextSubscriberID() int64 {
	var maxID int64
	for _, s := range st.Subscribers {
		maxID = max(maxID, s.ID)
	}
	return maxID + 1
}
