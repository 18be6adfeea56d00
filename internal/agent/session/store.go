package session

import (
	"context"
	"sync"

	"github.com/ordena-bot/server/internal/agent/model"
)

// Store is the in-memory, process-local session map. Each customer id owns
// one session guarded by its own mutex, so a slow turn (extractor round trip
// included) only ever blocks later deliveries for the same customer. Sessions
// do not survive a restart; durability is an explicit non-goal.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	strategy model.Strategy
}

type entry struct {
	mu   sync.Mutex
	sess *model.Session
}

// NewStore creates a store whose new sessions use the given strategy.
func NewStore(strategy model.Strategy) *Store {
	return &Store{
		entries:  make(map[string]*entry),
		strategy: strategy,
	}
}

func (s *Store) getOrCreate(customerID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[customerID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[customerID]; ok {
		return e
	}
	e = &entry{sess: model.NewSession(s.strategy)}
	s.entries[customerID] = e
	return e
}

// Do runs fn with exclusive ownership of the customer's session. The whole
// read-mutate-write-finalize-reset sequence for one turn happens inside fn,
// so duplicate or rapid re-deliveries for the same customer serialize and
// observe each other's effects. Distinct customers never contend.
func (s *Store) Do(ctx context.Context, customerID string, fn func(sess *model.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.getOrCreate(customerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// Cancel clears the customer's session back to an empty default. A missing
// session is a no-op.
func (s *Store) Cancel(customerID string) {
	s.mu.RLock()
	e, ok := s.entries[customerID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.sess.Reset()
	e.mu.Unlock()
}

// Len reports the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
