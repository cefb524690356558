package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// Store is an in-memory token registry used when no auth service is
// configured. Tokens are issued at seed time and live for the process.
type Store struct {
	mu     sync.RWMutex
	actors map[string]domain.Actor
}

func NewStore() *Store {
	return &Store{actors: make(map[string]domain.Actor)}
}

var _ Resolver = (*Store)(nil)

// Issue registers the actor and returns a fresh bearer token for it.
func (s *Store) Issue(actor domain.Actor) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.actors[token] = actor
	s.mu.Unlock()
	return token
}

// Register binds a caller-chosen token to an actor. Useful for seeding
// deterministic tokens in dev environments.
func (s *Store) Register(token string, actor domain.Actor) {
	s.mu.Lock()
	s.actors[token] = actor
	s.mu.Unlock()
}

func (s *Store) Resolve(_ context.Context, token string) (domain.Actor, error) {
	s.mu.RLock()
	actor, ok := s.actors[token]
	s.mu.RUnlock()
	if !ok {
		return domain.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}
