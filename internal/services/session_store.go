package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"ikshan/internal/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found or expired")
	// ErrActionInFlight is returned when a dispatch arrives while a previous
	// action on the same session is still being processed.
	ErrActionInFlight = errors.New("another action is already in flight for this session")
)

// SessionStore keeps live funnel sessions in memory with a sliding TTL.
// Transitions for one session are serialized through a per-session lock;
// overlapping dispatches are rejected rather than queued.
type SessionStore struct {
	sessions *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	c := cache.New(ttl, 2*ttl)
	s := &SessionStore{
		sessions: c,
		locks:    make(map[string]*sync.Mutex),
	}
	c.OnEvicted(func(id string, _ interface{}) {
		s.mu.Lock()
		delete(s.locks, id)
		s.mu.Unlock()
	})
	return s
}

// Create registers a fresh session at the welcome stage.
func (s *SessionStore) Create() *models.FunnelSession {
	now := time.Now()
	session := &models.FunnelSession{
		ID:        uuid.NewString(),
		Stage:     models.StageWelcome,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions.SetDefault(session.ID, session)
	return session
}

// Get returns the session for id.
func (s *SessionStore) Get(id string) (*models.FunnelSession, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*models.FunnelSession), nil
}

// Save re-arms the session's TTL after a mutation.
func (s *SessionStore) Save(session *models.FunnelSession) {
	session.UpdatedAt = time.Now()
	s.sessions.SetDefault(session.ID, session)
}

// Count reports the number of live sessions. Feeds the sessions gauge.
func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}

// WithSession runs fn holding the session's dispatch lock. A second caller
// arriving while fn runs gets ErrActionInFlight immediately.
func (s *SessionStore) WithSession(id string, fn func(*models.FunnelSession) error) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}

	lock := s.lockFor(id)
	if !lock.TryLock() {
		return ErrActionInFlight
	}
	defer lock.Unlock()

	if err := fn(session); err != nil {
		return err
	}
	s.Save(session)
	return nil
}

func (s *SessionStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
