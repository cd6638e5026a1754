package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/leadtriage/pkg/cache"
	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// DefaultTTL is how long an idle workflow session is kept
const DefaultTTL = 24 * time.Hour

// Store persists workflow state between steps. Values are stored as JSON so
// a loaded value never aliases the saved one.
type Store interface {
	Save(ctx context.Context, id string, v any) error
	// Load returns a NotFound error for unknown or expired sessions
	Load(ctx context.Context, id string, v any) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh session identifier
func NewID() string {
	return uuid.NewString()
}

// RedisStore keeps sessions in Redis under "session:<id>"
type RedisStore struct {
	cache *cache.Client
	ttl   time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(c *cache.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{cache: c, ttl: ttl}
}

func redisKey(id string) string {
	return "session:" + id
}

// Save stores v and refreshes the session TTL
func (s *RedisStore) Save(ctx context.Context, id string, v any) error {
	if err := s.cache.SetJSON(ctx, redisKey(id), v, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

// Load decodes session id into v
func (s *RedisStore) Load(ctx context.Context, id string, v any) error {
	err := s.cache.GetJSON(ctx, redisKey(id), v)
	if errors.Is(err, cache.ErrMiss) {
		return domain.NewNotFoundError("session " + id)
	}
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return nil
}

// Delete removes a session
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, redisKey(id))
}

// MemoryStore keeps sessions in process, for single-instance deployments and tests
type MemoryStore struct {
	sessions map[string]*entry
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Save stores v and refreshes the session TTL
func (m *MemoryStore) Save(ctx context.Context, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &entry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Load decodes session id into v
func (m *MemoryStore) Load(ctx context.Context, id string, v any) error {
	m.mu.RLock()
	e, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists || !m.now().Before(e.expiresAt) {
		return domain.NewNotFoundError("session " + id)
	}
	return json.Unmarshal(e.data, v)
}

// Delete removes a session
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// CleanupExpired removes expired sessions and returns how many were dropped
func (m *MemoryStore) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions, expired ones included
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
