package session

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/token"
)

// DefaultMaxSessions bounds how many browsers are tracked at once
const DefaultMaxSessions = 1024

// MemoryStore is a thread-safe in-memory Store. Sessions expire ttl after they were
// last written and the least recently used are evicted beyond the size limit.
// onEvict, when set, is called with the id of every expired or evicted session.
type MemoryStore struct {
	mu       sync.Mutex // serialises Update's read-modify-write
	sessions *expirable.LRU[string, Data]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(size int, ttl time.Duration, onEvict func(id string)) *MemoryStore {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	var evict expirable.EvictCallback[string, Data]
	if onEvict != nil {
		evict = func(id string, _ Data) { onEvict(id) }
	}
	return &MemoryStore{
		sessions: expirable.NewLRU[string, Data](size, evict, ttl),
	}
}

// Get returns a copy of the session
func (s *MemoryStore) Get(id string) (Data, error) {
	if id == "" {
		return Data{}, errors.New("session id cannot be empty")
	}

	data, ok := s.sessions.Get(id)
	if !ok {
		return Data{}, apperrors.ErrSessionNotFound
	}
	return data, nil
}

// Put stores a copy of data
func (s *MemoryStore) Put(id string, data Data) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if data.CreatedAt.IsZero() {
		data.CreatedAt = token.NowTimeFunc()
	}
	s.sessions.Add(id, data)
	return nil
}

func (s *MemoryStore) Update(id string, fn func(*Data) error) (Data, error) {
	if id == "" {
		return Data{}, errors.New("session id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.sessions.Get(id)
	if !ok {
		data = Data{CreatedAt: token.NowTimeFunc()}
	}
	if err := fn(&data); err != nil {
		return Data{}, err
	}
	s.sessions.Add(id, data)
	return data, nil
}

func (s *MemoryStore) Delete(id string) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}
	s.sessions.Remove(id)
	return nil
}
