package session

import (
	"context"
	"errors"
	"sync"
)

// Package session holds the persistence capability for bearer credentials.
// Implementations: MemoryStore, FileStore, RedisStore and PostgresStore.

// TokenKey is the fixed key under which the bearer credential is stored.
const TokenKey = "authToken"

// ErrNotFound is returned by Store.Get when no value exists for the key.
var ErrNotFound = errors.New("session value not found")

// Store is an opaque key-value persistence capability.
type Store interface {
	// Get returns the value stored for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a network dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryStore keeps values in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Session binds a Store to the single key holding one credential.
type Session struct {
	store Store
	key   string
}

// New returns a Session reading and writing key in store.
func New(store Store, key string) *Session {
	if key == "" {
		key = TokenKey
	}
	return &Session{store: store, key: key}
}

// Key returns the storage key of this session.
func (s *Session) Key() string { return s.key }

// Token returns the stored credential, or "" when none is stored.
func (s *Session) Token(ctx context.Context) (string, error) {
	v, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetToken persists the credential.
func (s *Session) SetToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, s.key, token)
}

// Clear removes the credential.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, s.key)
}
