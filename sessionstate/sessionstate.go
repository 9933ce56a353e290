// Package sessionstate keeps the per-session values that must survive the
// redirect round trip to the identity provider.
package sessionstate

import (
	"net/http"
	"sync"

	"gitea.com/go-chi/session"
)

// Session keys used by the login flow
const (
	KeyState       = "oauth2state"
	KeyAccessToken = "access_token"
)

// Handler stores string values scoped to one user session
type Handler interface {
	Put(key, value string) error
	Get(key string) (string, bool)
	Clear(keys ...string) error
}

// chiSession adapts a go-chi session store
type chiSession struct {
	store session.Store
}

// FromRequest returns the Handler for the session attached by session.Sessioner
func FromRequest(r *http.Request) Handler {
	return &chiSession{store: session.GetSession(r)}
}

func (s *chiSession) Put(key, value string) error {
	return s.store.Set(key, value)
}

func (s *chiSession) Get(key string) (string, bool) {
	value, ok := s.store.Get(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *chiSession) Clear(keys ...string) error {
	for _, key := range keys {
		if err := s.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Memory is an in-process Handler
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty Memory handler
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (m *Memory) Clear(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
