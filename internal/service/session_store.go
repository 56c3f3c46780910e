package service

import (
	"sync"
	"time"

	"trimgram/internal/instagram"
)

// SessionEntry es lo que el store guarda por token: el cliente autenticado
// y el usuario dueño de la sesion.
type SessionEntry struct {
	Client    instagram.API
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore guarda como maximo una sesion autenticada, con TTL.
type SessionStore interface {
	Put(token string, client instagram.API, userID int64, ttl time.Duration)
	Get(token string) (SessionEntry, bool)
	Delete(token string)
	SweepExpired()
	Count() int
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]SessionEntry
}

// NewMemorySessionStore crea el store en memoria. El estado es volatil a
// proposito: un restart invalida toda sesion.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]SessionEntry),
	}
}

// Put descarta cualquier sesion existente antes de insertar: solo una
// sesion activa por proceso.
func (s *memorySessionStore) Put(token string, client instagram.API, userID int64, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) > 0 {
		s.sessions = make(map[string]SessionEntry)
	}
	now := time.Now().UTC()
	s.sessions[token] = SessionEntry{
		Client:    client,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Get devuelve la sesion si existe y no expiro. Una entrada expirada se
// borra en el camino; no hay sweep de fondo en el hot path.
func (s *memorySessionStore) Get(token string) (SessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok {
		return SessionEntry{}, false
	}
	if time.Now().UTC().After(entry.ExpiresAt) {
		delete(s.sessions, token)
		return SessionEntry{}, false
	}
	return entry, true
}

func (s *memorySessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// SweepExpired remueve toda entrada vencida; pensado para shutdown o
// invocacion periodica.
func (s *memorySessionStore) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
}

func (s *memorySessionStore) sweepLocked() {
	now := time.Now().UTC()
	for token, entry := range s.sessions {
		if now.After(entry.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Count devuelve la cantidad de sesiones vivas, barriendo expiradas antes.
func (s *memorySessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}
