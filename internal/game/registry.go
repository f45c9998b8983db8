package game

import (
	"crypto/rand"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"trivianight/internal/model"
)

const (
	pinMin         = 1000
	pinMax         = 9999
	pinAttemptsCap = 20
)

// Registry is the process-wide mapping from PIN to Session. Create and
// Remove serialize on a single lock; Lookup may run concurrently with
// other Lookups and always observes a consistent snapshot of the map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create allocates a fresh Session under a freshly-sampled unique PIN and
// returns it together with its freshly-generated session id. It does not
// generate a host token: hostConnID is stored as given by the caller.
// Fails with ErrPinExhausted only if collision retries exceed the bounded
// budget.
func (r *Registry) Create(hostName, hostConnID string) (*Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pin, err := r.allocatePINLocked()
	if err != nil {
		return nil, "", err
	}

	id := uuid.New().String()
	s := NewSession(id, pin, hostName, hostConnID)
	r.sessions[pin] = s

	log.Printf("game: created session %s pin=%s host=%q", id, pin, hostName)
	return s, id, nil
}

func (r *Registry) allocatePINLocked() (string, error) {
	for attempt := 0; attempt < pinAttemptsCap; attempt++ {
		n, err := randomPIN()
		if err != nil {
			return "", err
		}
		pin := fmt.Sprintf("%04d", n)
		if _, exists := r.sessions[pin]; !exists {
			return pin, nil
		}
	}
	return "", model.ErrPinExhausted
}

func randomPIN() (int, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	span := pinMax - pinMin + 1
	v := int(b[0])<<8 | int(b[1])
	return pinMin + v%span, nil
}

// Lookup returns the session for a PIN, or ErrGameNotFound.
func (r *Registry) Lookup(pin string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[pin]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return s, nil
}

// Remove evicts a session by PIN. No-op if absent.
func (r *Registry) Remove(pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, pin)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns a point-in-time copy of all live sessions, safe for the
// janitor to iterate without holding the registry lock across its sweep.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
