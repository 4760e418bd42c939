package presence

import "sync"

// Store is the connection registry: it maps a user to at most one active
// socket. All relay paths read it; only the connect/disconnect lifecycle
// writes it. Implementations must make the four operations atomic with
// respect to each other, since socket.io dispatches events from multiple
// connection goroutines.
type Store interface {
	// Register binds userID to socketID, evicting any prior binding for
	// the same user (last connect wins). The superseded transport is not
	// closed here.
	Register(userID, socketID string)

	// Unregister removes the binding only if it still points at socketID,
	// so a late disconnect of an already-superseded session is a no-op.
	// Reports whether a binding was removed.
	Unregister(userID, socketID string) bool

	// Lookup returns the socket currently bound to userID, if any.
	Lookup(userID string) (string, bool)

	// ListActive returns the IDs of all currently bound users.
	ListActive() []string
}

// MemoryStore is the default single-instance registry.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[string]string // userID -> socketID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bindings: make(map[string]string)}
}

func (s *MemoryStore) Register(userID, socketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[userID] = socketID
}

func (s *MemoryStore) Unregister(userID, socketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.bindings[userID]; !ok || current != socketID {
		return false
	}
	delete(s.bindings, userID)
	return true
}

func (s *MemoryStore) Lookup(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	socketID, ok := s.bindings[userID]
	return socketID, ok
}

func (s *MemoryStore) ListActive() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.bindings))
	for userID := range s.bindings {
		users = append(users, userID)
	}
	return users
}
