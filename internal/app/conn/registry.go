package conn

import (
	"sync"

	"github.com/rs/zerolog"

	"voxpair/internal/pkg/logx"
)

// Registry maps participant ids to their live socket. One per service instance.
type Registry struct {
	mu      sync.RWMutex
	sockets map[string]Socket

	logger zerolog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		sockets: make(map[string]Socket),
		logger:  logx.Component("registry").With().Str("server", name).Logger(),
	}
}

// Register stores s under userID, overwriting any previous socket. The
// replaced socket, if any, is returned and left open.
func (r *Registry) Register(userID string, s Socket) Socket {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.sockets[userID]
	r.sockets[userID] = s

	if old != nil && old != s {
		r.logger.Info().
			Str("user_id", userID).
			Str("old_conn_id", old.ID()).
			Str("conn_id", s.ID()).
			Msg("User re-registered from a new connection; previous entry overwritten.")
		return old
	}

	return nil
}

// Get returns the socket registered for userID.
func (r *Registry) Get(userID string) (Socket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sockets[userID]
	return s, ok
}

// Owns reports whether s is the current socket for userID.
func (r *Registry) Owns(userID string, s Socket) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return s != nil && r.sockets[userID] == s
}

// Remove deletes the entry for userID. Absent entries are a no-op.
func (r *Registry) Remove(userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range userIDs {
		delete(r.sockets, id)
	}
}

// RemoveIf deletes the entry for userID only while it still points at s, so a
// stale connection closing does not evict a newer one.
func (r *Registry) RemoveIf(userID string, s Socket) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sockets[userID]; ok && current == s {
		delete(r.sockets, userID)
		return true
	}

	return false
}

// Count returns the number of registered participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sockets)
}
