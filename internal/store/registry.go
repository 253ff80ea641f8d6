package store

import (
	"sync"

	"collaborative-coderoom/internal/domain"
)

// ConnectionRegistry maps live connection ids to participant records. It is
// the only owner of Participant state: records are created on join and
// deleted on disconnect, nothing is persisted. For a multi-process
// deployment this map would be replaced by an external keyed store behind
// the same methods.
type ConnectionRegistry struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

// NewConnectionRegistry builds an empty in-memory registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		participants: make(map[string]domain.Participant),
	}
}

// Register inserts or overwrites the record for connID. Idempotent; there
// are no error conditions.
func (r *ConnectionRegistry) Register(connID, displayName, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[connID] = domain.Participant{
		ConnID:      connID,
		DisplayName: displayName,
		RoomID:      roomID,
	}
}

// Lookup resolves a connection id to its participant record.
func (r *ConnectionRegistry) Lookup(connID string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[connID]
	return p, ok
}

// Remove deletes the record for connID and returns the prior value, so the
// caller knows which room to notify on disconnect.
func (r *ConnectionRegistry) Remove(connID string) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connID]
	if ok {
		delete(r.participants, connID)
	}
	return p, ok
}
