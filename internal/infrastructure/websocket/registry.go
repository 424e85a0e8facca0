package websocket

import (
	"sync"

	"stakemarket/internal/domain/entity"
)

// PresenceEntry is one live principal in the online-users snapshot.
type PresenceEntry struct {
	ID   string               `json:"id"`
	Type entity.PrincipalKind `json:"type"`
}

type session struct {
	principalID string
	role        entity.PrincipalKind
}

// Registry is the authoritative map of live sockets to principals for this
// process. It enforces the single-session invariant: registering a principal
// evicts any previous registry entry for them (the old socket stays open
// until it disconnects or is evicted by moderation).
//
// The registry is process-local. Scaling the gateway to multiple instances
// requires backing presence and room broadcast with a shared pub/sub store;
// without it, instances disagree about who is online.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]session // socketID -> session
	sockets  map[string]string  // principalID -> socketID
	order    []string           // socketIDs in registration order
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]session),
		sockets:  make(map[string]string),
	}
}

func (r *Registry) Register(socketID, principalID string, role entity.PrincipalKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sockets[principalID]; ok {
		r.dropLocked(old)
	}

	r.sessions[socketID] = session{principalID: principalID, role: role}
	r.sockets[principalID] = socketID
	r.order = append(r.order, socketID)
}

func (r *Registry) Unregister(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked(socketID)
}

func (r *Registry) dropLocked(socketID string) {
	s, ok := r.sessions[socketID]
	if !ok {
		return
	}
	delete(r.sessions, socketID)
	if r.sockets[s.principalID] == socketID {
		delete(r.sockets, s.principalID)
	}
	for i, id := range r.order {
		if id == socketID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the live socket for a principal, if any.
func (r *Registry) Lookup(principalID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	socketID, ok := r.sockets[principalID]
	return socketID, ok
}

// Snapshot lists the online principals in registration order.
func (r *Registry) Snapshot() []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	online := make([]PresenceEntry, 0, len(r.order))
	for _, socketID := range r.order {
		if s, ok := r.sessions[socketID]; ok {
			online = append(online, PresenceEntry{ID: s.principalID, Type: s.role})
		}
	}
	return online
}

func (r *Registry) Principal(socketID string) (entity.Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[socketID]
	if !ok {
		return entity.Principal{}, false
	}
	return entity.Principal{ID: s.principalID, Kind: s.role}, true
}
