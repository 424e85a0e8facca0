package websocket

import (
	"context"
	"sync"
	"time"

	"stakemarket/pkg/logger"
)

// Hub owns the connected clients, channel rooms, the ephemeral active-chat
// pairing map, and the group attendance sets. All maps are process memory;
// see Registry for the multi-instance caveat.
type Hub struct {
	registry *Registry

	mu          sync.RWMutex
	clients     map[string]*Client         // socketID -> client
	rooms       map[string]map[string]bool // room -> socketID set
	joined      map[string]map[string]bool // socketID -> room set
	activeChats map[string]string          // principalID -> current chat partner
	attendance  map[string]map[string]bool // groupID -> principalID set
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry:    registry,
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]bool),
		joined:      make(map[string]map[string]bool),
		activeChats: make(map[string]string),
		attendance:  make(map[string]map[string]bool),
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// AddClient registers the connection in the presence registry and tracks the
// client for broadcast.
func (h *Hub) AddClient(c *Client) {
	h.registry.Register(c.SocketID, c.Principal.ID, c.Principal.Kind)

	h.mu.Lock()
	h.clients[c.SocketID] = c
	h.mu.Unlock()

	logger.Info("Client connected: %s (%s %s)", c.SocketID, c.Principal.Kind, c.Principal.ID)
}

// RemoveClient unregisters the connection, leaves every joined room, clears
// any active-chat pairing involving this principal, and drops the principal
// from all group attendance sets.
func (h *Hub) RemoveClient(c *Client) {
	h.registry.Unregister(c.SocketID)

	h.mu.Lock()
	delete(h.clients, c.SocketID)
	for room := range h.joined[c.SocketID] {
		delete(h.rooms[room], c.SocketID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.joined, c.SocketID)

	for author, partner := range h.activeChats {
		if author == c.Principal.ID || partner == c.Principal.ID {
			delete(h.activeChats, author)
		}
	}

	for groupID, members := range h.attendance {
		delete(members, c.Principal.ID)
		if len(members) == 0 {
			delete(h.attendance, groupID)
		}
	}
	h.mu.Unlock()

	logger.Info("Client disconnected: %s (%s %s)", c.SocketID, c.Principal.Kind, c.Principal.ID)
}

func (h *Hub) JoinRoom(socketID, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[socketID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][socketID] = true
	if h.joined[socketID] == nil {
		h.joined[socketID] = make(map[string]bool)
	}
	h.joined[socketID][room] = true
}

func (h *Hub) LeaveRoom(socketID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], socketID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	delete(h.joined[socketID], room)
}

// Active-chat pairing. StartChat records that author is currently viewing
// the thread with partner; the pairing is one-directional, matching the
// explicit start/end signals clients send.
func (h *Hub) StartChat(authorID, partnerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeChats[authorID] = partnerID
}

func (h *Hub) EndChat(authorID, partnerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.activeChats[authorID] == partnerID {
		delete(h.activeChats, authorID)
	}
}

// ChatPartner returns the partner the principal is actively chatting with.
func (h *Hub) ChatPartner(principalID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	partner, ok := h.activeChats[principalID]
	return partner, ok
}

// Group attendance: who currently has a group chat open.
func (h *Hub) JoinGroup(groupID, principalID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attendance[groupID] == nil {
		h.attendance[groupID] = make(map[string]bool)
	}
	h.attendance[groupID][principalID] = true
}

func (h *Hub) LeaveGroup(groupID, principalID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attendance[groupID], principalID)
	if len(h.attendance[groupID]) == 0 {
		delete(h.attendance, groupID)
	}
}

func (h *Hub) InGroup(groupID, principalID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.attendance[groupID][principalID]
}

// Emit helpers. Marshal failures and dead sockets are logged and dropped;
// a failed realtime push never fails the triggering operation.

func (h *Hub) EmitToSocket(socketID, event string, payload interface{}) {
	frame, err := Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(frame)
	}
}

func (h *Hub) EmitToPrincipal(principalID, event string, payload interface{}) {
	if socketID, ok := h.registry.Lookup(principalID); ok {
		h.EmitToSocket(socketID, event, payload)
	}
}

func (h *Hub) EmitToRoom(room, event string, payload interface{}) {
	frame, err := Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for socketID := range h.rooms[room] {
		if c, ok := h.clients[socketID]; ok {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(frame)
	}
}

func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.enqueue(frame)
	}
}

// BroadcastPresence pushes the online-users snapshot to every connection.
func (h *Hub) BroadcastPresence() {
	h.Broadcast(EventOnlineUsers, map[string]interface{}{
		"onlineUsers": h.registry.Snapshot(),
	})
}

// StartPresenceLoop re-broadcasts the presence snapshot on a fixed interval
// until ctx is cancelled.
func (h *Hub) StartPresenceLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.BroadcastPresence()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// DisconnectSocket force-closes a connection: used by moderation after the
// stored session token has been revoked. Registry/room cleanup happens in
// the read pump's RemoveClient path once the close lands, but the registry
// entry is dropped here so a lookup immediately after returns none.
func (h *Hub) DisconnectSocket(socketID string) {
	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.registry.Unregister(socketID)
	c.Close()
}
