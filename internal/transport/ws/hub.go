package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Envelope is the wire format carried by every message on the transport:
// an event name, an opaque JSON payload, and an optional correlation id
// used to match a reply to the request that triggered it.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   string          `json:"ack,omitempty"`
}

// outbound is an internal fan-out instruction handled by the Hub's run
// loop. Exactly one of Room or ConnID is set.
type outbound struct {
	Room   string
	ConnID string
	data   []byte
}

// Hub is the Connection Router: it tracks which connections have joined
// which rooms and fans broadcasts out to them. It does not interpret room
// names — "game-<pin>" and "host-<pin>" are dispatcher policy, not
// anything the Hub special-cases.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection            // connID -> connection
	rooms map[string]map[string]*Connection // room -> connID -> connection

	register   chan *Connection
	unregister chan *Connection
	send       chan outbound
}

// NewHub creates a Hub and starts its dispatch loop.
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		rooms:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		send:       make(chan outbound, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			delete(h.conns, conn.ID)
			for room, members := range h.rooms {
				if _, ok := members[conn.ID]; ok {
					delete(members, conn.ID)
					if len(members) == 0 {
						delete(h.rooms, room)
					}
				}
			}
			h.mu.Unlock()
			close(conn.Send)

		case out := <-h.send:
			h.mu.RLock()
			if out.ConnID != "" {
				if conn, ok := h.conns[out.ConnID]; ok {
					deliver(conn, out.data)
				}
			} else {
				for _, conn := range h.rooms[out.Room] {
					deliver(conn, out.data)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		log.Printf("ws: dropping message to %s, send buffer full", conn.ID)
	}
}

// Register adds a connection to the hub, making it reachable by EmitTo.
func (h *Hub) Register(conn *Connection) { h.register <- conn }

// Unregister removes a connection from the hub and every room it had
// joined.
func (h *Hub) Unregister(conn *Connection) { h.unregister <- conn }

// Join adds connID to room.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Connection)
	}
	h.rooms[room][connID] = conn
}

// Leave removes connID from room.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast delivers an event to every connection currently in room.
func (h *Hub) Broadcast(room, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Data: mustJSON(payload)})
	if err != nil {
		log.Printf("ws: marshal broadcast %s: %v", event, err)
		return
	}
	h.send <- outbound{Room: room, data: data}
}

// EmitTo unicasts an event to a single connection, with an optional ack
// correlation id echoed back to the caller.
func (h *Hub) EmitTo(connID, event string, payload any, ack string) {
	data, err := json.Marshal(Envelope{Event: event, Data: mustJSON(payload), Ack: ack})
	if err != nil {
		log.Printf("ws: marshal emit %s: %v", event, err)
		return
	}
	h.send <- outbound{ConnID: connID, data: data}
}

func mustJSON(payload any) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal payload: %v", err)
		return nil
	}
	return data
}
