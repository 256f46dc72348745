package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/game"
)

// InMsg is a command sent by a websocket client
type InMsg struct {
	T     string          `json:"t"`
	ReqID string          `json:"reqId,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

// OutMsg is a message pushed to a websocket client
type OutMsg struct {
	T     string      `json:"t"`
	ReqID string      `json:"reqId,omitempty"`
	P     interface{} `json:"p,omitempty"`
}

type errPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type frame struct {
	kind int
	data []byte
}

type client struct {
	conn     *websocket.Conn
	send     chan frame
	playerID string
	done     chan struct{}
	once     sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue drops the message when the client is too slow to keep up
func (c *client) enqueue(kind int, data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame{kind: kind, data: data}:
		return true
	default:
		return false
	}
}

func (c *client) sendMsg(out OutMsg) {
	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("type", out.T).Msg("Failed to encode websocket message")
		return
	}
	c.enqueue(websocket.TextMessage, b)
}

func (c *client) sendErr(reqID, code, msg string) {
	c.sendMsg(OutMsg{T: "error", ReqID: reqID, P: errPayload{Code: code, Msg: msg}})
}

func (c *client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// Hub fans session events out to every websocket a player has open
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(playerID string, conn *websocket.Conn) *client {
	c := &client{
		conn:     conn,
		send:     make(chan frame, wsSendBuffer),
		playerID: playerID,
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	if h.clients[playerID] == nil {
		h.clients[playerID] = make(map[*client]struct{})
	}
	h.clients[playerID][c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.playerID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.playerID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Publish sends an event to the player's connections
func (h *Hub) Publish(playerID string, e game.Event) {
	h.mu.RLock()
	set := h.clients[playerID]
	targets := make([]*client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(OutMsg{T: "event", P: e})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event")
		return
	}
	for _, c := range targets {
		if !c.enqueue(websocket.TextMessage, b) {
			log.Debug().Str("player", playerID).Str("event", string(e.Type)).Msg("Dropped event for slow client")
		}
	}
}

// Disconnect closes every socket the player has open
func (h *Hub) Disconnect(playerID string) {
	h.mu.Lock()
	set := h.clients[playerID]
	delete(h.clients, playerID)
	h.mu.Unlock()
	for c := range set {
		c.close()
	}
}

// Connections returns how many sockets the player has open
func (h *Hub) Connections(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[playerID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, id)
	}
}
