package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// Message types sent to websocket clients.
const (
	MessageEvent     = "event"
	MessageHeartbeat = "heartbeat"
	MessageGameOver  = "game_over"
	MessageRemoved   = "game_removed"
)

const (
	sendBufferSize      = 256
	broadcastBufferSize = 1024
	maxMessageSize      = 4096
)

// WSMessage is the envelope of every websocket frame.
type WSMessage struct {
	Type   string `json:"type"`
	GameID string `json:"game_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// outbound is one notification queued for the clients of a game. seq is -1
// for messages that are not log events.
type outbound struct {
	gameID  string
	seq     int
	payload []byte
	last    bool
}

// Client is one websocket subscriber of a game. It receives every event
// with a sequence number at or after its starting point exactly once and in
// order, even while its backlog is being loaded.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string

	// ready is closed once the backlog has been queued or the client closed.
	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	next    int
	syncing bool
	queue   []outbound
	closed  bool
}

func newClient(conn *websocket.Conn, gameID string, since int) *Client {
	if since < 0 {
		since = 0
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		gameID:  gameID,
		ready:   make(chan struct{}),
		next:    since,
		syncing: true,
	}
}

// offer delivers a live message. It returns false when the client cannot
// keep up.
func (c *Client) offer(msg outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.syncing {
		c.queue = append(c.queue, msg)
		return true
	}
	return c.push(msg)
}

// sync queues the backlog ahead of whatever arrived live while it was
// loading. The write pump drains the queue straight to the connection, so a
// backlog of any length is delivered in full.
func (c *Client) sync(backlog []outbound) {
	c.mu.Lock()
	c.queue = append(backlog, c.queue...)
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

// drain writes queued messages until the queue is empty, then switches the
// client to live delivery through the send channel.
func (c *Client) drain(write func([]byte) error) error {
	for {
		c.mu.Lock()
		batch := c.queue
		c.queue = nil
		if len(batch) == 0 {
			c.syncing = false
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		for _, msg := range batch {
			if !c.advance(msg) {
				continue
			}
			if err := write(msg.payload); err != nil {
				return err
			}
		}
	}
}

// advance reports whether msg is new to the client and records it.
func (c *Client) advance(msg outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advanceLocked(msg)
}

func (c *Client) advanceLocked(msg outbound) bool {
	if msg.seq < 0 {
		return true
	}
	if msg.seq < c.next {
		return false
	}
	c.next = msg.seq + 1
	return true
}

// push requires c.mu.
func (c *Client) push(msg outbound) bool {
	if c.closed {
		return false
	}
	if !c.advanceLocked(msg) {
		return true
	}
	select {
	case c.send <- msg.payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

// Hub fans engine notifications out to websocket clients. Only the run
// loop touches the client sets.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for gameID, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, gameID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.gameID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.gameID] = set
			}
			set[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("game_id", client.gameID))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.gameID] {
				if !client.offer(msg) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.logger.Warn("dropping slow client", zap.String("game_id", client.gameID))
				h.remove(client)
			}
			if msg.last {
				h.mu.RLock()
				var all []*Client
				for client := range h.clients[msg.gameID] {
					all = append(all, client)
				}
				h.mu.RUnlock()
				for _, client := range all {
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	set := h.clients[client.gameID]
	_, ok := set[client]
	if ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.gameID)
		}
	}
	h.mu.Unlock()

	if ok {
		client.close()
		h.logger.Debug("client unregistered", zap.String("game_id", client.gameID))
	}
}

// ClientCount returns the number of clients following a game.
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

// Notify is the engine's notification handler. It runs under the game's
// lock, so it only queues; it blocks only when the queue is full and gives
// up once the hub has stopped.
func (h *Hub) Notify(n game.GameNotification) {
	msg, ok := h.encode(n)
	if !ok {
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) encode(n game.GameNotification) (outbound, bool) {
	msg := outbound{gameID: n.GameID, seq: -1}
	var envelope WSMessage
	switch n.Type {
	case game.NotificationEvent:
		if n.Event == nil {
			return msg, false
		}
		msg.seq = n.Event.Sequence
		envelope = WSMessage{Type: MessageEvent, GameID: n.GameID, Data: n.Event}
	case game.NotificationGameOver:
		envelope = WSMessage{Type: MessageGameOver, GameID: n.GameID, Data: n.Data}
	case game.NotificationRemoved:
		envelope = WSMessage{Type: MessageRemoved, GameID: n.GameID}
		msg.last = true
	default:
		return msg, false
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("failed to encode notification", zap.String("game_id", n.GameID), zap.Error(err))
		return msg, false
	}
	msg.payload = payload
	return msg, true
}

// attach registers a client and brings it up to date with the game's log.
// On failure the client is closed.
func (h *Hub) attach(client *Client, backlog func() ([]rules.Event, error)) error {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
		return context.Canceled
	}

	events, err := backlog()
	if err != nil {
		h.drop(client)
		return err
	}
	msgs := make([]outbound, 0, len(events))
	for i := range events {
		evt := events[i]
		payload, err := json.Marshal(WSMessage{Type: MessageEvent, GameID: client.gameID, Data: evt})
		if err != nil {
			h.drop(client)
			return err
		}
		msgs = append(msgs, outbound{gameID: client.gameID, seq: evt.Sequence, payload: payload})
	}
	client.sync(msgs)
	return nil
}

// drop unregisters a client and closes it even when the hub has stopped.
func (h *Hub) drop(client *Client) {
	h.detach(client)
	client.close()
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// readPump discards client frames; it exists to notice disconnects.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump(heartbeat, writeTimeout time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(message []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(websocket.TextMessage, message)
	}

	<-c.ready
	if err := c.drain(write); err != nil {
		return
	}

	ping, _ := json.Marshal(WSMessage{Type: MessageHeartbeat})
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(ping); err != nil {
				return
			}
		}
	}
}
