// Package websocket implements the optional real-time push transport
// from SPEC_FULL.md's §6 expansion: a per-session tick-delta stream for
// any client holding a valid bearer token. Grounded on the teacher's
// transport/websocket/hub.go nearly unchanged in structure
// (register/unregister channel loop, read/write pumps with ping/pong),
// repurposed from broadcasting a full grid GameState to pushing the
// session's app.StateSnapshot — the same data the REST /game/state
// endpoint serves, but JSON-encoded with the snapshot's own Go field
// names rather than the REST endpoint's wire shape.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nkazantsev/streetdogs/game/app"
	"github.com/nkazantsev/streetdogs/game/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StateSource is the slice of *app.Application the hub needs: resolving
// a bearer token to its session's current snapshot. Strand-bound, like
// every other game-touching call (spec.md §5).
type StateSource interface {
	State(token string) (*app.StateSnapshot, error)
}

// Client is one open WebSocket connection, tied to the bearer token it
// authenticated with.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	token string
}

// Hub maintains every open client and, once per tick, pushes each one a
// fresh state snapshot for its own session. It implements app.Listener,
// the same OnTick(deltaMs) hook persistence.Autosave uses.
type Hub struct {
	source StateSource
	strand *session.Strand

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

// NewHub builds a Hub. source and strand are typically the same
// *app.Application / *session.Strand pair the REST server uses.
func NewHub(source StateSource, strand *session.Strand) *Hub {
	return &Hub{
		source:     source,
		strand:     strand,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run consumes register/unregister requests for the lifetime of the
// process; the loop has no stop condition.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			log.Printf("websocket client registered (total: %d)", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("websocket client unregistered (remaining: %d)", len(h.clients))
			}
		}
	}
}

// ServeWS upgrades r to a WebSocket connection scoped to token.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, token string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 16), token: token}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// OnTick is called once per global tick, after retirement has been
// applied (spec.md §4.7), and — like every app.Listener — only ever from
// inside the task Application.Tick runs on the game strand. It reads
// state directly rather than re-entering strand.Do: the strand has only
// one worker goroutine, so Do-ing from a closure already running on it
// would deadlock waiting for itself to finish.
func (h *Hub) OnTick(deltaMs float64) {
	for c := range h.clients {
		snap, err := h.source.State(c.token)
		if err != nil {
			h.unregister <- c
			continue
		}

		data, marshalErr := json.Marshal(tickMessage{Event: "tick", DeltaMs: deltaMs, State: snap})
		if marshalErr != nil {
			log.Printf("websocket: marshal tick message: %v", marshalErr)
			continue
		}
		select {
		case c.send <- data:
		default:
			h.unregister <- c
		}
	}
}

type tickMessage struct {
	Event   string             `json:"event"`
	DeltaMs float64            `json:"deltaMs"`
	State   *app.StateSnapshot `json:"state"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients never send application messages; this loop only
		// exists to notice the peer going away and to keep pong
		// handling wired up.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
