package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"royalwager/events"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedMessage is one frame on a wager feed
type FeedMessage struct {
	Type    string      `json:"type"`
	WagerID int64       `json:"wagerId"`
	Payload interface{} `json:"payload"`
}

type broadcastMsg struct {
	wagerID int64
	data    []byte
}

// client is a single websocket connection following one wager
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	wagerID int64
}

// Hub fans wager events out to websocket clients watching that wager.
// The feed is advisory: slow clients drop frames and nothing here drives state.
type Hub struct {
	clients    map[int64]map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewHub creates an idle hub; call Run to start routing
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*client]bool),
		broadcast:  make(chan broadcastMsg, sendBufferSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Subscribe feeds every wager-scoped bus event into the hub
func (h *Hub) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		h.HandleEvent(event)
	})
}

// HandleEvent queues an event for clients following its wager
func (h *Hub) HandleEvent(event events.Event) {
	scoped, ok := event.(events.WagerScoped)
	if !ok {
		return
	}

	data, err := json.Marshal(FeedMessage{
		Type:    string(event.Type()),
		WagerID: scoped.WagerKey(),
		Payload: event,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to encode wager feed message")
		return
	}

	select {
	case h.broadcast <- broadcastMsg{wagerID: scoped.WagerKey(), data: data}:
	default:
		log.WithField("wagerId", scoped.WagerKey()).Warn("Wager feed backlog full, dropping event")
	}
}

// Run routes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, watchers := range h.clients {
				for c := range watchers {
					close(c.send)
				}
			}
			h.clients = make(map[int64]map[*client]bool)
			return nil

		case c := <-h.register:
			watchers, ok := h.clients[c.wagerID]
			if !ok {
				watchers = make(map[*client]bool)
				h.clients[c.wagerID] = watchers
			}
			watchers[c] = true
			log.WithFields(log.Fields{
				"wagerId":  c.wagerID,
				"watchers": len(watchers),
			}).Debug("Wager feed client connected")

		case c := <-h.unregister:
			watchers := h.clients[c.wagerID]
			if _, ok := watchers[c]; ok {
				delete(watchers, c)
				close(c.send)
				if len(watchers) == 0 {
					delete(h.clients, c.wagerID)
				}
			}
			log.WithField("wagerId", c.wagerID).Debug("Wager feed client disconnected")

		case msg := <-h.broadcast:
			for c := range h.clients[msg.wagerID] {
				select {
				case c.send <- msg.data:
				default:
					log.WithField("wagerId", msg.wagerID).Warn("Dropping wager feed message for slow client")
				}
			}
		}
	}
}

// ServeWager upgrades the request and streams events for one wager, starting with snapshot
func (h *Hub) ServeWager(w http.ResponseWriter, r *http.Request, wagerID int64, snapshot interface{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Wager feed upgrade failed")
		return
	}

	c := &client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		wagerID: wagerID,
	}

	if data, err := json.Marshal(FeedMessage{Type: "snapshot", WagerID: wagerID, Payload: snapshot}); err == nil {
		c.send <- data
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only services control frames; clients have nothing to say on this feed
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("Wager feed closed unexpectedly")
			}
			return
		}
	}
}

func (c *client) writePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
