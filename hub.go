/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

const (
	responsesChannel = "responses"
	responseEvent    = "response"

	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionAttached    = "attached"
	actionDetached    = "detached"
	actionMessage     = "message"
	actionError       = "error"
)

// Frame is every message on the realtime socket, in both directions.
type Frame struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel,omitempty"`
	Name    string          `json:"name,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	clientID string

	// only touched by the hub's run loop
	channels map[string]bool
}

type subscription struct {
	client  *Client
	channel string
	on      bool
}

// Hub fans broadcast frames out to every client subscribed to their channel.
// Clients too slow to keep up are dropped.
type Hub struct {
	cfg     *Config
	metrics *Metrics

	clients map[*Client]bool

	register  chan *Client
	unreg     chan *Client
	subs      chan subscription
	broadcast chan Frame
	done      chan struct{}

	mu sync.RWMutex
}

func newHub(cfg *Config, metrics *Metrics) *Hub {
	return &Hub{
		cfg:       cfg,
		metrics:   metrics,
		clients:   make(map[*Client]bool),
		register:  make(chan *Client),
		unreg:     make(chan *Client),
		subs:      make(chan subscription),
		broadcast: make(chan Frame),
		done:      make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()

			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.metrics.clients.Set(float64(len(h.clients)))
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.dropLocked(c)
			h.mu.Unlock()

		case s := <-h.subs:
			h.mu.Lock()
			if _, ok := h.clients[s.client]; ok && s.channel == "" {
				h.sendLocked(s.client, Frame{Action: actionError, Message: "missing channel"})
			} else if ok {
				action := actionDetached
				if s.on {
					s.client.channels[s.channel] = true
					action = actionAttached
				} else {
					delete(s.client.channels, s.channel)
				}

				h.sendLocked(s.client, Frame{Action: action, Channel: s.channel})
			}
			h.mu.Unlock()

		case f := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.channels[f.Channel] {
					h.sendLocked(client, f)
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendLocked queues f for c, dropping c if its queue is full.
func (h *Hub) sendLocked(c *Client, f Frame) {
	select {
	case c.send <- f:
	default:
		logf(h.cfg, "REALTIME: Dropping slow client %s", c.clientID)
		h.metrics.dropped.Inc()
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
	h.metrics.clients.Set(float64(len(h.clients)))
}

// Publish broadcasts one named event on channel.
func (h *Hub) Publish(channel, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	select {
	case h.broadcast <- Frame{Action: actionMessage, Channel: channel, Name: name, Data: raw}:
		return nil
	case <-h.done:
		return errors.New("realtime hub stopped")
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// closeAll disconnects every client (used on shutdown).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.metrics.clients.Set(0)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func authorized(cfg *Config, r *http.Request) bool {
	if cfg.apiKey == "" {
		return true
	}

	key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(key), []byte(cfg.apiKey)) == 1
}

func serveRealtime(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if !authorized(cfg, r) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)

			return
		}

		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			http.Error(w, "missing client id", http.StatusBadRequest)

			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("Realtime upgrade failed: %v", err)

			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			clientID: clientID,
			channels: make(map[string]bool),
		}

		if !h.join(client) {
			_ = conn.Close()

			return
		}

		logf(cfg, "REALTIME: %s connected from %s (%d clients)", clientID, realIP(r), h.Len())

		go client.writePump()
		client.readPump(h)

		logf(cfg, "REALTIME: %s disconnected (%d clients)", clientID, h.Len())
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			return
		}

		switch f.Action {
		case actionSubscribe, actionUnsubscribe:
			s := subscription{
				client:  c,
				channel: f.Channel,
				on:      f.Action == actionSubscribe,
			}

			select {
			case h.subs <- s:
			case <-h.done:
				return
			}
		default:
			// ignore unknown actions
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
