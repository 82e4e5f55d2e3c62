// Package websocket pushes lifecycle events to browsers watching a video.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/model"
)

const (
	sendBuffer   = 16
	pingInterval = 30 * time.Second
)

// Client is one WebSocket subscriber of a video
type Client struct {
	VideoID string
	Send    chan []byte
}

// Hub fans out messages to the subscribers of each video
type Hub struct {
	// Clients grouped by video ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	mu  sync.RWMutex
	log zerolog.Logger
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	VideoID string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.VideoID] == nil {
				h.clients[client.VideoID] = make(map[*Client]bool)
			}
			h.clients[client.VideoID][client] = true
			h.mu.Unlock()
			h.log.Debug().Str("video_id", client.VideoID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.Debug().Str("video_id", client.VideoID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.VideoID] {
				select {
				case client.Send <- msg.Message:
				default:
					// Slow consumer; drop it rather than stall everyone else.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.VideoID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.VideoID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns how many clients watch videoID
func (h *Hub) Subscribers(videoID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[videoID])
}

// BroadcastProgress sends the latest snapshot to all subscribers
func (h *Hub) BroadcastProgress(videoID string, snap *model.StatusSnapshot) {
	h.send(videoID, model.WSProgressMessage{
		Type:     model.WSMessageTypeProgress,
		VideoID:  videoID,
		Snapshot: snap,
	})
}

// BroadcastComplete tells subscribers where the result view is
func (h *Hub) BroadcastComplete(videoID, videoURL, redirect string) {
	h.send(videoID, model.WSCompleteMessage{
		Type:     model.WSMessageTypeComplete,
		VideoID:  videoID,
		VideoURL: videoURL,
		Redirect: redirect,
	})
}

// BroadcastError sends a job-level failure to all subscribers
func (h *Hub) BroadcastError(videoID, code, message string) {
	h.send(videoID, model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		VideoID: videoID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Hub) send(videoID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("video_id", videoID).Msg("failed to marshal ws message")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{VideoID: videoID, Message: data}:
	case <-h.done:
	}
}

// Conn is the part of a WebSocket connection the hub drives.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
}

// HandleConnection serves one subscriber until either side closes.
func (h *Hub) HandleConnection(c Conn, videoID string) {
	client := &Client{
		VideoID: videoID,
		Send:    make(chan []byte, sendBuffer),
	}

	h.Register(client)
	defer h.Unregister(client)

	go h.writePump(c, client)

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Str("video_id", videoID).Msg("websocket read failed")
			}
			return
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			h.broadcastTo(client, data)
		}
	}
}

// broadcastTo queues data for a single client without going through Run.
func (h *Hub) broadcastTo(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.VideoID][client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func (h *Hub) writePump(c Conn, client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
