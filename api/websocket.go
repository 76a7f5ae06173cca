package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = maxBodyBytes

	// Outbound messages buffered per client before it counts as slow.
	sendBuffer = 64
)

// WSMessage is the envelope for every WebSocket frame.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsOut is the outbound form of WSMessage; Data is marshalled on write.
type wsOut struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub tracks connected clients and fans out broadcast messages.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one WebSocket connection.
type WSClient struct {
	send chan wsOut
	done chan struct{}
	once sync.Once
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]struct{})}
}

func newWSClient() *WSClient {
	return &WSClient{
		send: make(chan wsOut, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues msg for the client. It reports false when the client is
// closed or its buffer is full.
func (c *WSClient) Send(msg wsOut) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close stops the client's write pump. Safe to call more than once.
func (c *WSClient) Close() { c.once.Do(func() { close(c.done) }) }

// Register adds a client to the hub.
func (h *WSHub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes it.
func (h *WSHub) Unregister(c *WSClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

// Broadcast sends a message of the given type to every client. Slow
// clients are disconnected.
func (h *WSHub) Broadcast(msgType string, data interface{}) {
	out := wsOut{Type: msgType, Data: data}
	h.mu.RLock()
	var slow []*WSClient
	for c := range h.clients {
		if !c.Send(out) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.Unregister(c)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.Close()
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin applies the configured CORS origins to WebSocket upgrades.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.CORSOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleWebSocket upgrades the connection and runs one chat session.
// Inbound: {"type":"chat","data":ChatRequest} and {"type":"ping"}.
// Outbound: {"type":"reply","data":Reply}, "pong", "error" and broadcast "quote".
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newWSClient()
	s.wsHub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	var turns sync.WaitGroup
	defer func() {
		cancel()
		turns.Wait()
		s.wsHub.Unregister(client)
	}()

	go wsWritePump(conn, client)
	s.wsReadPump(ctx, conn, client, &turns)
}

// wsReadPump reads frames until the peer goes away. Chat turns run in
// their own goroutines so that a slow turn does not stall ping handling.
func (s *Server) wsReadPump(ctx context.Context, conn *websocket.Conn, client *WSClient, turns *sync.WaitGroup) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.Send(wsOut{Type: "error", Data: "invalid message"})
			continue
		}

		switch msg.Type {
		case "ping":
			client.Send(wsOut{Type: "pong"})
		case "chat":
			var req ChatRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				client.Send(wsOut{Type: "error", Data: "invalid chat payload"})
				continue
			}
			in, err := req.inbound()
			if err != nil {
				client.Send(wsOut{Type: "error", Data: err.Error()})
				continue
			}
			turns.Add(1)
			go func() {
				defer turns.Done()
				reply := s.chat.Handle(ctx, in)
				client.Send(wsOut{Type: "reply", Data: reply})
				s.publishQuote(reply)
			}()
		default:
			client.Send(wsOut{Type: "error", Data: "unknown message type " + msg.Type})
		}
	}
}

// wsWritePump writes queued messages and keeps the connection alive with
// pings. It owns all writes to conn.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				client.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}

		case <-client.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
