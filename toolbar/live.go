package toolbar

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	liveMaxClients   = 100
	liveSendBuffer   = 32
	livePingInterval = 30 * time.Second
	liveReadTimeout  = 60 * time.Second
	liveWriteTimeout = 10 * time.Second
)

// Hub pushes a JSON Summary of every processed toolbar to connected websocket clients.
//
// Slow clients miss messages instead of blocking requests.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

type liveClient struct {
	send chan []byte
}

// NewHub returns a Hub. A nil logger means slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*liveClient]struct{}),
		done:    make(chan struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish sends sum to every client that has room for it.
func (h *Hub) Publish(sum Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	msg, err := json.Marshal(sum)
	if err != nil {
		h.logger.Error("toolbar: encode live summary failed", slog.Any("err", err))
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close disconnects all clients. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ServeHTTP upgrades the request to a websocket and streams summaries until the client goes
// away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "live feed closed", http.StatusServiceUnavailable)
		return
	default:
	}
	if h.Clients() >= liveMaxClients {
		http.Error(w, "too many live clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.WarnContext(r.Context(), "toolbar: live upgrade failed", slog.Any("err", err))
		return
	}

	c := &liveClient{send: make(chan []byte, liveSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	})

	// Reading is needed to notice disconnects and to process pongs.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("toolbar: live read failed", slog.Any("err", err))
				}
				return
			}
		}
	}()
	// conn.Close unblocks the reader; wait for it before returning.
	defer func() {
		_ = conn.Close()
		<-readDone
	}()

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		case <-h.done:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
