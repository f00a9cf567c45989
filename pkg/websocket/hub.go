package websocket

import (
	"errors"
	"maps"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxInboundMessage bounds what a viewer may send; viewers are read-only and
// only pong or close frames are expected.
const maxInboundMessage = 512

var errHubClosed = errors.New("hub closed")

// HubConfig holds slot hub configuration.
type HubConfig struct {
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	MessageBufferSize int
	Logger            *zap.Logger
}

// Hub accepts viewer connections and broadcasts slot changes to them. It
// satisfies the display window contract (Update and Popup), so projections can
// fan out to it next to the in-memory board.
type Hub struct {
	config   HubConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*viewerConn]struct{}
	slots   map[string]SlotState
	closed  bool

	wg sync.WaitGroup
}

type viewerConn struct {
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	once        sync.Once
	connectedAt time.Time
}

// NewHub creates a slot hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 10 * time.Second
	}
	if cfg.PongTimeout <= cfg.PingInterval {
		cfg.PongTimeout = cfg.PingInterval + cfg.PingInterval/2
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	return &Hub{
		config: cfg,
		logger: cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Viewers are served from other origins (dashboards, local files).
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*viewerConn]struct{}),
		slots:   make(map[string]SlotState),
	}
}

// Update records the slot and broadcasts it to every viewer.
func (h *Hub) Update(key string, value any, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.slots[key] = SlotState{Value: value, Visible: visible}
	h.broadcastLocked(&Message{Type: TypeUpdate, Key: key, Value: value, Visible: visible})
}

// Popup broadcasts a transient message. Popups are not part of the snapshot.
func (h *Hub) Popup(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(&Message{Type: TypePopup, Text: message})
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// broadcastLocked queues msg on every viewer without blocking. Viewers whose
// buffer is full are disconnected. Must be called with h.mu held.
func (h *Hub) broadcastLocked(msg *Message) {
	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("hub-encode-failed",
			zap.String("type", msg.Type),
			zap.String("key", msg.Key),
			zap.Error(err))
		return
	}

	var slow []*viewerConn
	for c := range h.clients {
		select {
		case c.send <- data:
			MessagesSentTotal.WithLabelValues(msg.Type).Inc()
		default:
			MessagesDroppedTotal.WithLabelValues("viewer_slow").Inc()
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		h.logger.Warn("viewer-too-slow-disconnecting",
			zap.String("remote", c.conn.RemoteAddr().String()))
		h.removeLocked(c)
	}
}

// ServeHTTP upgrades the request and registers the viewer. The first frame a
// viewer receives is a snapshot of every known slot.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("viewer-upgrade-failed", zap.Error(err))
		return
	}

	c := &viewerConn{
		conn:        conn,
		send:        make(chan []byte, h.config.MessageBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}

	err = h.register(c)
	if err != nil {
		h.logger.Warn("viewer-register-failed", zap.Error(err))
		_ = conn.Close()
		return
	}

	h.logger.Info("viewer-connected",
		zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) register(c *viewerConn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHubClosed
	}

	data, err := json.Marshal(&Message{Type: TypeSnapshot, Slots: maps.Clone(h.slots)})
	if err != nil {
		return err
	}

	c.send <- data
	MessagesSentTotal.WithLabelValues(TypeSnapshot).Inc()

	h.clients[c] = struct{}{}
	h.wg.Add(2)
	ActiveConnections.Inc()

	return nil
}

// readLoop drains inbound frames so control frames are processed and the
// pong deadline is enforced.
func (h *Hub) readLoop(c *viewerConn) {
	defer h.wg.Done()
	defer h.remove(c)

	c.conn.SetReadLimit(maxInboundMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("viewer-read-error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *viewerConn) {
	defer h.wg.Done()
	defer c.conn.Close()
	defer h.remove(c)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			deadline := time.Now().Add(h.config.WriteTimeout)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.TextMessage, data)
			if err != nil {
				h.logger.Debug("viewer-write-error", zap.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(h.config.WriteTimeout)
			err := c.conn.WriteControl(websocket.PingMessage, nil, deadline)
			if err != nil {
				h.logger.Debug("viewer-ping-error", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) remove(c *viewerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
}

// removeLocked unregisters c once. The write loop then sends a close frame and
// closes the connection, which ends the read loop.
func (h *Hub) removeLocked(c *viewerConn) {
	c.once.Do(func() {
		delete(h.clients, c)
		close(c.done)

		ActiveConnections.Dec()
		ConnectionDuration.Observe(time.Since(c.connectedAt).Seconds())

		h.logger.Info("viewer-disconnected",
			zap.String("remote", c.conn.RemoteAddr().String()))
	})
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	h.wg.Wait()

	h.logger.Info("hub-closed")

	return nil
}
