package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ViewerConfig holds viewer configuration.
type ViewerConfig struct {
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// Viewer follows a hub and delivers its frames on a channel, reconnecting
// when the connection drops. Every reconnect starts with a fresh snapshot.
type Viewer struct {
	url             string
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *ReconnectManager
	config          ViewerConfig
	messageChan     chan *Message
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	connected       atomic.Bool
	connectionStart atomic.Int64
}

// NewViewer creates a viewer.
func NewViewer(cfg ViewerConfig) *Viewer {
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

	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Viewer{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan *Message, cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start dials the hub and starts the read, ping and reconnect loops.
func (v *Viewer) Start() error {
	v.logger.Info("viewer-starting", zap.String("url", v.url))

	err := v.connect(v.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	v.wg.Add(3)
	go v.readLoop()
	go v.pingLoop()
	go v.reconnectLoop()

	return nil
}

func (v *Viewer) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: v.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, v.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", v.url, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(v.config.PongTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(v.config.PongTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(v.config.PongTimeout))
	})

	v.mu.Lock()
	v.conn = conn
	v.mu.Unlock()

	v.connected.Store(true)
	v.connectionStart.Store(time.Now().Unix())
	ViewerConnected.Set(1)

	v.logger.Info("viewer-connected", zap.String("url", v.url))

	return nil
}

// readLoop decodes frames until the connection fails.
func (v *Viewer) readLoop() {
	defer v.wg.Done()

	v.mu.RLock()
	conn := v.conn
	v.mu.RUnlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if v.ctx.Err() == nil {
				v.logger.Warn("viewer-read-error", zap.Error(err))
			}

			startTime := v.connectionStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			v.connected.Store(false)
			ViewerConnected.Set(0)
			return
		}

		var msg Message
		err = json.Unmarshal(data, &msg)
		if err != nil {
			v.logger.Debug("viewer-unparseable-message",
				zap.Error(err),
				zap.Int("bytes", len(data)))
			continue
		}

		MessagesReceivedTotal.WithLabelValues(msg.Type).Inc()

		select {
		case v.messageChan <- &msg:
		default:
			v.logger.Warn("viewer-channel-full", zap.String("type", msg.Type))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}
	}
}

// pingLoop sends periodic PING frames.
func (v *Viewer) pingLoop() {
	defer v.wg.Done()

	ticker := time.NewTicker(v.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return
		case <-ticker.C:
			if !v.connected.Load() {
				continue
			}

			v.mu.RLock()
			conn := v.conn
			v.mu.RUnlock()

			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			if err != nil {
				v.logger.Warn("viewer-ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop redials when the read loop reports a lost connection.
func (v *Viewer) reconnectLoop() {
	defer v.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return
		case <-ticker.C:
		}

		if v.connected.Load() {
			continue
		}

		v.logger.Warn("viewer-connection-lost")

		err := v.reconnectMgr.Reconnect(v.ctx, v.connect)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			v.logger.Error("viewer-reconnect-aborted", zap.Error(err))
			continue
		}

		if v.ctx.Err() != nil {
			v.mu.RLock()
			_ = v.conn.Close()
			v.mu.RUnlock()
			return
		}

		v.wg.Add(1)
		go v.readLoop()
	}
}

// Connected reports whether the viewer currently holds a live connection.
func (v *Viewer) Connected() bool {
	return v.connected.Load()
}

// Messages returns the channel of frames received from the hub. It is closed
// by Close.
func (v *Viewer) Messages() <-chan *Message {
	return v.messageChan
}

// Close stops the viewer and closes its message channel.
func (v *Viewer) Close() error {
	v.logger.Info("viewer-closing")

	v.cancel()

	v.mu.RLock()
	if v.conn != nil {
		_ = v.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = v.conn.Close()
	}
	v.mu.RUnlock()

	v.wg.Wait()

	close(v.messageChan)
	ViewerConnected.Set(0)

	v.logger.Info("viewer-closed")

	return nil
}
