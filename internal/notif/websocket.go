package notif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cleanuptracker/internal/common"
)

var (
	ErrChannelFull   = errors.New("channel send buffer full")
	ErrChannelClosed = errors.New("channel closed")
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// wsChannel is a Channel over one WebSocket connection. Frames are queued
// on a bounded buffer and written by a single writer goroutine.
type wsChannel struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	log          *zap.SugaredLogger
}

func newWSChannel(conn *websocket.Conn, buffer int, writeTimeout time.Duration, log *zap.SugaredLogger) *wsChannel {
	if buffer <= 0 {
		buffer = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	id := uuid.NewString()
	return &wsChannel{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log.With("channel", id),
	}
}

func (c *wsChannel) ID() string {
	return c.id
}

func (c *wsChannel) Send(msg common.Envelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", msg.Type, err)
	}

	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrChannelClosed
	default:
		return ErrChannelFull
	}
}

func (c *wsChannel) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *wsChannel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debugw("write failed", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debugw("ping failed", "error", err)
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

type inboundFrame struct {
	Type common.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// readPump blocks until the peer goes away. Only registerUser frames are
// acted upon; onRegister is called with the user id they carry.
func (c *wsChannel) readPump(onRegister func(userID string)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debugw("connection lost", "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Debugw("ignoring malformed frame", "error", err)
			continue
		}
		if frame.Type != common.MessageRegisterUser {
			continue
		}

		var userID string
		if err := json.Unmarshal(frame.Data, &userID); err != nil {
			// numeric ids are accepted as sent by older clients
			var n json.Number
			if json.Unmarshal(frame.Data, &n) != nil {
				c.log.Debugw("ignoring registerUser without user id")
				continue
			}
			userID = n.String()
		}
		if userID = strings.TrimSpace(userID); userID != "" {
			onRegister(userID)
		}
	}
}

// ServeWS upgrades the request and keeps the connection registered for as
// long as it stays open.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := common.ResolveIdentity(r, h.tokens)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugw("websocket upgrade failed", "error", err)
		return
	}

	ch := newWSChannel(conn, h.cfg.Notification.SendBuffer, h.cfg.Notification.WriteTimeout, h.log)
	go ch.writePump()

	ctx := context.WithoutCancel(r.Context())
	defer func() {
		h.coordinator.OnDisconnect(ch)
		ch.close()
	}()

	connect := func(id string) {
		if err := h.coordinator.OnConnect(ctx, id, ch); err != nil {
			h.log.Warnw("connected with empty sync", "user", id, "error", err)
		}
	}

	if userID != "" {
		connect(userID)
	}
	ch.readPump(func(claimed string) {
		if h.tokens.Enabled() && claimed != userID {
			h.log.Warnw("registerUser rejected", "token_user", userID, "claimed", claimed)
			return
		}
		connect(claimed)
	})
}
