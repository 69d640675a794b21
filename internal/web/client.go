package web

import (
	"encoding/json"
	"time"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/logger"
	"github.com/codefionn/rechenschnell/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	errRateLimited = "rate limit exceeded"
)

// Client is one WebSocket connection attached to a calculator session.
type Client struct {
	ID      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan *WebMessage
	session *session.Session
	limiter *rate.Limiter
	metrics *Metrics
	log     *logger.Logger
}

// NewClient creates a new WebSocket client. A nil limiter disables rate
// limiting.
func NewClient(hub *Hub, conn *websocket.Conn, sess *session.Session, limiter *rate.Limiter, metrics *Metrics) *Client {
	id := uuid.NewString()
	return &Client{
		ID:      id,
		hub:     hub,
		conn:    conn,
		send:    make(chan *WebMessage, 64),
		session: sess,
		limiter: limiter,
		metrics: metrics,
		log:     logger.Global().WithPrefix("ws " + id[:8]),
	}
}

// ReadPump pumps messages from the WebSocket connection into the session
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Error("WebSocket read error: %v", err)
			}
			break
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.metrics.recordRateLimited()
			c.hub.Send(c, errorMessage(errRateLimited))
			continue
		}

		var msg WebMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Warn("Failed to unmarshal message: %v", err)
			c.hub.Send(c, errorMessage("malformed message"))
			continue
		}

		c.log.Debug("received %s", string(message))
		c.handleMessage(&msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Warn("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one incoming message to the session and answers with
// the new state. Other tabs on the same session receive the state as well when
// it changed.
func (c *Client) handleMessage(msg *WebMessage) {
	var ka calc.KeyAction
	switch msg.Type {
	case MessageTypeKey:
		ka = calc.ActionForKey(msg.Key)
	case MessageTypeButton:
		ka = calc.ActionForButton(msg.Value, msg.Action)
	case MessageTypeState:
		c.hub.Send(c, stateMessage(c.session.ID, c.session.Do(nil)))
		return
	default:
		c.log.Warn("Unknown message type: %s", msg.Type)
		c.hub.Send(c, errorMessage("unknown message type: "+msg.Type))
		return
	}

	changed := false
	state := c.session.Do(func(e *calc.Engine) {
		changed = applyAction(e, ka, c.metrics, "ws")
	})

	reply := stateMessage(c.session.ID, state)
	c.hub.Send(c, reply)
	if changed {
		c.hub.BroadcastSession(c.session.ID, c, reply)
	}
}

// applyAction performs ka on e, records it and reports whether the engine
// changed.
func applyAction(e *calc.Engine, ka calc.KeyAction, metrics *Metrics, source string) bool {
	if ka.Action == calc.ActionNone {
		return false
	}
	metrics.recordAction(ka.Action.String())

	if ka.Action != calc.ActionCommit {
		return e.Apply(ka)
	}

	beforeExpr, beforeAnswer := e.Expression(), e.LastAnswer()
	ok := e.Commit()
	metrics.recordEvaluation(source, ok)
	return ok && (e.Expression() != beforeExpr || e.LastAnswer() != beforeAnswer)
}
