// Package gateway serves the realtime conversation channel over
// WebSockets. Each conversation gets at most one channel; messages on a
// channel are processed strictly in order, while distinct conversations
// run fully in parallel.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/tools"
)

// Turner produces the assistant's reply for one turn. Satisfied by
// agent.Orchestrator.
type Turner interface {
	Turn(ctx context.Context, history []convo.Message, loc *tools.Location) string
}

// inbound is the client-to-server message format.
type inbound struct {
	Content string `json:"content"`
	IsVoice bool   `json:"is_voice"`
}

// outbound is the server-to-client message format. Either a message
// (role, content, timestamp) or an error, never both.
type outbound struct {
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// channel is one live connection with its turn-cancel hook.
type channel struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// Gateway upgrades HTTP requests to conversation channels.
type Gateway struct {
	logger   *slog.Logger
	store    convo.Store
	turner   Turner
	upgrader websocket.Upgrader

	mu       sync.Mutex
	channels map[string]*channel
}

// New creates a gateway over the given store and orchestrator.
func New(store convo.Store, turner Turner, logger *slog.Logger) *Gateway {
	return &Gateway{
		logger: logger,
		store:  store,
		turner: turner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser and kiosk clients connect from arbitrary
			// origins; auth happens at conversation creation.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		channels: make(map[string]*channel),
	}
}

// ServeHTTP handles GET /ws/{id}. It blocks for the life of the
// channel.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "conversation", id, "error", err)
		return
	}
	defer conn.Close()

	sess, err := convo.Open(g.store, id)
	if err != nil {
		conn.WriteJSON(outbound{Error: "conversation not found"})
		return
	}
	if sess.Ended() {
		conn.WriteJSON(outbound{Error: "conversation has ended"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := &channel{conn: conn, cancel: cancel}
	g.register(id, ch)
	defer g.unregister(id, conn)

	g.logger.Info("channel opened", "conversation", id)
	defer g.logger.Info("channel closed", "conversation", id)

	// The pump owns the socket reads so a disconnect cancels ctx even
	// while a turn is in flight. Processing stays here, one message at
	// a time.
	msgs := make(chan inbound)
	go g.readPump(ctx, conn, msgs, cancel)

	for msg := range msgs {
		if err := g.handle(ctx, conn, sess, msg); err != nil {
			return
		}
	}
}

// readPump reads client messages until the connection drops, then
// cancels the channel context.
func (g *Gateway) readPump(ctx context.Context, conn *websocket.Conn, out chan<- inbound, cancel context.CancelFunc) {
	defer cancel()
	defer close(out)
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// handle runs one full turn: persist the user message, orchestrate,
// persist and deliver the reply. A non-nil return tears the channel
// down.
func (g *Gateway) handle(ctx context.Context, conn *websocket.Conn, sess *convo.Session, in inbound) error {
	if strings.TrimSpace(in.Content) == "" {
		conn.WriteJSON(outbound{Error: "empty message"})
		return nil
	}

	if _, err := sess.Append(convo.RoleUser, in.Content, in.IsVoice); err != nil {
		g.logger.Warn("append failed", "conversation", sess.ID(), "error", err)
		if errors.Is(err, convo.ErrEnded) {
			conn.WriteJSON(outbound{Error: "conversation has ended"})
		} else {
			conn.WriteJSON(outbound{Error: "failed to save message"})
		}
		return err
	}

	var loc *tools.Location
	if lat, lon, ok := sess.Location(); ok {
		loc = &tools.Location{Lat: lat, Lon: lon}
	}

	reply := g.turner.Turn(ctx, sess.History(), loc)
	if ctx.Err() != nil {
		// Client went away mid-turn. The reply is discarded rather
		// than recorded against a channel that can't deliver it.
		return ctx.Err()
	}

	msg, err := sess.Append(convo.RoleAssistant, reply, false)
	if err != nil {
		g.logger.Warn("append failed", "conversation", sess.ID(), "error", err)
		conn.WriteJSON(outbound{Error: "failed to save response"})
		return err
	}

	return conn.WriteJSON(outbound{
		Role:      convo.RoleAssistant,
		Content:   reply,
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	})
}

// register installs the channel, displacing any existing channel for
// the same conversation.
func (g *Gateway) register(id string, ch *channel) {
	g.mu.Lock()
	old := g.channels[id]
	g.channels[id] = ch
	g.mu.Unlock()

	if old != nil {
		g.logger.Info("channel superseded", "conversation", id)
		old.cancel()
		deadline := time.Now().Add(time.Second)
		old.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "superseded by a new connection"),
			deadline)
		old.conn.Close()
	}
}

// unregister removes the channel unless it was already displaced.
func (g *Gateway) unregister(id string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch, ok := g.channels[id]; ok && ch.conn == conn {
		delete(g.channels, id)
	}
}

// ActiveChannels returns the number of open channels.
func (g *Gateway) ActiveChannels() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.channels)
}

// Close tears down every open channel. Used during shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	channels := g.channels
	g.channels = make(map[string]*channel)
	g.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for id, ch := range channels {
		g.logger.Debug("closing channel", "conversation", id)
		ch.cancel()
		ch.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadline)
		ch.conn.Close()
	}
}
