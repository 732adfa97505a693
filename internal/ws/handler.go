package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hybrid_simulator/internal/config"
	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and starts runs on the engine.
// A sim:run payload is a partial configuration merged over the base one.
type Handler struct {
	ctx    context.Context
	hub    *Hub
	engine *simulator.Engine
	bridge *Bridge
	base   config.File
	getter remote.Getter

	wg sync.WaitGroup
}

// NewHandler creates a handler. Runs started through it use ctx, so
// cancelling ctx aborts them.
func NewHandler(ctx context.Context, hub *Hub, engine *simulator.Engine, bridge *Bridge, base config.File, getter remote.Getter) *Handler {
	return &Handler{ctx: ctx, hub: hub, engine: engine, bridge: bridge, base: base, getter: getter}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn("websocket upgrade error", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendDefaults(client)
	h.sendStatus(client)
	h.sendLastSummary(client)

	h.readPump(client)
}

// Wait blocks until every run started by the handler has returned.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(h.ctx).Warn("websocket read error", slog.Any("error", err))
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	logger := log.Ctx(h.ctx)

	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		logger.Warn("invalid message", slog.Any("error", err))
		return
	}

	switch env.Type {
	case TypeSimRun:
		cfg := h.base
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &cfg); err != nil {
				logger.Warn("invalid sim:run payload", slog.Any("error", err))
				h.sendError(c, "invalid sim:run payload: "+err.Error())
				return
			}
		}
		if err := cfg.Validate(); err != nil {
			h.sendError(c, err.Error())
			return
		}
		rc, err := cfg.RunConfig(h.getter)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		if h.engine.Running() {
			h.sendError(c, simulator.ErrBusy.Error())
			return
		}

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.run(rc)
		}()

	default:
		logger.Warn("unknown message type", slog.String("type", env.Type))
	}
}

func (h *Handler) run(rc simulator.RunConfig) {
	_, err := h.engine.Run(h.ctx, rc)
	switch {
	case errors.Is(err, simulator.ErrBusy):
		log.Ctx(h.ctx).Info("run rejected, engine busy")
	case err != nil:
		log.Ctx(h.ctx).Error("run failed", slog.Any("error", err))
		h.bridge.Fail(uuid.Nil, err)
	}
	h.broadcastStatus()
}

func (h *Handler) statusMessage() ([]byte, error) {
	p := SimStatusPayload{Running: h.engine.Running()}
	if last := h.engine.Last(); last != nil {
		p.LastRun = runID(last.RunID)
	}
	return NewEnvelope(TypeSimStatus, p)
}

func (h *Handler) broadcastStatus() {
	msg, err := h.statusMessage()
	if err != nil {
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) sendStatus(c *Client) {
	msg, err := h.statusMessage()
	if err != nil {
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendDefaults(c *Client) {
	msg, err := NewEnvelope(TypeConfigDefault, h.base)
	if err != nil {
		log.Ctx(h.ctx).Error("marshaling defaults", slog.Any("error", err))
		return
	}
	c.trySend(msg)
}

// sendLastSummary lets late joiners see the latest completed run.
func (h *Handler) sendLastSummary(c *Client) {
	last := h.engine.Last()
	if last == nil {
		return
	}
	msg, err := NewEnvelope(TypeSimSummary, SummaryPayload{RunID: runID(last.RunID), Summary: last.Summary})
	if err != nil {
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendError(c *Client, message string) {
	msg, err := NewEnvelope(TypeSimError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.trySend(msg)
}
