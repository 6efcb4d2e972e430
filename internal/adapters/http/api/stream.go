// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
	"github.com/okian/drivemind/pkg/metrics"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamReadLimit    = 4096
)

// Stream message types.
const (
	streamTypeSnapshot = "snapshot"
	streamTypeError    = "error"
)

// streamCommand is a client message on the run stream. Exactly one of
// Option or Finish is expected.
type streamCommand struct {
	Option *int `json:"option,omitempty"`
	Finish bool `json:"finish,omitempty"`

	err error
}

// streamMessage is a server message on the run stream.
type streamMessage struct {
	Type       string                 `json:"type"`
	Run        *simulation.Snapshot   `json:"run,omitempty"`
	Resolution *simulation.Resolution `json:"resolution,omitempty"`
	Error      *errorResponse         `json:"error,omitempty"`
}

// StreamHandler pushes run snapshots over a WebSocket, advancing the run on
// every push, and accepts decisions from the client.
type StreamHandler struct {
	deps     RunDependencies
	interval time.Duration
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps RunDependencies, interval time.Duration, l logger.Logger) *StreamHandler {
	return &StreamHandler{
		deps:     deps,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: l,
	}
}

// HandleStream handles GET /runs/{id}/stream requests. The socket closes
// once the run has finished or was abandoned.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.deps.Run(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Debug(r.Context(), "stream upgrade failed", logger.String("run_id", id), logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.AddStreamClients(1)
	defer metrics.AddStreamClients(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	commands := make(chan streamCommand)
	go h.readLoop(ctx, cancel, conn, commands)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.send(conn, streamMessage{Type: streamTypeSnapshot, Run: &snap}); err != nil {
		return
	}
	for snap.Phase.Active() {
		var msg streamMessage
		select {
		case <-ctx.Done():
			return
		case cmd := <-commands:
			msg = h.apply(ctx, id, cmd)
		case <-ticker.C:
			next, err := h.deps.Run(ctx, id)
			if err != nil {
				_, code := domainErrorCode(err)
				_ = h.send(conn, streamMessage{Type: streamTypeError, Error: &errorResponse{Code: code, Message: err.Error()}})
				return
			}
			msg = streamMessage{Type: streamTypeSnapshot, Run: &next}
		}
		if msg.Run != nil {
			snap = *msg.Run
		}
		if err := h.send(conn, msg); err != nil {
			h.logger.Debug(ctx, "stream write failed", logger.String("run_id", id), logger.Error(err))
			return
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(snap.Phase)),
		time.Now().Add(streamWriteTimeout))
}

// apply executes one client command against the run.
func (h *StreamHandler) apply(ctx context.Context, id string, cmd streamCommand) streamMessage {
	fail := func(err error) streamMessage {
		_, code := domainErrorCode(err)
		return streamMessage{Type: streamTypeError, Error: &errorResponse{Code: code, Message: err.Error()}}
	}

	switch {
	case cmd.err != nil:
		return fail(cmd.err)
	case cmd.Option != nil:
		res, snap, err := h.deps.Resolve(ctx, id, *cmd.Option)
		if err != nil {
			return fail(err)
		}
		return streamMessage{Type: streamTypeSnapshot, Run: &snap, Resolution: &res}
	case cmd.Finish:
		if _, err := h.deps.Finish(ctx, id); err != nil {
			return fail(err)
		}
		snap, err := h.deps.Run(ctx, id)
		if err != nil {
			return fail(err)
		}
		return streamMessage{Type: streamTypeSnapshot, Run: &snap}
	default:
		return fail(fmt.Errorf("empty command: %w", ErrBadRequest))
	}
}

// readLoop forwards client commands until the connection fails.
func (h *StreamHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- streamCommand) {
	defer cancel()
	conn.SetReadLimit(streamReadLimit)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd streamCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			cmd = streamCommand{err: fmt.Errorf("decode command: %w: %w", ErrBadRequest, err)}
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write stream message: %w", err)
	}
	return nil
}
