package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/workflow/engine"
	"github.com/tailored-agentic-units/workflow/workflow"
)

// handleStream upgrades to a WebSocket, reads one RunRequest text message and
// streams the run as JSON text messages. The connection is closed normally
// once the terminal event (or error event) was sent. A peer that disconnects
// mid-run cancels it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	emitter := engine.EmitterFunc(func(_ context.Context, e engine.Event) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(e)
	})

	var req workflow.RunRequest
	if err := conn.ReadJSON(&req); err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return
		}
		if emitter.Emit(ctx, engine.ErrorEvent(fmt.Errorf("malformed run request: %w", err))) == nil {
			s.closeNormally(conn)
		}
		return
	}

	// The peer sends nothing after the request; a read error means it left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = s.svc.StreamRun(ctx, req, emitter)
	if errors.Is(err, engine.ErrStreamAborted) {
		s.logger.Debug("stream aborted", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	if err != nil {
		s.logger.Debug("stream run failed", "graph_id", req.GraphID, "error", err)
	}
	s.closeNormally(conn)
}

func (s *Server) closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("failed to send close frame", "error", err)
	}
}
