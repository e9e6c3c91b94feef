package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// handleEvents streams board frames via Server-Sent Events.
//
// On connect the client receives the current board immediately (when one has
// been rendered), then every subsequent frame as it commits. Heartbeat
// comments keep proxies from timing the connection out. The stream ends when
// the client disconnects.
//
// Example:
//
//	GET /board/events
//
//	event: board
//	data: {"seq":4,"group_by":"status","buckets":[...]}
//
//	: heartbeat
func (s *Server) handleEvents(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	id, frames := s.subscribe()
	defer s.unsubscribe(id)

	ctx := c.Request().Context()
	s.metrics.SSEConnected(ctx)
	defer s.metrics.SSEDisconnected(ctx)

	c.Response().WriteHeader(http.StatusOK)

	// Snapshot first: a new client should not wait a full update cycle to
	// see the board
	if frame, ok := s.latest(); ok {
		if err := writeBoardEvent(c, boardResponse(frame)); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-frames:
			if err := writeBoardEvent(c, boardResponse(frame)); err != nil {
				return err
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(c.Response(), ": heartbeat\n\n"); err != nil {
				return err
			}
			c.Response().Flush()

		case <-ctx.Done():
			// Client disconnected
			return nil
		}
	}
}

func writeBoardEvent(c echo.Context, resp BoardResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: board\ndata: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
