package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vadiminshakov/livefolio/internal/engine"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// handleViewStream sends the current view, then every published one, as SSE "view" events
// whose id is the view version.
func (s *Server) handleViewStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	views, cancel := s.engine.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	var lastVersion uint64
	send := func(v engine.View) error {
		if v.Version != 0 && v.Version <= lastVersion {
			return nil
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: view\n")
		fmt.Fprintf(w, "id: %d\n", v.Version)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		lastVersion = v.Version
		return nil
	}

	if err := send(s.engine.View()); err != nil {
		s.logger.Warn("view stream initial send", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case v, ok := <-views:
			if !ok {
				return
			}
			if err := send(v); err != nil {
				s.logger.Warn("view stream send", zap.Error(err))
				return
			}
		}
	}
}
