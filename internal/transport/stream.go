package transport

import (
	"fmt"
	"net/http"

	"watermelon-stand/internal/live"
	"watermelon-stand/internal/middleware"

	"go.uber.org/zap"
)

// streamFeed serves a live snapshot feed over server-sent events. Every
// event carries the full current snapshot. The subscription is released when
// the client goes away or the server shuts the request down.
func streamFeed(w http.ResponseWriter, r *http.Request, feed *live.Feed, logger *zap.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	snapshots, cancel := feed.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot); err != nil {
				logger.Debug("Snapshot stream write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
