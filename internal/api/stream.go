package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/realtime"
)

const (
	streamBuffer    = 16
	streamHeartbeat = 15 * time.Second
)

// NotificationStreamHandler sends the caller's new notifications as
// server-sent events until the client disconnects.
func (h *APIHandler) NotificationStreamHandler(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "notification stream is not available"})
		return
	}
	userID := identity(r).UserID
	ctx := r.Context()

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	outbound := make(chan realtime.Event, streamBuffer)
	err := h.bus.Subscribe(ctx, func(ev realtime.Event) {
		if ev.RecipientID != userID {
			return
		}
		select {
		case outbound <- ev:
		default:
			h.log.Warn("dropping notification event; stream buffer full",
				zap.String("user_id", userID),
				zap.String("notification_id", ev.Notification.ID),
			)
		}
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("subscribing to notifications: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.Warn("notification stream unsupported", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case ev := <-outbound:
			data, err := json.Marshal(ev.Notification)
			if err != nil {
				h.log.Warn("failed to marshal notification event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.Notification.ID, ev.Event, data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
