package sse

import (
	"net/http"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/rs/zerolog"
)

var sseLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

const keepAliveInterval = 25 * time.Second

// ServeHTTP streams events for ?topic= until the client goes away.
func (s *SSEClients) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		util.WriteError(w, r, apperror.Validation("topic", "topic is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeSSE)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := NewClient(topic)
	s.Add(client)
	defer s.Delete(client)

	zerolog.Ctx(r.Context()).Debug().Str("topic", topic).Msg("Event stream opened")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			if _, err := w.Write([]byte(msg)); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
