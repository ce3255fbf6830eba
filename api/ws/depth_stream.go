// Package ws streams depth snapshots to websocket subscribers.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"kestrel/infra/metrics"
	"kestrel/jobs/depthfeed"
)

const writeTimeout = 5 * time.Second

type DepthStream struct {
	src      depthfeed.DepthSource
	interval time.Duration
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewDepthStream(src depthfeed.DepthSource, interval time.Duration, log zerolog.Logger) *DepthStream {
	return &DepthStream{
		src:      src,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: log,
	}
}

// ServeHTTP upgrades the connection and pushes the symbol's depth on
// every tick until the client goes away.
func (s *DepthStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.DepthStreamClients.Inc()
	defer metrics.DepthStreamClients.Dec()

	// drain client frames so pings and close frames are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(s.src.Depth(symbol)); err != nil {
				return
			}
		}
	}
}
