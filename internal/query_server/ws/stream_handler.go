package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/internal/query_server/handler"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamTracesHandler upgrades the connection and pushes trace lifecycle
// events as JSON until the client disconnects. Late subscribers receive
// no replay; current state is recoverable through the query endpoints.
func StreamTracesHandler(
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade failed", zap.Error(err))
			return
		}
		defer func() {
			err := conn.Close()
			if err != nil {
				logger.Debug("Error encountered when closing websocket", zap.Error(err))
			}
		}()

		subscription := cs.StreamTraces()
		defer subscription.Close()

		// Reader loop exists only to observe the close handshake.
		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-disconnected:
				return
			case event, ok := <-subscription.Events():
				if !ok {
					return
				}
				if err := conn.WriteJSON(handler.TraceEventToDTO(event)); err != nil {
					logger.Debug("Failed to write event to websocket", zap.Error(err))
					return
				}
			}
		}
	}
}
