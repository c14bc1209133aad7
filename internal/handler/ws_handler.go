/*
Package handler provides the HTTP handler for WebSocket connection upgrading.

HandleWebSocket upgrades the connection and hands it to the hub. Join rate limiting
is applied by the router before this handler runs.
The client logs in afterwards with a login event; nothing identifies the user at upgrade time.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tealtint-nt/WebRTCSample/internal/app/chat"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, deps.Config.SendBuffer)

		logx.Info("WebSocket connection established", "conn_id", client.ID())

		client.Serve()
	}
}
