package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rustyeddy/fxdash/pkg/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// stream sends the current snapshot, then one per state change, until the
// client disconnects or the controller stops.
func (h *handlers) stream(c *gin.Context) {
	updates, cancel := h.d.Subscribe()
	defer cancel()

	first, ok := h.current(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debugf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Reads only detect the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			logger.Debugf("ws write: %v", err)
			return false
		}
		return true
	}

	if !send(first) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case s, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "dashboard stopped"),
					time.Now().Add(writeWait))
				return
			}
			if !send(s) {
				return
			}
		}
	}
}
