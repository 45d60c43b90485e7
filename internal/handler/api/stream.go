package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ARMTS/internal/domain/models"
	xlogger "ARMTS/pkg/logger"
	"ARMTS/pkg/util"
)

type streamConfig struct {
	buffer       int
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

func defaultStreamConfig() streamConfig {
	return streamConfig{
		buffer:       256,
		writeTimeout: 5 * time.Second,
		pingInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// StreamMessage is one frame of the live archive stream.
type StreamMessage struct {
	Type  string              `json:"type"` // snapshot or update
	Entry models.ArchiveEntry `json:"entry"`
}

// Stream upgrades to a WebSocket, sends the current top rules (?top=N, default 10) and then
// every archive insert or improvement. Updates are dropped for a client that falls behind.
func (h *RulesHandler) Stream(c echo.Context) error {
	ws, err := h.stream.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil // upgrader already wrote the response
	}
	defer ws.Close()

	top := util.ParseIntClamp(c.QueryParam("top"), 10, 1, 1000)
	updates := make(chan models.ArchiveEntry, h.stream.buffer)
	var dropped atomic.Int64
	unsubscribe := h.miner.Archive().Subscribe(func(e models.ArchiveEntry) {
		select {
		case updates <- e:
		default:
			dropped.Add(1)
		}
	})
	defer unsubscribe()

	// reader goroutine notices client close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg StreamMessage) error {
		_ = ws.SetWriteDeadline(time.Now().Add(h.stream.writeTimeout))
		return ws.WriteJSON(msg)
	}

	for _, e := range h.miner.Archive().Top(top) {
		if err := write(StreamMessage{Type: "snapshot", Entry: e}); err != nil {
			return nil
		}
	}

	ping := time.NewTicker(h.stream.pingInterval)
	defer ping.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case e := <-updates:
			if err := write(StreamMessage{Type: "update", Entry: e}); err != nil {
				h.logger.Debug("websocket write failed", xlogger.Error(err))
				return nil
			}
		case <-ping.C:
			deadline := time.Now().Add(h.stream.writeTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
		case <-closed:
			if n := dropped.Load(); n > 0 {
				h.logger.Info("websocket client closed", xlogger.Int64("dropped", n))
			}
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
