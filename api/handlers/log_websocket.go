package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the server binds to localhost
	},
}

// StreamHandler serves live run events and log tails over WebSocket
type StreamHandler struct {
	runner    *app.Runner
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewStreamHandler creates a new WebSocket handler
func NewStreamHandler(runner *app.Runner, logsDir string, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		runner:    runner,
		logReader: logger.NewLogReader(logsDir),
		logger:    log,
	}
}

// BatchStream handles GET /api/v1/batch/stream. The current snapshot is
// sent first, then every line, snapshot and done event as it happens.
func (h *StreamHandler) BatchStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.runner.Subscribe()
	defer unsubscribe()

	h.logger.Debug("Batch stream client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	status := h.runner.Status()
	initial := domain.Event{
		Kind:     domain.EventSnapshot,
		RunID:    status.RunID,
		Snapshot: &status,
		Time:     time.Now(),
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	done := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// LogStream handles GET /api/v1/logs/:category/stream. The last entries of
// today's file are sent first, then new entries as they are appended.
func (h *StreamHandler) LogStream(c *gin.Context) {
	category := logger.LogCategory(c.Param("category"))
	if !logger.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	entries, err := h.logReader.ReadLogs(category, time.Now(), 50)
	if err == nil {
		for _, entry := range entries {
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	entryChan := make(chan logger.LogEntry, 100)
	go func() {
		if err := h.logReader.TailLogs(ctx, category, entryChan); err != nil {
			h.logger.Error("Log tailing error", zap.Error(err))
		}
	}()

	done := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entryChan:
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readUntilClosed drains client messages and closes the returned channel
// when the connection goes away
func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}
