package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/media-relay-go/pkg/logger"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LogWebSocketHandler streams live log entries over a websocket
type LogWebSocketHandler struct {
	reader *logger.LogReader
	logger *zap.Logger
}

// NewLogWebSocketHandler creates a new websocket log handler
func NewLogWebSocketHandler(reader *logger.LogReader, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		reader: reader,
		logger: log,
	}
}

// Tail handles GET /ws/logs. Entries written after the client attaches are
// pushed as JSON messages until the client disconnects.
func (h *LogWebSocketHandler) Tail(c *gin.Context) {
	category, ok := parseCategory(c.DefaultQuery("category", string(logger.CategoryApp)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	entryChan := make(chan logger.LogEntry, 64)
	stopChan := make(chan struct{})

	go func() {
		defer close(entryChan)
		if err := h.reader.TailLogs(category, entryChan, stopChan); err != nil {
			h.logger.Error("Log tail stopped",
				zap.String("category", string(category)),
				zap.Error(err))
		}
	}()

	// Reader goroutine: the only signal we get for a dropped client is a
	// failed read.
	go func() {
		defer close(stopChan)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for entry := range entryChan {
		if err := conn.WriteJSON(entry); err != nil {
			select {
			case <-stopChan:
			default:
				h.logger.Debug("Websocket write failed", zap.Error(err))
			}
			return
		}
	}
}
