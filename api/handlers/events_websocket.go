package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

const eventBuffer = 256

// Event is one message on the events stream
type Event struct {
	Type   string         `json:"type"` // grid, notice
	Grid   *app.GridEvent `json:"grid,omitempty"`
	Notice *domain.Notice `json:"notice,omitempty"`
}

// EventsWebSocketHandler pushes grid changes and notices to clients
type EventsWebSocketHandler struct {
	session EditionSession
	notices NoticeSource
	logger  *zap.Logger
}

// NewEventsWebSocketHandler creates a new events handler
func NewEventsWebSocketHandler(session EditionSession, notices NoticeSource, logger *zap.Logger) *EventsWebSocketHandler {
	return &EventsWebSocketHandler{
		session: session,
		notices: notices,
		logger:  logger,
	}
}

// HandleWebSocket handles GET /api/v1/events. The first message is a reset
// carrying every cell.
func (h *EventsWebSocketHandler) HandleWebSocket(c *gin.Context) {
	if upgradeRequired(c) {
		return
	}
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events := make(chan Event, eventBuffer)
	// runs on the event loop, so it never blocks
	push := func(event Event) {
		select {
		case events <- event:
		default:
			h.logger.Warn("Dropping event for slow client", zap.String("type", event.Type))
		}
	}

	unsubscribeGrid, err := h.session.Subscribe(ctx, func(e app.GridEvent) {
		push(Event{Type: "grid", Grid: &e})
	})
	if err != nil {
		h.logger.Error("Failed to subscribe to grid", zap.Error(err))
		return
	}
	defer unsubscribeGrid()

	unsubscribeNotices := h.notices.Subscribe(func(n domain.Notice) {
		push(Event{Type: "notice", Notice: &n})
	})
	defer unsubscribeNotices()

	cells, err := h.session.Cells(ctx)
	if err != nil {
		h.logger.Error("Failed to read grid", zap.Error(err))
		return
	}
	if err := writeJSON(conn, Event{Type: "grid", Grid: &app.GridEvent{Type: app.GridEventReset, Cells: cells}}); err != nil {
		return
	}
	for _, notice := range h.notices.Active() {
		notice := notice
		if err := writeJSON(conn, Event{Type: "notice", Notice: &notice}); err != nil {
			return
		}
	}

	h.logger.Debug("Events client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	done := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-events:
			if err := writeJSON(conn, event); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// upgradeRequired answers plain HTTP requests to a WebSocket route
func upgradeRequired(c *gin.Context) bool {
	if websocket.IsWebSocketUpgrade(c.Request) {
		return false
	}
	c.JSON(http.StatusUpgradeRequired, gin.H{"error": "websocket upgrade required"})
	return true
}
