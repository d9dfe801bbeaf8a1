package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/events"
)

// EventsHandler streams table change notifications over SSE.
type EventsHandler struct {
	subscriber events.Subscriber
	logger     *slog.Logger
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(log *slog.Logger, subscriber events.Subscriber) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		logger:     log.With(slog.String("handler", "events")),
	}
}

// Register mounts GET /events/stream on the Echo instance.
func (h *EventsHandler) Register(e *echo.Echo) {
	e.GET("/events/stream", h.Stream)
}

// Stream subscribes the client to change notifications for the requested
// tables (default: all) and forwards them as server-sent events. Clients
// treat every event as "reload this table"; there is no diff payload.
func (h *EventsHandler) Stream(c echo.Context) error {
	if h.subscriber == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "event hub not configured")
	}

	tables := splitIDs(c.QueryParam("tables"))
	if len(tables) == 0 {
		tables = []string{
			events.TableContacts,
			events.TableTags,
			events.TableMessages,
			events.TableBroadcasts,
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	writer := bufio.NewWriter(c.Response().Writer)

	streamID, stream, cancel := h.subscriber.Subscribe(tables, 0)
	defer cancel()
	h.logger.Debug("event stream opened", slog.String("stream_id", streamID))

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case change, ok := <-stream:
			if !ok {
				return nil
			}
			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			_, _ = writer.WriteString(fmt.Sprintf("data: %s\n\n", string(data)))
			writer.Flush()
			flusher.Flush()
		}
	}
}
