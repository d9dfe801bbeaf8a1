package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/auth"
	"github.com/mursal-app/mursal/internal/broadcasts"
	"github.com/mursal-app/mursal/internal/media"
)

// BroadcastsHandler serves the broadcast composer and monitor API.
type BroadcastsHandler struct {
	broadcastService *broadcasts.Service
	mediaService     *media.Service
	logger           *slog.Logger
}

// NewBroadcastsHandler creates a broadcasts handler.
func NewBroadcastsHandler(log *slog.Logger, broadcastService *broadcasts.Service, mediaService *media.Service) *BroadcastsHandler {
	return &BroadcastsHandler{
		broadcastService: broadcastService,
		mediaService:     mediaService,
		logger:           log.With(slog.String("handler", "broadcasts")),
	}
}

// Register mounts the broadcast routes on the Echo instance.
func (h *BroadcastsHandler) Register(e *echo.Echo) {
	group := e.Group("/broadcasts")
	group.GET("", h.List)
	group.POST("", h.Submit)
	group.POST("/image", h.StageImage)
	group.PATCH("/:id", h.Edit)
	group.POST("/:id/toggle", h.Toggle)
	group.DELETE("/:id", h.Delete)
}

// List returns every broadcast newest-first with live delivery counts.
func (h *BroadcastsHandler) List(c echo.Context) error {
	if h.broadcastService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "broadcast service not configured")
	}
	messages, err := h.broadcastService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, messages)
}

// Submit creates a broadcast from a draft and fans out its deliveries.
func (h *BroadcastsHandler) Submit(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var draft broadcasts.Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message, err := h.broadcastService.Submit(c.Request().Context(), draft, userID, nil)
	if err != nil {
		var partial *broadcasts.PartialBatchError
		switch {
		case errors.Is(err, broadcasts.ErrEmptyMessage),
			errors.Is(err, broadcasts.ErrNoTagsSelected),
			errors.Is(err, broadcasts.ErrNoRecipients):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &partial):
			// deliveries before the failing batch are persisted and stay
			return echo.NewHTTPError(http.StatusInternalServerError, partial.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, message)
}

// StageImage stores an uploaded broadcast image and returns its key and URL.
func (h *BroadcastsHandler) StageImage(c echo.Context) error {
	if h.mediaService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "media service not configured")
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	asset, err := h.mediaService.Stage(c.Request().Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, media.ErrNotAnImage) || errors.Is(err, media.ErrImageTooLarge) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, asset)
}

// Edit applies a partial update to a broadcast's name and text.
func (h *BroadcastsHandler) Edit(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var update broadcasts.Update
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if update.Name == nil && update.Message == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if err := h.broadcastService.Edit(c.Request().Context(), c.Param("id"), userID, update); err != nil {
		return broadcastError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Toggle flips a broadcast between active and paused.
func (h *BroadcastsHandler) Toggle(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	status, err := h.broadcastService.ToggleStatus(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return broadcastError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

// Delete removes a broadcast, its image, and its delivery rows.
func (h *BroadcastsHandler) Delete(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.broadcastService.Delete(c.Request().Context(), c.Param("id"), userID); err != nil {
		return broadcastError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func broadcastError(err error) error {
	switch {
	case errors.Is(err, broadcasts.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, broadcasts.ErrFinished):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
