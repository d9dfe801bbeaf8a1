package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/media"
)

// MediaHandler serves staged broadcast images publicly.
type MediaHandler struct {
	mediaService *media.Service
	logger       *slog.Logger
}

// NewMediaHandler creates a media handler.
func NewMediaHandler(log *slog.Logger, mediaService *media.Service) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		logger:       log.With(slog.String("handler", "media")),
	}
}

// Register mounts GET /media/:key on the Echo instance.
func (h *MediaHandler) Register(e *echo.Echo) {
	e.GET("/media/:key", h.Serve)
}

// Serve streams a stored image by key.
func (h *MediaHandler) Serve(c echo.Context) error {
	if h.mediaService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "media service not configured")
	}
	key := c.Param("key")

	reader, err := h.mediaService.Open(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, reader)
}
