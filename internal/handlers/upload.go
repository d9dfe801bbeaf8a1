package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/auth"
	"github.com/mursal-app/mursal/internal/ingest"
)

// UploadHandler serves bulk contact ingestion from uploaded files.
type UploadHandler struct {
	ingestService *ingest.Service
	maxBytes      int64
	logger        *slog.Logger
}

// NewUploadHandler creates an upload handler with the given file size cap.
func NewUploadHandler(log *slog.Logger, ingestService *ingest.Service, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
		maxBytes:      maxBytes,
		logger:        log.With(slog.String("handler", "upload")),
	}
}

// Register mounts POST /contacts/upload on the Echo instance.
func (h *UploadHandler) Register(e *echo.Echo) {
	e.POST("/contacts/upload", h.Upload)
}

// Upload ingests a CSV or spreadsheet of phone numbers, optionally tagging
// the newly created contacts.
func (h *UploadHandler) Upload(c echo.Context) error {
	if h.ingestService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "ingest service not configured")
	}
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %dMB limit", h.maxBytes/(1024*1024)))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	tagIDs := splitIDs(c.FormValue("tag_ids"))

	result, err := h.ingestService.Import(c.Request().Context(), fileHeader.Filename, file, tagIDs, userID)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFile),
			errors.Is(err, ingest.ErrEmptyFile),
			errors.Is(err, ingest.ErrNoPhoneColumn),
			errors.Is(err, ingest.ErrAllRowsEmpty),
			errors.Is(err, ingest.ErrNoValidRows):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, result)
}
