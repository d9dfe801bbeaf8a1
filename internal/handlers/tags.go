package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/tags"
)

// TagsHandler serves the tag catalog API.
type TagsHandler struct {
	tagService *tags.Service
	logger     *slog.Logger
}

// NewTagsHandler creates a tags handler.
func NewTagsHandler(log *slog.Logger, tagService *tags.Service) *TagsHandler {
	return &TagsHandler{
		tagService: tagService,
		logger:     log.With(slog.String("handler", "tags")),
	}
}

// Register mounts the tag catalog routes on the Echo instance.
func (h *TagsHandler) Register(e *echo.Echo) {
	group := e.Group("/tags")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/membership", h.SetMembership)
	group.GET("/:id/applied", h.Applied)
}

// List returns every tag with its contact count.
func (h *TagsHandler) List(c echo.Context) error {
	if h.tagService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "tag service not configured")
	}
	list, err := h.tagService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

// TagRequest is the body for POST /tags and PATCH /tags/:id.
type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Create adds a new tag.
func (h *TagsHandler) Create(c echo.Context) error {
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tag, err := h.tagService.Create(c.Request().Context(), req.Name, req.Color)
	if err != nil {
		return tagError(err)
	}
	return c.JSON(http.StatusCreated, tag)
}

// Update renames or recolors a tag.
func (h *TagsHandler) Update(c echo.Context) error {
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.tagService.Update(c.Request().Context(), c.Param("id"), req.Name, req.Color); err != nil {
		return tagError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a tag and its memberships.
func (h *TagsHandler) Delete(c echo.Context) error {
	if err := h.tagService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return tagError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MembershipRequest is the body for POST /tags/:id/membership.
type MembershipRequest struct {
	ContactIDs []string `json:"contact_ids"`
	Present    bool     `json:"present"`
}

// SetMembership applies or removes the tag for a contact selection.
func (h *TagsHandler) SetMembership(c echo.Context) error {
	var req MembershipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.ContactIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "contact_ids are required")
	}
	if err := h.tagService.SetMembership(c.Request().Context(), req.ContactIDs, c.Param("id"), req.Present); err != nil {
		return tagError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Applied reports whether every contact in the selection carries the tag.
func (h *TagsHandler) Applied(c echo.Context) error {
	contactIDs := splitIDs(c.QueryParam("contact_ids"))
	if len(contactIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "contact_ids are required")
	}
	applied, err := h.tagService.AppliedToAll(c.Request().Context(), contactIDs, c.Param("id"))
	if err != nil {
		return tagError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"applied": applied})
}

func tagError(err error) error {
	switch {
	case errors.Is(err, tags.ErrEmptyName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, tags.ErrTagNameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, tags.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
