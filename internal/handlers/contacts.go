package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mursal-app/mursal/internal/auth"
	"github.com/mursal-app/mursal/internal/contacts"
)

// ContactsHandler serves the contact directory API.
type ContactsHandler struct {
	contactService *contacts.Service
	logger         *slog.Logger
}

// NewContactsHandler creates a contacts handler.
func NewContactsHandler(log *slog.Logger, contactService *contacts.Service) *ContactsHandler {
	return &ContactsHandler{
		contactService: contactService,
		logger:         log.With(slog.String("handler", "contacts")),
	}
}

// Register mounts the contact directory routes on the Echo instance.
func (h *ContactsHandler) Register(e *echo.Echo) {
	group := e.Group("/contacts")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.PATCH("/:id", h.SetActive)
	group.DELETE("/:id", h.Delete)
	group.POST("/bulk", h.Bulk)
	group.GET("/duplicates", h.Duplicates)
	group.POST("/duplicates/remove", h.RemoveDuplicates)
}

// ContactListResponse is the body for GET /contacts.
type ContactListResponse struct {
	Contacts []contacts.Contact `json:"contacts"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// List returns the filtered, sorted, paginated directory view.
// Filtering runs over the full contact set: search matches digit
// substrings, include tags are ANDed, exclude tags always win.
func (h *ContactsHandler) List(c echo.Context) error {
	if h.contactService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "contact service not configured")
	}

	all, err := h.contactService.ListAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := contacts.StatusFilter(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		status = contacts.StatusAll
	}

	tagFilter := contacts.TagFilter{}
	for _, id := range splitIDs(c.QueryParam("tags")) {
		tagFilter[id] = contacts.TagIncluded
	}
	for _, id := range splitIDs(c.QueryParam("exclude_tags")) {
		tagFilter[id] = contacts.TagExcluded
	}

	filtered := contacts.Filter(all, c.QueryParam("search"), status, tagFilter)

	sortCfg := contacts.SortConfig{
		Field:     contacts.SortField(strings.TrimSpace(c.QueryParam("sort_by"))),
		Direction: contacts.SortDirection(strings.TrimSpace(c.QueryParam("sort_dir"))),
	}
	if sortCfg.Field == "" {
		sortCfg.Field = contacts.SortByCreatedAt
	}
	if sortCfg.Direction == "" {
		sortCfg.Direction = contacts.SortDesc
	}
	sorted := contacts.Sort(filtered, sortCfg)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 50)

	return c.JSON(http.StatusOK, ContactListResponse{
		Contacts: contacts.Paginate(sorted, page, pageSize),
		Total:    len(sorted),
		Page:     page,
		PageSize: pageSize,
	})
}

// CreateContactRequest is the body for POST /contacts.
type CreateContactRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// Create adds a single contact, reactivating an inactive duplicate.
func (h *ContactsHandler) Create(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.contactService.Create(c.Request().Context(), req.PhoneNumber, userID)
	if err != nil {
		if errors.Is(err, contacts.ErrInvalidPhone) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, contacts.ErrContactExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, outcome)
}

// UpdateContactRequest is the body for PATCH /contacts/:id.
type UpdateContactRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetActive toggles a contact's active flag.
func (h *ContactsHandler) SetActive(c echo.Context) error {
	var req UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "is_active is required")
	}
	if err := h.contactService.SetActive(c.Request().Context(), c.Param("id"), *req.IsActive); err != nil {
		return contactError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a single contact.
func (h *ContactsHandler) Delete(c echo.Context) error {
	if err := h.contactService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return contactError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkRequest is the body for POST /contacts/bulk.
type BulkRequest struct {
	ContactIDs []string `json:"contact_ids"`
	Action     string   `json:"action"`
}

// Bulk applies activate, deactivate, or delete to a selection.
func (h *ContactsHandler) Bulk(c echo.Context) error {
	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.ContactIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "contact_ids are required")
	}

	ctx := c.Request().Context()
	var err error
	switch req.Action {
	case "activate":
		err = h.contactService.BulkSetActive(ctx, req.ContactIDs, true)
	case "deactivate":
		err = h.contactService.BulkSetActive(ctx, req.ContactIDs, false)
	case "delete":
		err = h.contactService.BulkDelete(ctx, req.ContactIDs)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "action must be activate, deactivate, or delete")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Duplicates returns the dedup dry-run preview.
func (h *ContactsHandler) Duplicates(c echo.Context) error {
	preview, err := h.contactService.DuplicatePreview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, preview)
}

// RemoveDuplicates collapses duplicate numbers, keeping the newest row each.
func (h *ContactsHandler) RemoveDuplicates(c echo.Context) error {
	if err := h.contactService.RemoveDuplicates(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func contactError(err error) error {
	if errors.Is(err, contacts.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
