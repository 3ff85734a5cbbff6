/*
handlers.go - HTTP API handlers for the restaurant POS

PURPOSE:
  Exposes the catalog, orders, payments and the sales report engine via a
  REST API. Handles HTTP request/response, JSON serialization, validation,
  and delegates to the stores and the report generator.

ENDPOINTS:
  Categories:
    POST   /api/categories            Create category
    GET    /api/categories            List active categories
    PUT    /api/categories/{id}       Update category            (admin)
    DELETE /api/categories/{id}       Delete unused category     (admin)

  Menu:
    GET    /api/menu                  Menu items + all categories
    POST   /api/menu                  Create menu item           (admin)
    GET    /api/menu/{id}             Menu item details
    PUT    /api/menu/{id}             Update menu item           (admin)
    DELETE /api/menu/{id}             Delete menu item           (admin)

  Orders, payments, reports, auth: see orders.go, payments.go, reports.go, auth.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Every persistence interface, backed by SQLite or MongoDB
  - Generator: Sales report engine
  - Auth: Admin accounts and tokens
  - Events: Domain event publisher

REQUEST FLOW:
  1. Parse and validate the HTTP request (decodeJSON)
  2. Call the store or the generator
  3. Project to DTOs
  4. Map errors to status codes (fail)

ERROR HANDLING:
  Errors are returned as JSON {error, details}:
  - 400: Validation errors, invalid input (sales.ErrInvalidInput family)
  - 401: Missing or invalid token
  - 404: Resource not found
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the HTTP layer persists through.
type Store interface {
	sales.OrderStore
	sales.ReportStore
	sales.OrderWriter
	sales.CatalogStore
	sales.PaymentStore
	auth.AdminStore

	// Reset removes all POS data (used by demo scenarios).
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Generator *sales.Generator
	Auth      *auth.Service
	Events    events.Publisher
	Log       logrus.FieldLogger

	Now   func() time.Time
	NewID func() string

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. A nil publisher disables events.
func NewHandler(store Store, gen *sales.Generator, authSvc *auth.Service, pub events.Publisher, log logrus.FieldLogger) *Handler {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:     store,
		Generator: gen,
		Auth:      authSvc,
		Events:    pub,
		Log:       log,
		Now:       time.Now,
		NewID:     uuid.NewString,
		validate:  validator.New(),
	}
}

// location is where report calendar days start.
func (h *Handler) location() *time.Location {
	if h.Generator != nil && h.Generator.Location != nil {
		return h.Generator.Location
	}
	return time.UTC
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// CreateCategory creates a category. New categories are active unless the
// body says otherwise.
// POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	c := sales.Category{
		ID:          h.NewID(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   h.Now(),
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := h.Store.CreateCategory(r.Context(), c); err != nil {
		h.fail(w, r, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// ListCategories returns active categories ordered by name.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context(), true)
	if err != nil {
		h.fail(w, r, "Failed to list categories", err)
		return
	}
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateCategory overwrites name, description and (when given) isActive.
// PUT /api/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	c, err := h.Store.GetCategory(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get category", err)
		return
	}
	if c == nil {
		h.fail(w, r, "Category not found", sales.ErrCategoryNotFound)
		return
	}

	c.Name = req.Name
	c.Description = req.Description
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	ok, err := h.Store.UpdateCategory(ctx, *c)
	if err != nil {
		h.fail(w, r, "Failed to update category", err)
		return
	}
	if !ok {
		h.fail(w, r, "Category not found", sales.ErrCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

// DeleteCategory deletes a category no menu item references.
// DELETE /api/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	count, err := h.Store.CountMenuItems(ctx, id)
	if err != nil {
		h.fail(w, r, "Failed to delete category", err)
		return
	}
	if count > 0 {
		inUse := &sales.CategoryInUseError{CategoryID: id, MenuItemsCount: count}
		writeJSON(w, http.StatusBadRequest, ErrorWithCountResponse{
			Error:          inUse.Error(),
			MenuItemsCount: count,
		})
		return
	}

	ok, err := h.Store.DeleteCategory(ctx, id)
	if err != nil {
		h.fail(w, r, "Failed to delete category", err)
		return
	}
	if !ok {
		h.fail(w, r, "Category not found", sales.ErrCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}

// =============================================================================
// MENU HANDLERS
// =============================================================================

// ListMenu returns every menu item (newest first) and every category.
// GET /api/menu
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.Store.ListMenuItems(ctx)
	if err != nil {
		h.fail(w, r, "Failed to get menu items", err)
		return
	}
	cats, err := h.Store.ListCategories(ctx, false)
	if err != nil {
		h.fail(w, r, "Failed to get menu items", err)
		return
	}

	resp := MenuResponse{
		Items:      make([]MenuItemDTO, len(items)),
		Categories: make([]CategoryDTO, len(cats)),
	}
	for i, m := range items {
		resp.Items[i] = toMenuItemDTO(m)
	}
	for i, c := range cats {
		resp.Categories[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateMenuItem adds a menu item to an existing category.
// POST /api/menu
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req MenuItemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !h.categoryExists(w, r, req.Category) {
		return
	}

	m := sales.MenuItem{
		ID:          h.NewID(),
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		CategoryID:  req.Category,
		ImageURL:    req.ImageURL,
		CreatedAt:   h.Now(),
	}
	if err := h.Store.CreateMenuItem(r.Context(), m); err != nil {
		h.fail(w, r, "Failed to create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemDTO(m))
}

// GetMenuItem returns one menu item.
// GET /api/menu/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get menu item", err)
		return
	}
	if m == nil {
		h.fail(w, r, "Menu item not found", sales.ErrMenuItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemDTO(*m))
}

// UpdateMenuItem overwrites a menu item. Existing orders keep the price they
// were placed at.
// PUT /api/menu/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req MenuItemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	m, err := h.Store.GetMenuItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to update menu item", err)
		return
	}
	if m == nil {
		h.fail(w, r, "Menu item not found", sales.ErrMenuItemNotFound)
		return
	}
	if !h.categoryExists(w, r, req.Category) {
		return
	}

	m.Name = req.Name
	m.Description = req.Description
	m.Price = decimal.NewFromFloat(req.Price)
	m.CategoryID = req.Category
	m.ImageURL = req.ImageURL
	if _, err := h.Store.UpdateMenuItem(ctx, *m); err != nil {
		h.fail(w, r, "Failed to update menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemDTO(*m))
}

// DeleteMenuItem removes a menu item. Orders referencing it keep their line
// items, which reports then skip as broken references.
// DELETE /api/menu/{id}
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to delete menu item", err)
		return
	}
	if !ok {
		h.fail(w, r, "Menu item not found", sales.ErrMenuItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Menu item deleted successfully"})
}

func (h *Handler) categoryExists(w http.ResponseWriter, r *http.Request, id string) bool {
	c, err := h.Store.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get category", err)
		return false
	}
	if c == nil {
		writeError(w, http.StatusBadRequest, "Category not found", sales.ErrCategoryNotFound)
		return false
	}
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeJSON decodes and validates the request body into dst. On failure it
// writes a 400 and returns false.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// fail maps err onto a status code. Unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case sales.IsNotFound(err):
		status = http.StatusNotFound
	case sales.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.requestLog(r).WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

// publish sends an event. A broker failure never fails the request.
func (h *Handler) publish(ctx context.Context, routingKey string, payload any) {
	if err := h.Events.Publish(ctx, routingKey, payload); err != nil {
		h.Log.WithError(err).WithField("routing_key", routingKey).Warn("event publish failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
