package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder places an order for a table. Every menu item must exist; the
// line items snapshot the current menu prices.
// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	ids := make([]string, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if !seen[it.MenuItemID] {
			seen[it.MenuItemID] = true
			ids = append(ids, it.MenuItemID)
		}
	}
	menu, err := h.Store.MenuItemsByID(ctx, ids)
	if err != nil {
		h.fail(w, r, "Failed to create order", err)
		return
	}
	if len(menu) != len(ids) {
		h.fail(w, r, "MenuItem ID is invalid", sales.ErrInvalidMenuItem)
		return
	}

	now := h.Now()
	o := sales.Order{
		ID:          h.NewID(),
		TableID:     req.TableID,
		Items:       make([]sales.LineItem, len(req.Items)),
		TotalAmount: decimal.Zero,
		Status:      sales.StatusPreparing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, it := range req.Items {
		price := menu[it.MenuItemID].Price
		o.Items[i] = sales.LineItem{
			ID:         h.NewID(),
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      price,
		}
		o.TotalAmount = o.TotalAmount.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if err := h.Store.CreateOrder(ctx, o); err != nil {
		h.fail(w, r, "Failed to create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o, menu))
}

// ListOrders returns orders, newest first.
// Query: status=<status>, unpaid=true (everything not yet paid).
// GET /api/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f sales.OrderFilter
	if s := q.Get("status"); s != "" {
		f.Status = sales.OrderStatus(s)
		if !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status", nil)
			return
		}
	}
	if q.Get("unpaid") == "true" {
		f.NotStatus = sales.StatusPaid
	}
	h.listOrders(w, r, f)
}

// ListUnpaidOrders returns every order that has not been paid yet.
// GET /api/orders/unpaid
func (h *Handler) ListUnpaidOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, sales.OrderFilter{NotStatus: sales.StatusPaid})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, f sales.OrderFilter) {
	ctx := r.Context()
	orders, err := h.Store.FindOrders(ctx, f)
	if err != nil {
		h.fail(w, r, "Failed to list orders", err)
		return
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	menu, err := h.menuFor(r, orders...)
	if err != nil {
		h.fail(w, r, "Failed to list orders", err)
		return
	}
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, menu)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrder returns one order with its menu items.
// GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get order", err)
		return
	}
	if o == nil {
		h.fail(w, r, "Order not found", sales.ErrOrderNotFound)
		return
	}
	menu, err := h.menuFor(r, *o)
	if err != nil {
		h.fail(w, r, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*o, menu))
}

// UpdateOrder changes the order status and stamps updatedAt. Marking an
// order paid here makes it count towards reports from this instant.
// PUT /api/orders/{id}
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Store.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), sales.OrderStatus(req.Status), h.Now())
	if err != nil {
		h.fail(w, r, "Failed to update order", err)
		return
	}
	if o == nil {
		h.fail(w, r, "Order not found", sales.ErrOrderNotFound)
		return
	}
	menu, err := h.menuFor(r, *o)
	if err != nil {
		h.fail(w, r, "Failed to update order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*o, menu))
}

// DeleteOrder removes an order and its line items.
// DELETE /api/orders/{id}
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to delete order", err)
		return
	}
	if !ok {
		h.fail(w, r, "Order not found", sales.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Order deleted successfully"})
}

// menuFor loads the menu items referenced by orders.
func (h *Handler) menuFor(r *http.Request, orders ...sales.Order) (map[string]sales.MenuItem, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			if !seen[it.MenuItemID] {
				seen[it.MenuItemID] = true
				ids = append(ids, it.MenuItemID)
			}
		}
	}
	return h.Store.MenuItemsByID(r.Context(), ids)
}
