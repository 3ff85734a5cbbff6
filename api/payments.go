package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CreatePayment settles a table: every unpaid order of the table is marked
// paid and linked to the payment. A table with nothing unpaid still gets a
// payment record, with updatedOrders 0.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	unpaid, err := h.Store.FindOrders(ctx, sales.OrderFilter{TableID: req.TableID, NotStatus: sales.StatusPaid})
	if err != nil {
		h.fail(w, r, "Failed to create payment", err)
		return
	}
	orderIDs := make([]string, len(unpaid))
	for i, o := range unpaid {
		orderIDs[i] = o.ID
	}

	now := h.Now()
	p := sales.Payment{
		ID:          h.NewID(),
		OrderID:     req.OrderID,
		TableID:     req.TableID,
		TotalAmount: decimal.NewFromFloat(req.TotalAmount),
		AmountPaid:  decimal.NewFromFloat(req.AmountPaid),
		Change:      decimal.NewFromFloat(req.Change),
		Method:      sales.PaymentMethod(req.PaymentMethod),
		Status:      sales.PaymentStatus(req.Status),
		CreatedAt:   now,
	}
	updated, err := h.Store.RecordPayment(ctx, p, orderIDs, now)
	if err != nil {
		h.fail(w, r, "Failed to create payment", err)
		return
	}
	p = p.Normalize()
	p.RelatedOrders = orderIDs

	h.requestLog(r).WithField("table_id", p.TableID).
		WithField("orders", len(updated)).
		Info("table settled")
	h.publish(ctx, events.PaymentCreated, events.PaymentCreatedEvent{
		PaymentID:     p.ID,
		TableID:       p.TableID,
		RelatedOrders: p.RelatedOrders,
		TotalAmount:   sales.CurrencyFloat(p.TotalAmount),
		Method:        string(p.Method),
	})

	writeJSON(w, http.StatusCreated, CreatePaymentResponse{
		Payment:       toPaymentDTO(p),
		UpdatedOrders: len(updated),
	})
}

// ListPayments returns payments, newest first.
// Query: startDate, endDate (inclusive to end of day, UTC), paymentMethod.
// GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f sales.PaymentFilter
	if s := q.Get("startDate"); s != "" {
		t, err := parseDate(s, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format", err)
			return
		}
		f.CreatedFrom = &t
	}
	if s := q.Get("endDate"); s != "" {
		t, err := parseDate(s, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format", err)
			return
		}
		t = sales.EndOfDay(t)
		f.CreatedTo = &t
	}
	if m := q.Get("paymentMethod"); m != "" {
		f.Method = sales.PaymentMethod(m)
	}

	ctx := r.Context()
	payments, err := h.Store.ListPayments(ctx, f)
	if err != nil {
		h.fail(w, r, "Failed to list payments", err)
		return
	}

	// The primary order gives each row its order status.
	orders := make(map[string]*sales.Order)
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
		if p.OrderID == "" {
			continue
		}
		o, seen := orders[p.OrderID]
		if !seen {
			if o, err = h.Store.GetOrder(ctx, p.OrderID); err != nil {
				h.fail(w, r, "Failed to list payments", err)
				return
			}
			orders[p.OrderID] = o
		}
		if o != nil {
			dtos[i].OrderStatus = string(o.Status)
			dtos[i].OrderCreatedAt = formatTime(o.CreatedAt)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayment returns one payment.
// GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get payment", err)
		return
	}
	if p == nil {
		h.fail(w, r, "Payment not found", sales.ErrPaymentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}
