/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (decimal amounts, typed enums) from the wire contract
  (camelCase keys, float amounts rounded to cents, RFC3339 timestamps).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers around several DTOs

VALIDATION:
  Request types carry go-playground/validator tags. decodeJSON runs the
  validator right after decoding, so handlers only see well-formed input.

CURRENCY:
  Every amount leaving the API goes through sales.CurrencyFloat, which
  applies the same rounding as the report engine.

SEE ALSO:
  - handlers.go: decodeJSON, writeJSON
*/
package api

import (
	"time"

	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorWithCountResponse is returned when a category is still referenced.
type ErrorWithCountResponse struct {
	Error          string `json:"error"`
	MenuItemsCount int    `json:"menuItemsCount"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// =============================================================================
// CATALOG
// =============================================================================

type CategoryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsActive    *bool  `json:"isActive"`
}

type MenuItemDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

type MenuItemRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,max=2048"`
}

// MenuResponse is the body of GET /api/menu.
type MenuResponse struct {
	Items      []MenuItemDTO `json:"items"`
	Categories []CategoryDTO `json:"categories"`
}

func toCategoryDTO(c sales.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func toMenuItemDTO(m sales.MenuItem) MenuItemDTO {
	return MenuItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       sales.CurrencyFloat(m.Price),
		Category:    m.CategoryID,
		ImageURL:    m.ImageURL,
		CreatedAt:   formatTime(m.CreatedAt),
	}
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderItemRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
}

type CreateOrderRequest struct {
	TableID string             `json:"tableId" validate:"required"`
	Items   []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Status string `json:"status" validate:"required,oneof=preparing delivered paid"`
}

type OrderItemDTO struct {
	ID       string       `json:"id"`
	MenuItem *MenuItemDTO `json:"menuItem"`
	Quantity int          `json:"quantity"`
}

type OrderDTO struct {
	ID          string         `json:"id"`
	TableID     string         `json:"tableId"`
	Items       []OrderItemDTO `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	Status      string         `json:"status"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

// toOrderDTO projects o. Line items whose menu item is missing from menu are
// dropped.
func toOrderDTO(o sales.Order, menu map[string]sales.MenuItem) OrderDTO {
	dto := OrderDTO{
		ID:          o.ID,
		TableID:     o.TableID,
		Items:       []OrderItemDTO{},
		TotalAmount: sales.CurrencyFloat(o.TotalAmount),
		Status:      string(o.Status),
		CreatedAt:   formatTime(o.CreatedAt),
		UpdatedAt:   formatTime(o.UpdatedAt),
	}
	for _, it := range o.Items {
		m, ok := menu[it.MenuItemID]
		if !ok {
			continue
		}
		item := toMenuItemDTO(m)
		item.CreatedAt = ""
		dto.Items = append(dto.Items, OrderItemDTO{ID: it.ID, MenuItem: &item, Quantity: it.Quantity})
	}
	return dto
}

// =============================================================================
// PAYMENTS
// =============================================================================

type CreatePaymentRequest struct {
	OrderID       string  `json:"orderId"`
	TableID       string  `json:"tableId" validate:"required"`
	TotalAmount   float64 `json:"totalAmount" validate:"gte=0"`
	AmountPaid    float64 `json:"amountPaid" validate:"gte=0"`
	Change        float64 `json:"change" validate:"gte=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,oneof=cash card mobile"`
	Status        string  `json:"status" validate:"omitempty,oneof=pending success failed"`
}

type PaymentDTO struct {
	ID            string   `json:"id"`
	OrderID       string   `json:"orderId"`
	RelatedOrders []string `json:"relatedOrders"`
	TableID       string   `json:"tableId"`
	TotalAmount   float64  `json:"totalAmount"`
	AmountPaid    float64  `json:"amountPaid"`
	Change        float64  `json:"change"`
	PaymentMethod string   `json:"paymentMethod"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt"`

	// Set by listings only.
	OrderStatus    string `json:"orderStatus,omitempty"`
	OrderCreatedAt string `json:"orderCreatedAt,omitempty"`
}

type CreatePaymentResponse struct {
	Payment       PaymentDTO `json:"payment"`
	UpdatedOrders int        `json:"updatedOrders"`
}

func toPaymentDTO(p sales.Payment) PaymentDTO {
	related := p.RelatedOrders
	if related == nil {
		related = []string{}
	}
	return PaymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		RelatedOrders: related,
		TableID:       p.TableID,
		TotalAmount:   sales.CurrencyFloat(p.TotalAmount),
		AmountPaid:    sales.CurrencyFloat(p.AmountPaid),
		Change:        sales.CurrencyFloat(p.Change),
		PaymentMethod: string(p.Method),
		Status:        string(p.Status),
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

// =============================================================================
// AUTH
// =============================================================================

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type AdminDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	Admin AdminDTO `json:"admin"`
}

type VerifyResponse struct {
	Admin AdminDTO `json:"admin"`
}

func toAdminDTO(a auth.Admin) AdminDTO {
	return AdminDTO{ID: a.ID, Username: a.Username}
}

// =============================================================================
// REPORTS
// =============================================================================

type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type CategorySalesDTO struct {
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

type MonthlySalesDTO struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type ReportDetailDTO struct {
	ID      string  `json:"id"`
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Items   int     `json:"items"`
	Date    string  `json:"date"`
}

type ReportDTO struct {
	ID               string                      `json:"id"`
	Type             string                      `json:"type"`
	DateRange        DateRangeDTO                `json:"dateRange"`
	TotalSales       float64                     `json:"totalSales"`
	TotalOrders      int                         `json:"totalOrders"`
	DailySales       map[string]float64          `json:"dailySales"`
	SalesByCategory  map[string]CategorySalesDTO `json:"salesByCategory"`
	MonthlySalesData []MonthlySalesDTO           `json:"monthlySalesData"`
	Details          []ReportDetailDTO           `json:"details"`
	CreatedAt        string                      `json:"createdAt"`
}

type ReportSummaryDTO struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	DateRange   DateRangeDTO `json:"dateRange"`
	TotalSales  float64      `json:"totalSales"`
	TotalOrders int          `json:"totalOrders"`
	CreatedAt   string       `json:"createdAt"`
}

func toDateRangeDTO(r sales.DateRange) DateRangeDTO {
	return DateRangeDTO{Start: formatTime(r.Start), End: formatTime(r.End)}
}

func toReportDTO(r sales.Report) ReportDTO {
	dto := ReportDTO{
		ID:               r.ID,
		Type:             string(r.Type),
		DateRange:        toDateRangeDTO(r.DateRange),
		TotalSales:       sales.CurrencyFloat(r.TotalSales),
		TotalOrders:      r.TotalOrders,
		DailySales:       make(map[string]float64, len(r.DailySales)),
		SalesByCategory:  make(map[string]CategorySalesDTO, len(r.SalesByCategory)),
		MonthlySalesData: make([]MonthlySalesDTO, len(r.MonthlySalesData)),
		Details:          make([]ReportDetailDTO, len(r.Details)),
		CreatedAt:        formatTime(r.CreatedAt),
	}
	for day, amount := range r.DailySales {
		dto.DailySales[day] = sales.CurrencyFloat(amount)
	}
	for cat, cs := range r.SalesByCategory {
		dto.SalesByCategory[cat] = CategorySalesDTO{Quantity: cs.Quantity, Amount: sales.CurrencyFloat(cs.Amount)}
	}
	for i, m := range r.MonthlySalesData {
		dto.MonthlySalesData[i] = MonthlySalesDTO{Month: m.Month, Amount: sales.CurrencyFloat(m.Amount)}
	}
	for i, d := range r.Details {
		dto.Details[i] = ReportDetailDTO{
			ID:      d.ID,
			OrderID: d.OrderID,
			Amount:  sales.CurrencyFloat(d.Amount),
			Items:   d.Items,
			Date:    formatTime(d.Date),
		}
	}
	return dto
}

func toReportSummaryDTO(s sales.ReportSummary) ReportSummaryDTO {
	return ReportSummaryDTO{
		ID:          s.ID,
		Type:        string(s.Type),
		DateRange:   toDateRangeDTO(s.DateRange),
		TotalSales:  sales.CurrencyFloat(s.TotalSales),
		TotalOrders: s.TotalOrders,
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}
