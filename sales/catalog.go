package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG - Categories and menu items
// =============================================================================

// Category groups menu items. Inactive categories are hidden from listings
// but still resolve for historical orders.
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	ImageURL    string
	CreatedAt   time.Time
}

// Ref returns the view of the menu item used when resolving line items.
func (m MenuItem) Ref() MenuRef {
	return MenuRef{ID: m.ID, Name: m.Name, Price: m.Price, CategoryID: m.CategoryID}
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment settles every unpaid order of a table at once. RelatedOrders lists
// the orders that were flipped to paid by this payment.
type Payment struct {
	ID            string
	OrderID       string
	RelatedOrders []string
	TableID       string
	TotalAmount   decimal.Decimal
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	CreatedAt     time.Time
}

// Normalize rounds every currency field. Stores call it before writing.
func (p Payment) Normalize() Payment {
	p.TotalAmount = RoundCurrency(p.TotalAmount)
	p.AmountPaid = RoundCurrency(p.AmountPaid)
	p.Change = RoundCurrency(p.Change)
	if p.Status == "" {
		p.Status = PaymentPending
	}
	return p
}

// PaymentFilter narrows payment listings. Zero fields are ignored.
type PaymentFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Method      PaymentMethod
}

// Matches reports whether p passes the filter.
func (f PaymentFilter) Matches(p Payment) bool {
	if f.CreatedFrom != nil && p.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && p.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Method != "" && p.Method != f.Method {
		return false
	}
	return true
}
