/*
Package sales provides the restaurant domain model and the sales report engine.

PURPOSE:
  Holds the records the point-of-sale backend works with (orders, menu items,
  categories, payments, reports) and the Generator that turns raw paid orders
  into cached sales reports. Persistence is reached only through the store
  interfaces in store.go, so the same engine runs against SQLite, MongoDB or
  the in-memory store used by tests.

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: a table order with line items and a fixed total
  - LineItem: a reference to a menu item with a quantity
  - MenuRef: the resolved view of a menu item used for category rollups
  - ResolvedOrder: an order whose line items carry their MenuRef (or nil)

REVENUE RECOGNITION:
  Only orders in status "paid" count as revenue, and they are bucketed by
  UpdatedAt (the moment the payment flipped the status), never by CreatedAt.

SEE ALSO:
  - report.go: Report record and its computed views
  - generator.go: Report generation
  - money.go: Currency rounding
*/
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER - Table order as captured by the floor staff
// =============================================================================

type OrderStatus string

const (
	StatusPreparing OrderStatus = "preparing"
	StatusDelivered OrderStatus = "delivered"
	StatusPaid      OrderStatus = "paid"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPreparing, StatusDelivered, StatusPaid:
		return true
	}
	return false
}

// LineItem references a menu item. Price is an optional snapshot taken when the
// order was placed; zero means "use the current menu price".
type LineItem struct {
	ID         string
	MenuItemID string
	Quantity   int
	Price      decimal.Decimal
}

// Order is immutable after creation except for Status and UpdatedAt.
// TotalAmount is the sum of menu price x quantity at creation time.
type Order struct {
	ID          string
	TableID     string
	Items       []LineItem
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// RESOLVED ORDERS - Line items joined with their menu item
// =============================================================================

// MenuRef is the subset of a menu item needed to price and categorise a line.
type MenuRef struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	CategoryID string
}

// ResolvedItem is a line item together with its menu item.
// Menu is nil when the referenced menu item no longer exists.
type ResolvedItem struct {
	LineItem
	Menu *MenuRef
}

// UnitPrice returns the snapshot price, falling back to the menu price.
func (ri ResolvedItem) UnitPrice() decimal.Decimal {
	if !ri.Price.IsZero() {
		return ri.Price
	}
	if ri.Menu != nil {
		return ri.Menu.Price
	}
	return decimal.Zero
}

// Broken reports whether the line item points at a deleted menu item.
func (ri ResolvedItem) Broken() bool { return ri.Menu == nil }

// ResolvedOrder is an order whose line items have been resolved.
type ResolvedOrder struct {
	Order
	Lines []ResolvedItem
}
