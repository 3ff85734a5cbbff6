package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// DOCUMENT SHAPES
// =============================================================================

type itemDoc struct {
	ID       string               `bson:"_id"`
	MenuItem string               `bson:"menuItem"`
	Quantity int                  `bson:"quantity"`
	Price    primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID          string               `bson:"_id"`
	TableID     string               `bson:"tableId"`
	Items       []itemDoc            `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`

	// Filled by the $lookup stage only.
	MenuDocs []menuItemDoc `bson:"menuDocs,omitempty"`
}

type menuItemDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	ImageURL    string               `bson:"imageUrl"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

type categoryDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	IsActive    bool      `bson:"isActive"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type paymentDoc struct {
	ID            string               `bson:"_id"`
	OrderID       string               `bson:"orderId"`
	RelatedOrders []string             `bson:"relatedOrders"`
	TableID       string               `bson:"tableId"`
	TotalAmount   primitive.Decimal128 `bson:"totalAmount"`
	AmountPaid    primitive.Decimal128 `bson:"amountPaid"`
	Change        primitive.Decimal128 `bson:"change"`
	Method        string               `bson:"paymentMethod"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type adminDoc struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"createdAt"`
}

type dateRangeDoc struct {
	Start time.Time `bson:"start"`
	End   time.Time `bson:"end"`
}

type categorySalesDoc struct {
	Quantity int                  `bson:"quantity"`
	Amount   primitive.Decimal128 `bson:"amount"`
}

type monthDoc struct {
	Month  string               `bson:"month"`
	Amount primitive.Decimal128 `bson:"amount"`
}

type detailDoc struct {
	ID      string               `bson:"_id"`
	OrderID string               `bson:"orderId"`
	Amount  primitive.Decimal128 `bson:"amount"`
	Items   int                  `bson:"items"`
	Date    time.Time            `bson:"date"`
}

type reportDoc struct {
	ID               string                          `bson:"_id"`
	Type             string                          `bson:"type"`
	DateRange        dateRangeDoc                    `bson:"dateRange"`
	TotalSales       primitive.Decimal128            `bson:"totalSales"`
	TotalOrders      int                             `bson:"totalOrders"`
	DailySales       map[string]primitive.Decimal128 `bson:"dailySales"`
	SalesByCategory  map[string]categorySalesDoc     `bson:"salesByCategory"`
	MonthlySalesData []monthDoc                      `bson:"monthlySalesData"`
	Details          []detailDoc                     `bson:"details"`
	CreatedAt        time.Time                       `bson:"createdAt"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func newOrderDoc(o sales.Order) orderDoc {
	d := orderDoc{
		ID:          o.ID,
		TableID:     o.TableID,
		Items:       make([]itemDoc, len(o.Items)),
		TotalAmount: toDecimal128(o.TotalAmount),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.UTC(),
		UpdatedAt:   o.UpdatedAt.UTC(),
	}
	for i, it := range o.Items {
		d.Items[i] = itemDoc{ID: it.ID, MenuItem: it.MenuItemID, Quantity: it.Quantity, Price: toDecimal128(it.Price)}
	}
	return d
}

func (d orderDoc) order() sales.Order {
	o := sales.Order{
		ID:          d.ID,
		TableID:     d.TableID,
		Items:       make([]sales.LineItem, len(d.Items)),
		TotalAmount: fromDecimal128(d.TotalAmount),
		Status:      sales.OrderStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	for i, it := range d.Items {
		o.Items[i] = sales.LineItem{ID: it.ID, MenuItemID: it.MenuItem, Quantity: it.Quantity, Price: fromDecimal128(it.Price)}
	}
	return o
}

// resolved joins the line items with the menu documents attached by $lookup.
func (d orderDoc) resolved() sales.ResolvedOrder {
	menu := make(map[string]sales.MenuRef, len(d.MenuDocs))
	for _, m := range d.MenuDocs {
		menu[m.ID] = m.menuItem().Ref()
	}
	ro := sales.ResolvedOrder{Order: d.order()}
	ro.Lines = make([]sales.ResolvedItem, len(ro.Items))
	for i, it := range ro.Items {
		ro.Lines[i] = sales.ResolvedItem{LineItem: it}
		if ref, ok := menu[it.MenuItemID]; ok {
			ref := ref
			ro.Lines[i].Menu = &ref
		}
	}
	return ro
}

func newMenuItemDoc(m sales.MenuItem) menuItemDoc {
	return menuItemDoc{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       toDecimal128(m.Price),
		Category:    m.CategoryID,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func (d menuItemDoc) menuItem() sales.MenuItem {
	return sales.MenuItem{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		CategoryID:  d.Category,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func newCategoryDoc(c sales.Category) categoryDoc {
	return categoryDoc{ID: c.ID, Name: c.Name, Description: c.Description, IsActive: c.IsActive, CreatedAt: c.CreatedAt.UTC()}
}

func (d categoryDoc) category() sales.Category {
	return sales.Category{ID: d.ID, Name: d.Name, Description: d.Description, IsActive: d.IsActive, CreatedAt: d.CreatedAt.UTC()}
}

func newPaymentDoc(p sales.Payment) paymentDoc {
	related := p.RelatedOrders
	if related == nil {
		related = []string{}
	}
	return paymentDoc{
		ID:            p.ID,
		OrderID:       p.OrderID,
		RelatedOrders: related,
		TableID:       p.TableID,
		TotalAmount:   toDecimal128(p.TotalAmount),
		AmountPaid:    toDecimal128(p.AmountPaid),
		Change:        toDecimal128(p.Change),
		Method:        string(p.Method),
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

func (d paymentDoc) payment() sales.Payment {
	return sales.Payment{
		ID:            d.ID,
		OrderID:       d.OrderID,
		RelatedOrders: d.RelatedOrders,
		TableID:       d.TableID,
		TotalAmount:   fromDecimal128(d.TotalAmount),
		AmountPaid:    fromDecimal128(d.AmountPaid),
		Change:        fromDecimal128(d.Change),
		Method:        sales.PaymentMethod(d.Method),
		Status:        sales.PaymentStatus(d.Status),
		CreatedAt:     d.CreatedAt.UTC(),
	}.Normalize()
}

func (d adminDoc) admin() auth.Admin {
	return auth.Admin{ID: d.ID, Username: d.Username, PasswordHash: d.Password, CreatedAt: d.CreatedAt.UTC()}
}

func newReportDoc(r sales.Report) reportDoc {
	d := reportDoc{
		ID:               r.ID,
		Type:             string(r.Type),
		DateRange:        dateRangeDoc{Start: r.DateRange.Start.UTC(), End: r.DateRange.End.UTC()},
		TotalSales:       toDecimal128(r.TotalSales),
		TotalOrders:      r.TotalOrders,
		DailySales:       make(map[string]primitive.Decimal128, len(r.DailySales)),
		SalesByCategory:  make(map[string]categorySalesDoc, len(r.SalesByCategory)),
		MonthlySalesData: make([]monthDoc, len(r.MonthlySalesData)),
		Details:          make([]detailDoc, len(r.Details)),
		CreatedAt:        r.CreatedAt.UTC(),
	}
	for k, v := range r.DailySales {
		d.DailySales[k] = toDecimal128(v)
	}
	for k, v := range r.SalesByCategory {
		d.SalesByCategory[k] = categorySalesDoc{Quantity: v.Quantity, Amount: toDecimal128(v.Amount)}
	}
	for i, m := range r.MonthlySalesData {
		d.MonthlySalesData[i] = monthDoc{Month: m.Month, Amount: toDecimal128(m.Amount)}
	}
	for i, det := range r.Details {
		d.Details[i] = detailDoc{ID: det.ID, OrderID: det.OrderID, Amount: toDecimal128(det.Amount), Items: det.Items, Date: det.Date.UTC()}
	}
	return d
}

func (d reportDoc) report() sales.Report {
	r := sales.Report{
		ID:               d.ID,
		Type:             sales.ReportType(d.Type),
		DateRange:        sales.DateRange{Start: d.DateRange.Start.UTC(), End: d.DateRange.End.UTC()},
		TotalSales:       fromDecimal128(d.TotalSales),
		TotalOrders:      d.TotalOrders,
		DailySales:       make(map[string]decimal.Decimal, len(d.DailySales)),
		SalesByCategory:  make(map[string]sales.CategorySales, len(d.SalesByCategory)),
		MonthlySalesData: make([]sales.MonthlySales, len(d.MonthlySalesData)),
		Details:          make([]sales.ReportDetail, len(d.Details)),
		CreatedAt:        d.CreatedAt.UTC(),
	}
	for k, v := range d.DailySales {
		r.DailySales[k] = fromDecimal128(v)
	}
	for k, v := range d.SalesByCategory {
		r.SalesByCategory[k] = sales.CategorySales{Quantity: v.Quantity, Amount: fromDecimal128(v.Amount)}
	}
	for i, m := range d.MonthlySalesData {
		r.MonthlySalesData[i] = sales.MonthlySales{Month: m.Month, Amount: fromDecimal128(m.Amount)}
	}
	for i, det := range d.Details {
		r.Details[i] = sales.ReportDetail{ID: det.ID, OrderID: det.OrderID, Amount: fromDecimal128(det.Amount), Items: det.Items, Date: det.Date.UTC()}
	}
	return r
}
