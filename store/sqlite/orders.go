package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// ORDER STORE (sales.OrderStore interface)
// =============================================================================

// orderSelect joins each order with its line items and their menu items.
// LEFT JOINs keep orders without items and items whose menu item is gone.
const orderSelect = `
	SELECT o.id, o.table_id, o.total_amount, o.status, o.created_at, o.updated_at,
	       i.id, i.menu_item_id, i.quantity, i.price,
	       m.id, m.name, m.price, m.category_id
	FROM orders o
	LEFT JOIN order_items i ON i.order_id = o.id
	LEFT JOIN menu_items m ON m.id = i.menu_item_id
`

const orderOrderBy = ` ORDER BY o.created_at ASC, o.id ASC, i.position ASC`

// FindOrders returns orders matching f, oldest first.
func (s *Store) FindOrders(ctx context.Context, f sales.OrderFilter) ([]sales.Order, error) {
	resolved, err := s.FindResolvedOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]sales.Order, len(resolved))
	for i, ro := range resolved {
		out[i] = ro.Order
	}
	return out, nil
}

// FindResolvedOrders returns orders matching f with line items resolved.
func (s *Store) FindResolvedOrders(ctx context.Context, f sales.OrderFilter) ([]sales.ResolvedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := orderWhere(f)
	return s.queryOrders(ctx, s.db, orderSelect+where+orderOrderBy, args...)
}

// SumByDatePart groups matching orders by the calendar parts of updated_at
// in loc and sums their totals at full precision. Stored timestamps are UTC,
// so the bucket is derived in Go rather than from the text prefix.
func (s *Store) SumByDatePart(ctx context.Context, f sales.OrderFilter, parts sales.DateParts, loc *time.Location) ([]sales.BucketSum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := orderWhere(f)
	rows, err := s.db.QueryContext(ctx, `SELECT o.updated_at, o.total_amount FROM orders o`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order sums: %w", err)
	}
	defer rows.Close()

	idx := make(map[sales.BucketKey]int)
	var out []sales.BucketSum
	for rows.Next() {
		var updatedAt, amount string
		if err := rows.Scan(&updatedAt, &amount); err != nil {
			return nil, err
		}
		key := sales.BucketOf(parseTime(updatedAt), parts, loc)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, sales.BucketSum{Key: key, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(parseDecimal(amount))
		out[i].Count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sales.SortBuckets(out)
	return out, nil
}

func orderWhere(f sales.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "o.status = ?")
		args = append(args, string(f.Status))
	}
	if f.NotStatus != "" {
		conds = append(conds, "o.status <> ?")
		args = append(args, string(f.NotStatus))
	}
	if f.TableID != "" {
		conds = append(conds, "o.table_id = ?")
		args = append(args, f.TableID)
	}
	if f.UpdatedWithin != nil {
		conds = append(conds, "o.updated_at >= ? AND o.updated_at <= ?")
		args = append(args, formatTime(f.UpdatedWithin.Start), formatTime(f.UpdatedWithin.End))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// queryOrders folds the joined rows back into orders. Rows arrive grouped by order.
func (s *Store) queryOrders(ctx context.Context, q querier, query string, args ...any) ([]sales.ResolvedOrder, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var out []sales.ResolvedOrder
	for rows.Next() {
		var (
			id, tableID, total, status, createdAt, updatedAt string
			itemID, menuItemID, itemPrice                    sql.NullString
			quantity                                         sql.NullInt64
			menuID, menuName, menuPrice, menuCategory        sql.NullString
		)
		if err := rows.Scan(&id, &tableID, &total, &status, &createdAt, &updatedAt,
			&itemID, &menuItemID, &quantity, &itemPrice,
			&menuID, &menuName, &menuPrice, &menuCategory); err != nil {
			return nil, err
		}

		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, sales.ResolvedOrder{Order: sales.Order{
				ID:          id,
				TableID:     tableID,
				TotalAmount: parseDecimal(total),
				Status:      sales.OrderStatus(status),
				CreatedAt:   parseTime(createdAt),
				UpdatedAt:   parseTime(updatedAt),
			}})
		}
		if !itemID.Valid {
			continue
		}

		cur := &out[len(out)-1]
		li := sales.LineItem{
			ID:         itemID.String,
			MenuItemID: menuItemID.String,
			Quantity:   int(quantity.Int64),
			Price:      parseDecimal(itemPrice.String),
		}
		ri := sales.ResolvedItem{LineItem: li}
		if menuID.Valid {
			ri.Menu = &sales.MenuRef{
				ID:         menuID.String,
				Name:       menuName.String,
				Price:      parseDecimal(menuPrice.String),
				CategoryID: menuCategory.String,
			}
		}
		cur.Items = append(cur.Items, li)
		cur.Lines = append(cur.Lines, ri)
	}
	return out, rows.Err()
}

// =============================================================================
// ORDER WRITER (sales.OrderWriter interface)
// =============================================================================

// CreateOrder inserts an order and its line items atomically.
func (s *Store) CreateOrder(ctx context.Context, o sales.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(q querier) error {
		return insertOrder(ctx, q, o)
	})
}

func insertOrder(ctx context.Context, q querier, o sales.Order) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, table_id, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, o.TableID, o.TotalAmount.String(), string(o.Status),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	for pos, it := range o.Items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, id, menu_item_id, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?)
		`, o.ID, pos, it.ID, it.MenuItemID, it.Quantity, it.Price.String())
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

// GetOrder retrieves an order by ID.
func (s *Store) GetOrder(ctx context.Context, id string) (*sales.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrder(ctx, s.db, id)
}

func (s *Store) getOrder(ctx context.Context, q querier, id string) (*sales.Order, error) {
	orders, err := s.queryOrders(ctx, q, orderSelect+" WHERE o.id = ?"+orderOrderBy, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0].Order, nil
}

// UpdateOrderStatus sets status and updated_at.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status sales.OrderStatus, at time.Time) (*sales.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(at), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.getOrder(ctx, s.db, id)
}

// DeleteOrder removes an order and its items.
func (s *Store) DeleteOrder(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
