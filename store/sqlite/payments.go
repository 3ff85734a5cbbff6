package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// PAYMENT STORE (sales.PaymentStore interface)
// =============================================================================

const paymentSelect = `
	SELECT id, order_id, related_orders_json, table_id, total_amount, amount_paid,
	       change_amount, payment_method, status, created_at
	FROM payments
`

// RecordPayment marks the orders paid and stores the payment in one transaction.
func (s *Store) RecordPayment(ctx context.Context, p sales.Payment, orderIDs []string, at time.Time) ([]sales.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Normalize()
	p.RelatedOrders = append([]string{}, orderIDs...)
	related, err := json.Marshal(p.RelatedOrders)
	if err != nil {
		return nil, err
	}

	var updated []sales.Order
	err = s.withTx(ctx, func(q querier) error {
		for _, id := range orderIDs {
			if _, err := q.ExecContext(ctx,
				"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
				string(sales.StatusPaid), formatTime(at), id); err != nil {
				return fmt.Errorf("failed to mark order %s paid: %w", id, err)
			}
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, related_orders_json, table_id, total_amount,
			                      amount_paid, change_amount, payment_method, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.OrderID, string(related), p.TableID, p.TotalAmount.String(),
			p.AmountPaid.String(), p.Change.String(), string(p.Method), string(p.Status),
			formatTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		if len(orderIDs) == 0 {
			return nil
		}
		args := make([]any, len(orderIDs))
		for i, id := range orderIDs {
			args[i] = id
		}
		resolved, err := s.queryOrders(ctx, q,
			orderSelect+" WHERE o.id IN ("+placeholders(len(orderIDs))+")"+orderOrderBy, args...)
		if err != nil {
			return err
		}
		for _, ro := range resolved {
			updated = append(updated, ro.Order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*sales.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments, err := s.queryPayments(ctx, paymentSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}

// ListPayments returns payments matching f, newest first.
func (s *Store) ListPayments(ctx context.Context, f sales.PaymentFilter) ([]sales.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any
	if f.CreatedFrom != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, formatTime(*f.CreatedTo))
	}
	if f.Method != "" {
		conds = append(conds, "payment_method = ?")
		args = append(args, string(f.Method))
	}
	query := paymentSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return s.queryPayments(ctx, query+" ORDER BY created_at DESC, id", args...)
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]sales.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []sales.Payment
	for rows.Next() {
		var p sales.Payment
		var related, total, paid, change, method, status, createdAt string
		if err := rows.Scan(&p.ID, &p.OrderID, &related, &p.TableID, &total, &paid,
			&change, &method, &status, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(related), &p.RelatedOrders); err != nil {
			return nil, fmt.Errorf("payment %s: bad related orders: %w", p.ID, err)
		}
		p.TotalAmount = parseDecimal(total)
		p.AmountPaid = parseDecimal(paid)
		p.Change = parseDecimal(change)
		p.Method = sales.PaymentMethod(method)
		p.Status = sales.PaymentStatus(status)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p.Normalize())
	}
	return out, rows.Err()
}
