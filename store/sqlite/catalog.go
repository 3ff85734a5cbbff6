package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(ctx context.Context, c sales.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Description, boolInt(c.IsActive), formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (*sales.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c sales.Category
	var active int
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, is_active, created_at FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Description, &active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// ListCategories returns categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]sales.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, name, description, is_active, created_at FROM categories"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.Category
	for rows.Next() {
		var c sales.Category
		var active int
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &active, &createdAt); err != nil {
			return nil, err
		}
		c.IsActive = active != 0
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory overwrites name, description and is_active.
func (s *Store) UpdateCategory(ctx context.Context, c sales.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, description = ?, is_active = ? WHERE id = ?",
		c.Name, c.Description, boolInt(c.IsActive), c.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update category: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountMenuItems returns how many menu items reference the category.
func (s *Store) CountMenuItems(ctx context.Context, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM menu_items WHERE category_id = ?", categoryID).Scan(&n)
	return n, err
}

// =============================================================================
// MENU ITEMS
// =============================================================================

const menuSelect = "SELECT id, name, description, price, category_id, image_url, created_at FROM menu_items"

func (s *Store) CreateMenuItem(ctx context.Context, m sales.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, description, price, category_id, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Description, m.Price.String(), m.CategoryID, m.ImageURL, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}
	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*sales.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.queryMenuItems(ctx, menuSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ListMenuItems returns menu items, newest first.
func (s *Store) ListMenuItems(ctx context.Context) ([]sales.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryMenuItems(ctx, menuSelect+" ORDER BY created_at DESC, id")
}

func (s *Store) UpdateMenuItem(ctx context.Context, m sales.MenuItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE menu_items
		SET name = ?, description = ?, price = ?, category_id = ?, image_url = ?
		WHERE id = ?
	`, m.Name, m.Description, m.Price.String(), m.CategoryID, m.ImageURL, m.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update menu item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete menu item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MenuItemsByID returns the menu items among ids that exist.
func (s *Store) MenuItemsByID(ctx context.Context, ids []string) (map[string]sales.MenuItem, error) {
	out := make(map[string]sales.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	items, err := s.queryMenuItems(ctx, menuSelect+" WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Store) queryMenuItems(ctx context.Context, query string, args ...any) ([]sales.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var out []sales.MenuItem
	for rows.Next() {
		var m sales.MenuItem
		var price, createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &price, &m.CategoryID, &m.ImageURL, &createdAt); err != nil {
			return nil, err
		}
		m.Price = parseDecimal(price)
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
