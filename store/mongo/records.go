package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(ctx context.Context, c sales.Category) error {
	if _, err := s.db.Collection(colCategories).InsertOne(ctx, newCategoryDoc(c)); err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*sales.Category, error) {
	var d categoryDoc
	ok, err := findOne(ctx, s.db.Collection(colCategories), bson.M{"_id": id}, &d)
	if err != nil || !ok {
		return nil, err
	}
	c := d.category()
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]sales.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cur, err := s.db.Collection(colCategories).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.Category, len(docs))
	for i, d := range docs {
		out[i] = d.category()
	}
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c sales.Category) (bool, error) {
	res, err := s.db.Collection(colCategories).UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"name":        c.Name,
		"description": c.Description,
		"isActive":    c.IsActive,
	}})
	if err != nil {
		return false, fmt.Errorf("failed to update category: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	res, err := s.db.Collection(colCategories).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) CountMenuItems(ctx context.Context, categoryID string) (int, error) {
	n, err := s.db.Collection(colMenuItems).CountDocuments(ctx, bson.M{"category": categoryID})
	return int(n), err
}

// =============================================================================
// MENU ITEMS
// =============================================================================

func (s *Store) CreateMenuItem(ctx context.Context, m sales.MenuItem) error {
	if _, err := s.db.Collection(colMenuItems).InsertOne(ctx, newMenuItemDoc(m)); err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}
	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*sales.MenuItem, error) {
	var d menuItemDoc
	ok, err := findOne(ctx, s.db.Collection(colMenuItems), bson.M{"_id": id}, &d)
	if err != nil || !ok {
		return nil, err
	}
	m := d.menuItem()
	return &m, nil
}

func (s *Store) ListMenuItems(ctx context.Context) ([]sales.MenuItem, error) {
	return s.findMenuItems(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}))
}

func (s *Store) UpdateMenuItem(ctx context.Context, m sales.MenuItem) (bool, error) {
	res, err := s.db.Collection(colMenuItems).UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
		"name":        m.Name,
		"description": m.Description,
		"price":       toDecimal128(m.Price),
		"category":    m.CategoryID,
		"imageUrl":    m.ImageURL,
	}})
	if err != nil {
		return false, fmt.Errorf("failed to update menu item: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) (bool, error) {
	res, err := s.db.Collection(colMenuItems).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete menu item: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) MenuItemsByID(ctx context.Context, ids []string) (map[string]sales.MenuItem, error) {
	out := make(map[string]sales.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := s.findMenuItems(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Store) findMenuItems(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]sales.MenuItem, error) {
	cur, err := s.db.Collection(colMenuItems).Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	var docs []menuItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.MenuItem, len(docs))
	for i, d := range docs {
		out[i] = d.menuItem()
	}
	return out, nil
}

// =============================================================================
// PAYMENTS (sales.PaymentStore interface)
// =============================================================================

// RecordPayment marks the orders paid, then inserts the payment.
func (s *Store) RecordPayment(ctx context.Context, p sales.Payment, orderIDs []string, at time.Time) ([]sales.Order, error) {
	p = p.Normalize()
	p.RelatedOrders = append([]string{}, orderIDs...)

	orders := s.db.Collection(colOrders)
	if len(orderIDs) > 0 {
		_, err := orders.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": orderIDs}},
			bson.M{"$set": bson.M{"status": string(sales.StatusPaid), "updatedAt": at.UTC()}})
		if err != nil {
			return nil, fmt.Errorf("failed to mark orders paid: %w", err)
		}
	}
	if _, err := s.db.Collection(colPayments).InsertOne(ctx, newPaymentDoc(p)); err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	if len(orderIDs) == 0 {
		return nil, nil
	}

	cur, err := orders.Find(ctx, bson.M{"_id": bson.M{"$in": orderIDs}}, options.Find().SetSort(orderSort))
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.Order, len(docs))
	for i, d := range docs {
		out[i] = d.order()
	}
	return out, nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*sales.Payment, error) {
	var d paymentDoc
	ok, err := findOne(ctx, s.db.Collection(colPayments), bson.M{"_id": id}, &d)
	if err != nil || !ok {
		return nil, err
	}
	p := d.payment()
	return &p, nil
}

// paymentFilter translates f into a find filter.
func paymentFilter(f sales.PaymentFilter) bson.M {
	m := bson.M{}
	created := bson.M{}
	if f.CreatedFrom != nil {
		created["$gte"] = f.CreatedFrom.UTC()
	}
	if f.CreatedTo != nil {
		created["$lte"] = f.CreatedTo.UTC()
	}
	if len(created) > 0 {
		m["createdAt"] = created
	}
	if f.Method != "" {
		m["paymentMethod"] = string(f.Method)
	}
	return m
}

func (s *Store) ListPayments(ctx context.Context, f sales.PaymentFilter) ([]sales.Payment, error) {
	cur, err := s.db.Collection(colPayments).Find(ctx, paymentFilter(f),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.Payment, len(docs))
	for i, d := range docs {
		out[i] = d.payment()
	}
	return out, nil
}

// =============================================================================
// ADMINS (auth.AdminStore interface)
// =============================================================================

func (s *Store) CreateAdmin(ctx context.Context, a auth.Admin) error {
	_, err := s.db.Collection(colAdmins).InsertOne(ctx, adminDoc{
		ID:        a.ID,
		Username:  a.Username,
		Password:  a.PasswordHash,
		CreatedAt: a.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return auth.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*auth.Admin, error) {
	return s.findAdmin(ctx, bson.M{"username": username})
}

func (s *Store) GetAdmin(ctx context.Context, id string) (*auth.Admin, error) {
	return s.findAdmin(ctx, bson.M{"_id": id})
}

func (s *Store) findAdmin(ctx context.Context, filter bson.M) (*auth.Admin, error) {
	var d adminDoc
	ok, err := findOne(ctx, s.db.Collection(colAdmins), filter, &d)
	if err != nil || !ok {
		return nil, err
	}
	a := d.admin()
	return &a, nil
}
