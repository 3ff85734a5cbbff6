/*
Package mongo provides a MongoDB-backed implementation of the storage interfaces.

PURPOSE:
  Document-database backend with the same contracts as store/sqlite. Orders
  embed their line items, reports embed their maps and lists, and grouped
  sums run as aggregation pipelines on the server.

COLLECTIONS:
  categories, menu_items, orders, payments, admins, reports

ENCODING:
  - _id is a string (UUID) so ids are interchangeable with the SQLite backend
  - Currency is Decimal128, converted to and from shopspring decimals
  - Date buckets use $year / $month / $dayOfMonth, which evaluate in UTC

SETTLEMENT:
  RecordPayment updates orders and inserts the payment as two writes. A
  standalone server has no multi-document transactions; a crash between the
  writes leaves orders paid without a payment record.

SEE ALSO:
  - store/sqlite: Default backend with identical semantics
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colCategories = "categories"
	colMenuItems  = "menu_items"
	colOrders     = "orders"
	colPayments   = "payments"
	colAdmins     = "admins"
	colReports    = "reports"
)

// Store implements all storage interfaces on one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the server and ensures indexes on dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri is empty")
	}
	opts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colOrders: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: 1}}},
			{Keys: bson.D{{Key: "tableId", Value: 1}, {Key: "status", Value: 1}}},
		},
		colMenuItems: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		colAdmins: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colReports: {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "dateRange.start", Value: 1}, {Key: "dateRange.end", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// Reset drops every document (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	for _, col := range []string{colOrders, colPayments, colReports, colMenuItems, colCategories} {
		if _, err := s.db.Collection(col).DeleteMany(ctx, bson.M{}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// findOne decodes the single match into out and reports whether one existed.
func findOne(ctx context.Context, col *mongo.Collection, filter any, out any, opts ...*options.FindOneOptions) (bool, error) {
	err := col.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
