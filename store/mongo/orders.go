package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// ORDER STORE (sales.OrderStore interface)
// =============================================================================

// orderFilter translates f into a $match document.
func orderFilter(f sales.OrderFilter) bson.M {
	m := bson.M{}
	switch {
	case f.Status != "" && f.NotStatus != "":
		m["status"] = bson.M{"$eq": string(f.Status), "$ne": string(f.NotStatus)}
	case f.Status != "":
		m["status"] = string(f.Status)
	case f.NotStatus != "":
		m["status"] = bson.M{"$ne": string(f.NotStatus)}
	}
	if f.TableID != "" {
		m["tableId"] = f.TableID
	}
	if f.UpdatedWithin != nil {
		m["updatedAt"] = bson.M{
			"$gte": f.UpdatedWithin.Start.UTC(),
			"$lte": f.UpdatedWithin.End.UTC(),
		}
	}
	return m
}

var orderSort = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) FindOrders(ctx context.Context, f sales.OrderFilter) ([]sales.Order, error) {
	cur, err := s.db.Collection(colOrders).Find(ctx, orderFilter(f), options.Find().SetSort(orderSort))
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
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

// FindResolvedOrders attaches menu items with a $lookup on items.menuItem.
func (s *Store) FindResolvedOrders(ctx context.Context, f sales.OrderFilter) ([]sales.ResolvedOrder, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: orderFilter(f)}},
		{{Key: "$sort", Value: orderSort}},
		{{Key: "$lookup", Value: bson.M{
			"from":         colMenuItems,
			"localField":   "items.menuItem",
			"foreignField": "_id",
			"as":           "menuDocs",
		}}},
	}
	cur, err := s.db.Collection(colOrders).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.ResolvedOrder, len(docs))
	for i, d := range docs {
		out[i] = d.resolved()
	}
	return out, nil
}

type bucketRow struct {
	ID struct {
		Year  int `bson:"year"`
		Month int `bson:"month"`
		Day   int `bson:"day,omitempty"`
	} `bson:"_id"`
	Total primitive.Decimal128 `bson:"total"`
	Count int                  `bson:"count"`
}

// bucketGroup is the $group _id for parts, with every date operator
// evaluated in loc's timezone. A nil loc means UTC.
func bucketGroup(parts sales.DateParts, loc *time.Location) bson.M {
	tz := "UTC"
	if loc != nil {
		tz = loc.String()
	}
	datePart := func(op string) bson.M {
		return bson.M{op: bson.M{"date": "$updatedAt", "timezone": tz}}
	}
	group := bson.M{
		"year":  datePart("$year"),
		"month": datePart("$month"),
	}
	if parts == sales.ByDay {
		group["day"] = datePart("$dayOfMonth")
	}
	return group
}

func sumPipeline(f sales.OrderFilter, parts sales.DateParts, loc *time.Location) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: orderFilter(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bucketGroup(parts, loc),
			"total": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
}

// SumByDatePart groups matching orders on the server by the calendar parts
// of updatedAt in loc.
func (s *Store) SumByDatePart(ctx context.Context, f sales.OrderFilter, parts sales.DateParts, loc *time.Location) ([]sales.BucketSum, error) {
	cur, err := s.db.Collection(colOrders).Aggregate(ctx, sumPipeline(f, parts, loc))
	if err != nil {
		return nil, fmt.Errorf("failed to sum orders: %w", err)
	}
	var rows []bucketRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]sales.BucketSum, len(rows))
	for i, r := range rows {
		out[i] = sales.BucketSum{
			Key:    sales.BucketKey{Year: r.ID.Year, Month: time.Month(r.ID.Month), Day: r.ID.Day},
			Amount: fromDecimal128(r.Total),
			Count:  r.Count,
		}
	}
	sales.SortBuckets(out)
	return out, nil
}

// =============================================================================
// ORDER WRITER (sales.OrderWriter interface)
// =============================================================================

func (s *Store) CreateOrder(ctx context.Context, o sales.Order) error {
	if _, err := s.db.Collection(colOrders).InsertOne(ctx, newOrderDoc(o)); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*sales.Order, error) {
	var d orderDoc
	ok, err := findOne(ctx, s.db.Collection(colOrders), bson.M{"_id": id}, &d)
	if err != nil || !ok {
		return nil, err
	}
	o := d.order()
	return &o, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status sales.OrderStatus, at time.Time) (*sales.Order, error) {
	var d orderDoc
	err := s.db.Collection(colOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": at.UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	o := d.order()
	return &o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (bool, error) {
	res, err := s.db.Collection(colOrders).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return res.DeletedCount > 0, nil
}
