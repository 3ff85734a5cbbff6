package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// REPORT STORE (sales.ReportStore interface)
// =============================================================================

// reportKeyFilter matches reports of the key's type whose start and end fall
// on the key's calendar days.
func reportKeyFilter(key sales.CacheKey) bson.M {
	sw, ew := key.StartWindow(), key.EndWindow()
	return bson.M{
		"type":            string(key.Type),
		"dateRange.start": bson.M{"$gte": sw.Start.UTC(), "$lte": sw.End.UTC()},
		"dateRange.end":   bson.M{"$gte": ew.Start.UTC(), "$lte": ew.End.UTC()},
	}
}

func (s *Store) FindReport(ctx context.Context, key sales.CacheKey) (*sales.Report, error) {
	var d reportDoc
	ok, err := findOne(ctx, s.db.Collection(colReports), reportKeyFilter(key), &d,
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil || !ok {
		return nil, err
	}
	r := d.report()
	return &r, nil
}

func (s *Store) InsertReport(ctx context.Context, r sales.Report) error {
	if _, err := s.db.Collection(colReports).InsertOne(ctx, newReportDoc(r)); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// UpdateReport overwrites every computed field and the date range.
func (s *Store) UpdateReport(ctx context.Context, r sales.Report) error {
	d := newReportDoc(r)
	res, err := s.db.Collection(colReports).UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$set": bson.M{
		"dateRange":        d.DateRange,
		"totalSales":       d.TotalSales,
		"totalOrders":      d.TotalOrders,
		"dailySales":       d.DailySales,
		"salesByCategory":  d.SalesByCategory,
		"monthlySalesData": d.MonthlySalesData,
		"details":          d.Details,
	}})
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if res.MatchedCount == 0 {
		return sales.ErrReportNotFound
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*sales.Report, error) {
	var d reportDoc
	ok, err := findOne(ctx, s.db.Collection(colReports), bson.M{"_id": id}, &d)
	if err != nil || !ok {
		return nil, err
	}
	r := d.report()
	return &r, nil
}

// ListReports projects away the heavy fields and sorts newest first.
func (s *Store) ListReports(ctx context.Context) ([]sales.ReportSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"type": 1, "dateRange": 1, "totalSales": 1, "totalOrders": 1, "createdAt": 1})
	cur, err := s.db.Collection(colReports).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]sales.ReportSummary, len(docs))
	for i, d := range docs {
		out[i] = d.report().Summary()
	}
	return out, nil
}
