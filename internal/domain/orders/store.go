package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/db"
	"storefront/internal/pricing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) *Repository {
	return &Repository{coll: database.Collection(db.OrdersCollection)}
}

func (r *Repository) Create(ctx context.Context, o *Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	var o Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]*Order, int, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	list := []*Order{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return list, int(total), nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerExternalID string) ([]*Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"customerExternalId": customerExternalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	list := []*Order{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return list, nil
}

// AppendTracking pushes the entry and sets the status in one single-document
// update, guarded on the status the caller read.
func (r *Repository) AppendTracking(ctx context.Context, id primitive.ObjectID, from Status, entry TrackingEntry) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$push": bson.M{"trackingHistory": entry},
			"$set":  bson.M{"status": entry.Status, "updatedAt": entry.Timestamp},
		},
	)
	if err != nil {
		return fmt.Errorf("append tracking: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("append tracking: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return ErrStaleOrder
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// TotalRevenue sums totalAmount over every order that was not canceled.
func (r *Repository) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": StatusCanceled}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("total revenue: %w", err)
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return pricing.Round2(rows[0].Total), nil
}

// SalesPerMonth returns twelve buckets for the given year, months without
// orders included as zero.
func (r *Repository) SalesPerMonth(ctx context.Context, year int) ([]MonthlySales, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":    bson.M{"$ne": StatusCanceled},
			"createdAt": bson.M{"$gte": start, "$lt": end},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$createdAt"},
			"sales": bson.M{"$sum": "$totalAmount"},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sales per month: %w", err)
	}
	var rows []struct {
		Month int     `bson:"_id"`
		Sales float64 `bson:"sales"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}

	byMonth := make(map[int]float64, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.Sales
	}
	return FillMonths(year, byMonth), nil
}

// FillMonths expands a sparse month->sales map into twelve ordered buckets.
func FillMonths(year int, byMonth map[int]float64) []MonthlySales {
	out := make([]MonthlySales, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = MonthlySales{Year: year, Month: m, Sales: pricing.Round2(byMonth[m])}
	}
	return out
}
