package mongostore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return models.Order{}, translateError(err)
	}
	return order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Order{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *OrderRepository) FindByPaymentReference(ctx context.Context, reference string) (models.Order, error) {
	return r.findOne(ctx, bson.M{"paymentReference": reference})
}

func (r *OrderRepository) FindForUser(ctx context.Context, userID, orderID string) (models.Order, error) {
	uid, err := objectID(userID)
	if err != nil {
		return models.Order{}, err
	}
	oid, err := objectID(orderID)
	if err != nil {
		return models.Order{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid, "user": uid})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		return models.Order{}, translateError(err)
	}
	return order, nil
}

func (r *OrderRepository) ApplyStatusChange(ctx context.Context, id string, change repositories.StatusChange) (models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Order{}, err
	}

	set := bson.M{
		"orderStatus": change.Status,
		"isNewOrder":  false,
		"updatedAt":   change.UpdatedAt,
	}
	if change.TrackingNumber != "" {
		set["trackingNumber"] = change.TrackingNumber
	}

	filter := bson.M{"_id": oid, "orderStatus": change.ExpectedStatus}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": change.Entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == mongo.ErrNoDocuments {
		count, countErr := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if countErr != nil {
			return models.Order{}, countErr
		}
		if count > 0 {
			return models.Order{}, repositories.ErrConflict
		}
		return models.Order{}, repositories.ErrNotFound
	}
	if err != nil {
		return models.Order{}, translateError(err)
	}
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["orderStatus"] = filter.Status
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = []bson.M{
			{"orderNumber": pattern},
			{"paymentReference": pattern},
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "isNewOrder", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	return r.find(ctx, query, opts)
}

func (r *OrderRepository) ListForUser(ctx context.Context, userID string, filter repositories.UserOrderFilter) ([]models.Order, int64, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, 0, err
	}

	query := bson.M{"user": uid}
	if filter.Status != "" {
		query["orderStatus"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)

	orders, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) Stats(ctx context.Context, window repositories.StatsWindow) (repositories.OrderStats, error) {
	stats := repositories.OrderStats{ByStatus: map[models.OrderStatus]int64{}}

	var err error
	if stats.SalesToday, err = r.paidSalesSince(ctx, window.DayStart); err != nil {
		return stats, err
	}
	if stats.SalesThisWeek, err = r.paidSalesSince(ctx, window.WeekStart); err != nil {
		return stats, err
	}
	if stats.SalesThisMonth, err = r.paidSalesSince(ctx, window.MonthStart); err != nil {
		return stats, err
	}
	if stats.TotalOrders, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, err
	}

	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$orderStatus"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return stats, err
	}
	var groups []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return stats, err
	}
	for _, group := range groups {
		stats.ByStatus[group.Status] = group.Count
	}

	recentSize := window.RecentSize
	if recentSize <= 0 {
		recentSize = 10
	}
	stats.Recent, err = r.find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(recentSize))
	return stats, err
}

func (r *OrderRepository) paidSalesSince(ctx context.Context, since time.Time) (float64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
			{Key: "paymentStatus", Value: models.PaymentStatusPaid},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
