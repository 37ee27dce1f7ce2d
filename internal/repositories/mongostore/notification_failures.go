package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/repositories"
)

type NotificationFailureRepository struct {
	coll *mongo.Collection
}

func (r *NotificationFailureRepository) Record(ctx context.Context, failure repositories.NotificationFailure) error {
	_, err := r.coll.InsertOne(ctx, failure)
	return err
}

func (r *NotificationFailureRepository) Recent(ctx context.Context, limit int64) ([]repositories.NotificationFailure, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "failedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	failures := make([]repositories.NotificationFailure, 0)
	if err := cursor.All(ctx, &failures); err != nil {
		return nil, err
	}
	return failures, nil
}
