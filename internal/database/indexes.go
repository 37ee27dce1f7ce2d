package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates every index the application relies on. The unique
// paymentReference index is what makes concurrent reconciliation of one
// payment fail with a duplicate key instead of writing a second order.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	for _, ensure := range []func(*mongo.Database, *zap.Logger) error{
		EnsureOrderIndexes,
		EnsureProductIndexes,
		EnsureUserIndexes,
		EnsureNotificationIndexes,
	} {
		if err := ensure(db, logger); err != nil {
			return err
		}
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, "orders", logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "paymentReference", Value: 1}},
			Options: options.Index().SetName("paymentReference_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "isNewOrder", Value: -1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("isNewOrder_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}},
			Options: options.Index().SetName("orderStatus_index"),
		},
	})
}

func EnsureProductIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, "products", logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		},
	})
}

func EnsureUserIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, "users", logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
}

func EnsureNotificationIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, "notification_failures", logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "failedAt", Value: -1}},
			Options: options.Index().SetName("failedAt_desc"),
		},
	})
}

func createIndexes(db *mongo.Database, collection string, logger *zap.Logger, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		logger.Error("index creation failed", zap.String("collection", collection), zap.Error(err))
		return err
	}
	logger.Info("indexes ensured", zap.String("collection", collection), zap.Strings("indexes", names))
	return nil
}
