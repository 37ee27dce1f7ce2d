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

type ProductRepository struct {
	coll *mongo.Collection
}

func (r *ProductRepository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	oid, err := objectID(productID)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// DecrementStockClamped lowers stock by quantity in a single server-side
// update, flooring at zero.
func (r *ProductRepository) DecrementStockClamped(ctx context.Context, productID string, quantity int) error {
	oid, err := objectID(productID)
	if err != nil {
		return err
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$stock", quantity}}},
			}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Product{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": strings.TrimSpace(slug)})
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, filter).Decode(&product); err != nil {
		return models.Product{}, translateError(err)
	}
	product.InStock = product.Stock > 0
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query["category"] = category
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		product.InStock = product.Stock > 0
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
