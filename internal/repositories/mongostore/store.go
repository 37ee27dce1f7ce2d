// Package mongostore implements the repository interfaces on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/repositories"
)

const (
	ordersCollection               = "orders"
	productsCollection             = "products"
	usersCollection                = "users"
	countersCollection             = "counters"
	notificationFailuresCollection = "notification_failures"
)

// Store groups the Mongo-backed repositories that share one database handle.
type Store struct {
	db *mongo.Database

	Orders               *OrderRepository
	Products             *ProductRepository
	Users                *UserRepository
	Counters             *CounterRepository
	NotificationFailures *NotificationFailureRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:                   db,
		Orders:               &OrderRepository{coll: db.Collection(ordersCollection)},
		Products:             &ProductRepository{coll: db.Collection(productsCollection)},
		Users:                &UserRepository{coll: db.Collection(usersCollection)},
		Counters:             &CounterRepository{coll: db.Collection(countersCollection)},
		NotificationFailures: &NotificationFailureRepository{coll: db.Collection(notificationFailuresCollection)},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.db.Client().Ping(checkCtx, readpref.Primary())
}

// Transactor returns a session-backed transactor. Multi-document transactions
// need a replica set; pass enabled=false for standalone servers.
func (s *Store) Transactor(enabled bool) repositories.Transactor {
	if !enabled {
		return repositories.NoTransaction
	}
	return &transactor{client: s.db.Client()}
}

type transactor struct {
	client *mongo.Client
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, repositories.ErrNotFound
	}
	return id, nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(repositories.ErrDuplicate, err)
	default:
		return err
	}
}
