// Package docstore is the MongoDB implementation of the storage gateway. It
// keeps products and orders as documents in two independent collections.
package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	applog "blossoms/internal/log"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
)

// Store keeps products and orders in MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, checks the primary is reachable and makes sure the
// indexes used by the low-stock listing and the reconciliation job exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	const op = "docstore.Connect"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	applog.Info(nil, "db.connect", map[string]any{"driver": "mongo", "database": database})
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "quantity", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("products index: %w", err)
	}
	_, err = s.db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "primaryInfo.shippingStatus", Value: 1},
			{Key: "primaryInfo.estimatedDeliveryDate", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

func (s *Store) Products() *ProductStore {
	return &ProductStore{coll: s.db.Collection(productsCollection)}
}

func (s *Store) Orders() *OrderStore {
	return &OrderStore{coll: s.db.Collection(ordersCollection)}
}

// Drop removes the whole database. Tests use it to clean up.
func (s *Store) Drop(ctx context.Context) error { return s.db.Drop(ctx) }

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("docstore.Close: %w", err)
	}
	return nil
}
