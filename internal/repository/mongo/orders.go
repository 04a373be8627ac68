// Package mongo stores one document per order in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/repository/record"
)

const collectionName = "orders"

// Connect dials uri and waits for the primary to answer.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// OrderRepository is the MongoDB order store.
type OrderRepository struct {
	client *mongo.Client
	orders *mongo.Collection
}

// NewOrderRepository uses the orders collection of database db and ensures its indexes.
func NewOrderRepository(ctx context.Context, client *mongo.Client, db string) (*OrderRepository, error) {
	coll := client.Database(db).Collection(collectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create orders index: %w", err)
	}
	return &OrderRepository{client: client, orders: coll}, nil
}

// Insert stores a new order. Duplicate ids are rejected with apperr.ErrConflict.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.orders.InsertOne(ctx, record.FromDomain(o))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert order %s: %w", o.ID, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get returns the order or (nil, nil).
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var rec record.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return rec.ToDomain()
}

// ListByUser returns the user's orders, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// List returns every order, oldest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.find(ctx, bson.M{})
}

// Update replaces the stored document. It reports false when the id is unknown.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) (bool, error) {
	res, err := r.orders.ReplaceOne(ctx, bson.M{"_id": o.ID}, record.FromDomain(o))
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// Ping checks the primary.
func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (r *OrderRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var recs []record.Order
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		o, err := rec.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}
