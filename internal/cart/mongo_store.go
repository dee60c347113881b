package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	SessionID string            `bson:"session_id"`
	Items     []domain.CartLine `bson:"items"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// MongoStore keeps one document per session in the carts collection.
type MongoStore struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database, ttl time.Duration) *MongoStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MongoStore{
		collection: db.Collection("carts"),
		ttl:        ttl,
	}
}

func (m *MongoStore) Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.CartLine{}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item.Quantity > 0 {
			lines = append(lines, item)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (m *MongoStore) Increment(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now()
		result, err := m.collection.UpdateOne(ctx,
			bson.M{"session_id": sessionID, "items.product_id": productID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": 1},
				"$set": bson.M{"updated_at": now},
			})
		if err != nil {
			return fmt.Errorf("failed to increment item: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}

		// Line is absent: push it, creating the cart document if needed.
		_, err = m.collection.UpdateOne(ctx,
			bson.M{"session_id": sessionID, "items.product_id": bson.M{"$ne": productID}},
			bson.M{
				"$push": bson.M{"items": domain.CartLine{ProductID: productID, Quantity: 1}},
				"$set":  bson.M{"updated_at": now},
			},
			options.Update().SetUpsert(true))
		if err == nil {
			return nil
		}
		// A concurrent writer added the line first; retry the increment.
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to add item: %w", err)
		}
	}
	return fmt.Errorf("failed to add item to cart %s: concurrent update", sessionID)
}

func (m *MongoStore) Decrement(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	now := time.Now()
	result, err := m.collection.UpdateOne(ctx,
		bson.M{
			"session_id": sessionID,
			"items": bson.M{"$elemMatch": bson.M{
				"product_id": productID,
				"quantity":   bson.M{"$gte": 2},
			}},
		},
		bson.M{
			"$inc": bson.M{"items.$.quantity": -1},
			"$set": bson.M{"updated_at": now},
		})
	if err != nil {
		return fmt.Errorf("failed to decrement item: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	return m.Remove(ctx, sessionID, productID)
}

func (m *MongoStore) Remove(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	_, err := m.collection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": productID}},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

func (m *MongoStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	if _, err := m.collection.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.ttl / time.Second)),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
