package repository

import (
	"context"
	"errors"
	"time"

	"dmbox/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrReceiptNotFound = errors.New("read receipt not found")

type ReadReceiptRepository interface {
	Get(ctx context.Context, conversationId, userId string) (entity.ReadReceipt, error)
	// Upsert updates the single (conversation, user) row in place.
	Upsert(ctx context.Context, conversationId, userId string, at time.Time) error
}

type readReceiptRepository struct {
	db mongo.Database
}

func NewReadReceiptRepository(db mongo.Database) ReadReceiptRepository {
	return &readReceiptRepository{
		db: db,
	}
}

func (r *readReceiptRepository) Get(ctx context.Context, conversationId, userId string) (entity.ReadReceipt, error) {
	collection := r.db.Collection("read_receipts")
	filter := bson.M{
		"conversationId": conversationId,
		"userId":         userId,
	}

	var receipt entity.ReadReceipt
	err := collection.FindOne(ctx, filter).Decode(&receipt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.ReadReceipt{}, ErrReceiptNotFound
		}
		return entity.ReadReceipt{}, err
	}

	return receipt, nil
}

func (r *readReceiptRepository) Upsert(ctx context.Context, conversationId, userId string, at time.Time) error {
	collection := r.db.Collection("read_receipts")
	filter := bson.M{
		"conversationId": conversationId,
		"userId":         userId,
	}

	update := bson.M{
		"$set": bson.M{"lastReadAt": at},
		"$setOnInsert": bson.M{
			"_id":            uuid.New().String(),
			"conversationId": conversationId,
			"userId":         userId,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}
