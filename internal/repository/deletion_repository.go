package repository

import (
	"context"
	"time"

	"dmbox/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeletionRepository interface {
	// Upsert inserts the marker for (conversation, user) if absent.
	Upsert(ctx context.Context, conversationId, userId string, now time.Time) error
	Delete(ctx context.Context, conversationId, userId string) error
	Exists(ctx context.Context, conversationId, userId string) (bool, error)
	ListConversationIds(ctx context.Context, userId string) ([]string, error)
}

type deletionRepository struct {
	db mongo.Database
}

func NewDeletionRepository(db mongo.Database) DeletionRepository {
	return &deletionRepository{
		db: db,
	}
}

func (r *deletionRepository) Upsert(ctx context.Context, conversationId, userId string, now time.Time) error {
	collection := r.db.Collection("deletion_markers")
	filter := bson.M{
		"conversationId": conversationId,
		"userId":         userId,
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":            uuid.New().String(),
			"conversationId": conversationId,
			"userId":         userId,
			"createdAt":      now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *deletionRepository) Delete(ctx context.Context, conversationId, userId string) error {
	collection := r.db.Collection("deletion_markers")
	filter := bson.M{
		"conversationId": conversationId,
		"userId":         userId,
	}

	_, err := collection.DeleteOne(ctx, filter)
	return err
}

func (r *deletionRepository) Exists(ctx context.Context, conversationId, userId string) (bool, error) {
	collection := r.db.Collection("deletion_markers")
	filter := bson.M{
		"conversationId": conversationId,
		"userId":         userId,
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *deletionRepository) ListConversationIds(ctx context.Context, userId string) ([]string, error) {
	collection := r.db.Collection("deletion_markers")
	filter := bson.M{"userId": userId}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var markers []entity.DeletionMarker
	err = cursor.All(ctx, &markers)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(markers))
	for _, marker := range markers {
		ids = append(ids, marker.ConversationId)
	}

	return ids, nil
}
