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

var ErrConversationNotFound = errors.New("conversation not found")

type ConversationRepository interface {
	Get(ctx context.Context, conversationId string) (entity.Conversation, error)
	// GetOrCreate looks up the conversation for the canonical pair,
	// creating it on first contact. Argument order does not matter.
	GetOrCreate(ctx context.Context, userA, userB string, now time.Time) (entity.Conversation, error)
	Touch(ctx context.Context, conversationId, lastMessageId string, now time.Time) error
	// ListForUser returns every conversation the user participates in,
	// most recently active first. Deletion markers are not applied here.
	ListForUser(ctx context.Context, userId string) ([]entity.Conversation, error)
}

type conversationRepository struct {
	db mongo.Database
}

func NewConversationRepository(db mongo.Database) ConversationRepository {
	return &conversationRepository{
		db: db,
	}
}

func (r *conversationRepository) Get(ctx context.Context, conversationId string) (entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	filter := bson.M{"_id": conversationId}

	var conversation entity.Conversation
	err := collection.FindOne(ctx, filter).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Conversation{}, ErrConversationNotFound
		}
		return entity.Conversation{}, err
	}

	return conversation, nil
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB string, now time.Time) (entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	low, high := entity.CanonicalPair(userA, userB)

	// Upsert on the canonical pair so concurrent first contacts cannot
	// produce two records. The unique index on (userLowId, userHighId)
	// backs this up.
	filter := bson.M{"userLowId": low, "userHighId": high}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":            uuid.New().String(),
			"userLowId":      low,
			"userHighId":     high,
			"lastActivityAt": now,
			"createdAt":      now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conversation entity.Conversation
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conversation)
	if err != nil {
		return entity.Conversation{}, err
	}

	return conversation, nil
}

func (r *conversationRepository) Touch(ctx context.Context, conversationId, lastMessageId string, now time.Time) error {
	collection := r.db.Collection("conversations")
	filter := bson.M{"_id": conversationId}

	update := bson.M{
		"$set": bson.M{
			"lastMessageId":  lastMessageId,
			"lastActivityAt": now,
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *conversationRepository) ListForUser(ctx context.Context, userId string) ([]entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	filter := bson.M{
		"$or": bson.A{
			bson.M{"userLowId": userId},
			bson.M{"userHighId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "lastActivityAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var conversations []entity.Conversation
	err = cursor.All(ctx, &conversations)
	if err != nil {
		return nil, err
	}

	return conversations, nil
}
