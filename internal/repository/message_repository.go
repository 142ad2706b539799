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

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Get(ctx context.Context, messageId string) (entity.Message, error)
	Create(ctx context.Context, message entity.Message) (string, error)
	// ListVisible returns the newest messages of a conversation that are
	// not hidden for the viewer, newest first.
	ListVisible(ctx context.Context, conversationId, viewerId string, limit int) ([]entity.Message, error)
	LatestVisible(ctx context.Context, conversationId, viewerId string) (entity.Message, error)
	// CountUnread counts messages newer than since, authored by the other
	// participant and not hidden for the viewer.
	CountUnread(ctx context.Context, conversationId, viewerId string, since time.Time) (int, error)
	// AddHiddenFor adds the user to a message's hiddenFor set. Idempotent.
	AddHiddenFor(ctx context.Context, messageId, userId string) error
	// HideAllInConversation adds the user to the hiddenFor set of every
	// message in the conversation that does not contain them yet.
	HideAllInConversation(ctx context.Context, conversationId, userId string) error
}

type messageRepository struct {
	db mongo.Database
}

func NewMessageRepository(db mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Get(ctx context.Context, messageId string) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (string, error) {
	collection := r.db.Collection("messages")
	message.Id = uuid.New().String()

	_, err := collection.InsertOne(ctx, message)
	if err != nil {
		return "", err
	}

	return message.Id, nil
}

func visibleFilter(conversationId, viewerId string) bson.M {
	return bson.M{
		"conversationId": conversationId,
		"hiddenFor":      bson.M{"$ne": viewerId},
	}
}

func (r *messageRepository) ListVisible(ctx context.Context, conversationId, viewerId string, limit int) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := collection.Find(ctx, visibleFilter(conversationId, viewerId), opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) LatestVisible(ctx context.Context, conversationId, viewerId string) (entity.Message, error) {
	collection := r.db.Collection("messages")

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var message entity.Message
	err := collection.FindOne(ctx, visibleFilter(conversationId, viewerId), opts).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, conversationId, viewerId string, since time.Time) (int, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"conversationId": conversationId,
		"senderId":       bson.M{"$ne": viewerId},
		"hiddenFor":      bson.M{"$ne": viewerId},
		"createdAt":      bson.M{"$gt": since},
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (r *messageRepository) AddHiddenFor(ctx context.Context, messageId, userId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	update := bson.M{
		"$addToSet": bson.M{"hiddenFor": userId},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) HideAllInConversation(ctx context.Context, conversationId, userId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"conversationId": conversationId}

	update := bson.M{
		"$addToSet": bson.M{"hiddenFor": userId},
	}

	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}
