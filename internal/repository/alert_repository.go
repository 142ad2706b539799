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

type AlertRepository interface {
	Create(ctx context.Context, alert entity.Alert) (entity.Alert, error)
	ListForUser(ctx context.Context, userId string, limit int) ([]entity.Alert, error)
	MarkSeen(ctx context.Context, userId string) error
}

type alertRepository struct {
	db mongo.Database
}

func NewAlertRepository(db mongo.Database) AlertRepository {
	return &alertRepository{
		db: db,
	}
}

func (r *alertRepository) Create(ctx context.Context, alert entity.Alert) (entity.Alert, error) {
	collection := r.db.Collection("alerts")
	alert.Id = uuid.New().String()
	alert.CreatedAt = time.Now()

	_, err := collection.InsertOne(ctx, alert)
	if err != nil {
		return entity.Alert{}, err
	}

	return alert, nil
}

func (r *alertRepository) ListForUser(ctx context.Context, userId string, limit int) ([]entity.Alert, error) {
	collection := r.db.Collection("alerts")
	filter := bson.M{"recipientId": userId}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var alerts []entity.Alert
	err = cursor.All(ctx, &alerts)
	if err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *alertRepository) MarkSeen(ctx context.Context, userId string) error {
	collection := r.db.Collection("alerts")
	filter := bson.M{
		"recipientId": userId,
		"seen":        false,
	}

	update := bson.M{
		"$set": bson.M{"seen": true},
	}

	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}
