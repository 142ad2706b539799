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

type RateLimitRepository interface {
	// SumSince sums messageCount across the sender's buckets of the given
	// type whose window started at or after since. For hourly buckets the
	// recipient id scopes the filter; daily buckets ignore it.
	SumSince(ctx context.Context, userId, recipientId string, limitType entity.LimitType, since time.Time) (int, error)
	// Increment bumps the bucket whose window starts exactly at
	// windowStart, creating it on first use.
	Increment(ctx context.Context, userId, recipientId string, limitType entity.LimitType, windowStart time.Time) error
}

type rateLimitRepository struct {
	db mongo.Database
}

func NewRateLimitRepository(db mongo.Database) RateLimitRepository {
	return &rateLimitRepository{
		db: db,
	}
}

func bucketFilter(userId, recipientId string, limitType entity.LimitType) bson.M {
	filter := bson.M{
		"userId":    userId,
		"limitType": limitType,
	}
	if limitType == entity.LimitHourlyPerRecipient {
		filter["recipientId"] = recipientId
	}
	return filter
}

func (r *rateLimitRepository) SumSince(ctx context.Context, userId, recipientId string, limitType entity.LimitType, since time.Time) (int, error) {
	collection := r.db.Collection("rate_limit_buckets")

	filter := bucketFilter(userId, recipientId, limitType)
	filter["windowStart"] = bson.M{"$gte": since}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return 0, err
	}

	var buckets []entity.RateLimitBucket
	err = cursor.All(ctx, &buckets)
	if err != nil {
		return 0, err
	}

	// At most two buckets match: the current window and the prior one.
	total := 0
	for _, bucket := range buckets {
		total += bucket.MessageCount
	}

	return total, nil
}

func (r *rateLimitRepository) Increment(ctx context.Context, userId, recipientId string, limitType entity.LimitType, windowStart time.Time) error {
	collection := r.db.Collection("rate_limit_buckets")

	filter := bucketFilter(userId, recipientId, limitType)
	filter["windowStart"] = windowStart

	setOnInsert := bson.M{
		"_id":         uuid.New().String(),
		"userId":      userId,
		"limitType":   limitType,
		"windowStart": windowStart,
	}
	if limitType == entity.LimitHourlyPerRecipient {
		setOnInsert["recipientId"] = recipientId
	}

	update := bson.M{
		"$inc":         bson.M{"messageCount": 1},
		"$setOnInsert": setOnInsert,
	}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}
