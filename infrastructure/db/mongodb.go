package db

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type MongoStore struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if uri == "" {
		uri = os.Getenv("MONGODB_URI")
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
	}
	if dbName == "" {
		dbName = os.Getenv("MONGODB_DATABASE")
	}

	if dbName == "" {
		return nil, errors.New("database name required (set dbName or MONGODB_DATABASE)")
	}

	clientOpts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(100)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}

	store := &MongoStore{
		Client: client,
		DB:     client.Database(dbName),
	}
	return store, nil
}

// WithTransaction runs fn inside a single multi-document transaction.
// Every read and write fn performs through the session context commits
// or aborts as one unit. Requires a replica set deployment.
func (m *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)

	return err
}

func (m *MongoStore) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(disconnectCtx)
}

func (m *MongoStore) Ping(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return errors.New("mongo client is nil")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.Client.Ping(pingCtx, nil)
}

// EnsureIndexes creates the indexes the subsystem's invariants lean on:
// one conversation per canonical pair, one deletion marker and one read
// receipt per (conversation, user), one bucket per rate-limit window.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		"conversations": {
			Keys:    bsonDoc("userLowId", "userHighId"),
			Options: unique,
		},
		"deletion_markers": {
			Keys:    bsonDoc("conversationId", "userId"),
			Options: unique,
		},
		"read_receipts": {
			Keys:    bsonDoc("conversationId", "userId"),
			Options: unique,
		},
		"rate_limit_buckets": {
			Keys:    bsonDoc("userId", "recipientId", "limitType", "windowStart"),
			Options: unique,
		},
		"messages": {
			Keys: bsonDoc("conversationId", "createdAt"),
		},
	}

	for name, model := range indexes {
		if _, err := m.DB.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}

	return nil
}

func bsonDoc(fields ...string) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, field := range fields {
		doc = append(doc, bson.E{Key: field, Value: 1})
	}
	return doc
}
