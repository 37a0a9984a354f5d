package mongo

import (
	"context"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/infrastructure/messenger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationRepository は配信できなかった通知を後で再送できるよう保存する。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

func (r *FailedNotificationRepository) Save(ctx context.Context, failure messenger.Failure) error {
	now := time.Now().UTC()
	doc := bson.M{
		"target":      failure.Target,
		"kind":        failure.Kind,
		"payload":     failure.Payload,
		"error":       failure.Err.Error(),
		"attempts":    failure.Attempts,
		"status":      "pending",
		"createdAt":   now,
		"lastTriedAt": now,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
