package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTestURI = "mongodb://localhost:27017"

var testCollections = Collections{
	Contests:            "contests",
	Submissions:         "submissions",
	VotingStats:         "voting_stats",
	FailedNotifications: "failed_notifications",
}

// newTestDatabase は使い捨てのデータベースを作り、後始末で削除する。
// -short 指定時や MongoDB に接続できない環境ではスキップする。
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = defaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB is not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB is not available: %v", err)
	}

	db := client.Database("photo_contest_test_" + primitive.NewObjectID().Hex())
	if err := EnsureIndexes(ctx, db, testCollections); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := db.Drop(cleanupCtx); err != nil {
			t.Logf("Error dropping test database: %v", err)
		}
		if err := client.Disconnect(cleanupCtx); err != nil {
			t.Logf("Error disconnecting from MongoDB: %v", err)
		}
	})
	return db
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
