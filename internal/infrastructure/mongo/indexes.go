package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections はコレクション名の組。config.Config から組み立てる。
type Collections struct {
	Contests            string
	Submissions         string
	VotingStats         string
	FailedNotifications string
}

// EnsureIndexes は起動時に必要なインデックスを作成する。既存なら何もしない。
// submissions と voting_stats のユニークインデックスは重複応募・重複カウント防止に必須。
func EnsureIndexes(ctx context.Context, db *mongo.Database, cols Collections) error {
	if _, err := db.Collection(cols.Contests).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phase", Value: 1}, {Key: "startAt", Value: -1}},
			Options: options.Index().SetName("idx_contest_phase_start"),
		},
	}); err != nil {
		return err
	}

	if _, err := db.Collection(cols.Submissions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "contestId", Value: 1}, {Key: "participantId", Value: 1}},
		Options: options.Index().SetName("uniq_submission_contest_participant").SetUnique(true),
	}); err != nil {
		return err
	}

	if _, err := db.Collection(cols.VotingStats).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "contestId", Value: 1}, {Key: "voterId", Value: 1}},
		Options: options.Index().SetName("uniq_voting_stats_contest_voter").SetUnique(true),
	}); err != nil {
		return err
	}

	if cols.FailedNotifications != "" {
		if _, err := db.Collection(cols.FailedNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_failed_status_created"),
		}); err != nil {
			return err
		}
	}
	return nil
}
