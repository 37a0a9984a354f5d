package mongo

import (
	"context"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VotingStatsRepository persists each voter's distinct-photo progress per contest.
type VotingStatsRepository struct {
	collection *mongo.Collection
}

func NewVotingStatsRepository(db *mongo.Database, collectionName string) *VotingStatsRepository {
	return &VotingStatsRepository{collection: db.Collection(collectionName)}
}

func (r *VotingStatsRepository) Get(ctx context.Context, contestID, voterID string) (domain.VotingStats, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return domain.VotingStats{}, err
	}
	var doc VotingStatsDocument
	if err := r.collection.FindOne(ctx, bson.M{"contestId": objectID, "voterId": voterID}).Decode(&doc); err != nil {
		return domain.VotingStats{}, translate(err, "voting stats of "+voterID)
	}
	return mapVotingStatsDocument(doc), nil
}

// RecordVote は photoKey が未記録の場合だけ件数を増やす。
// 先に等値フィルタだけで upsert して進捗ドキュメントを用意し、
// その後 upsert なしの条件付き更新が一致したかどうかで初回投票を判定する。
func (r *VotingStatsRepository) RecordVote(ctx context.Context, contestID, voterID, photoKey string, at time.Time) (domain.VotingStats, bool, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return domain.VotingStats{}, false, err
	}
	at = at.UTC()
	existing := bson.M{"contestId": objectID, "voterId": voterID}

	ensure := bson.M{"$setOnInsert": bson.M{
		"distinctImagesVotedCount": 0,
		"imagesVotedSet":           bson.A{},
		"lastVotedAt":              at,
	}}
	if _, err := r.collection.UpdateOne(ctx, existing, ensure, options.Update().SetUpsert(true)); err != nil && !mongo.IsDuplicateKeyError(err) {
		return domain.VotingStats{}, false, err
	}

	filter := bson.M{
		"contestId":      objectID,
		"voterId":        voterID,
		"imagesVotedSet": bson.M{"$ne": photoKey},
	}
	update := bson.M{
		"$inc":      bson.M{"distinctImagesVotedCount": 1},
		"$addToSet": bson.M{"imagesVotedSet": photoKey},
		"$set":      bson.M{"lastVotedAt": at},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.VotingStats{}, false, err
	}
	firstVote := result.MatchedCount == 1

	if !firstVote {
		touch := bson.M{"$set": bson.M{"lastVotedAt": at}}
		if _, err := r.collection.UpdateOne(ctx, existing, touch); err != nil {
			return domain.VotingStats{}, false, err
		}
	}

	var doc VotingStatsDocument
	if err := r.collection.FindOne(ctx, existing).Decode(&doc); err != nil {
		return domain.VotingStats{}, false, translate(err, "voting stats of "+voterID)
	}
	return mapVotingStatsDocument(doc), firstVote, nil
}

func (r *VotingStatsRepository) DeleteByContest(ctx context.Context, contestID string) (int64, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return 0, err
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"contestId": objectID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func mapVotingStatsDocument(doc VotingStatsDocument) domain.VotingStats {
	voted := doc.VotedPhotos
	if voted == nil {
		voted = []string{}
	}
	return domain.VotingStats{
		ContestID:     doc.ContestID.Hex(),
		VoterID:       doc.VoterID,
		DistinctCount: doc.DistinctCount,
		VotedPhotos:   voted,
		LastVotedAt:   doc.LastVotedAt,
	}
}
