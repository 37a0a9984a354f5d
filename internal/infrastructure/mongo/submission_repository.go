package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionRepository は応募とスロット内の投票台帳を扱う Mongo 実装。
// 写真単位の更新はすべて "slots.<n>" へのドット記法で行い、他スロットとは競合しない。
type SubmissionRepository struct {
	collection *mongo.Collection
}

// NewSubmissionRepository は MongoDB コレクションを束縛した SubmissionRepository を生成する。
func NewSubmissionRepository(db *mongo.Database, collectionName string) *SubmissionRepository {
	return &SubmissionRepository{collection: db.Collection(collectionName)}
}

func (r *SubmissionRepository) FindByContest(ctx context.Context, contestID string) ([]domain.Submission, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"contestId": objectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	submissions := make([]domain.Submission, 0)
	for cursor.Next(ctx) {
		var doc SubmissionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		submissions = append(submissions, mapSubmissionDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*domain.Submission, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID}, "submission "+id)
}

func (r *SubmissionRepository) FindByParticipant(ctx context.Context, contestID, participantID string) (*domain.Submission, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"contestId": objectID, "participantId": participantID}, "submission of "+participantID)
}

func (r *SubmissionRepository) findOne(ctx context.Context, filter bson.M, what string) (*domain.Submission, error) {
	var doc SubmissionDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, what)
	}
	submission := mapSubmissionDocument(doc)
	return &submission, nil
}

// UpsertPhoto は参加者の応募がなければ作成し、指定スロットを丸ごと置き換える。
// (contestId, participantId) のユニークインデックスで 1 参加者 1 応募を保証する。
func (r *SubmissionRepository) UpsertPhoto(ctx context.Context, contestID string, owner domain.Actor, slot int, photo domain.Photo, at time.Time) (*domain.Submission, error) {
	objectID, err := parseObjectID(contestID)
	if err != nil {
		return nil, err
	}
	now := at.UTC()
	filter := bson.M{"contestId": objectID, "participantId": owner.ID}
	update := bson.M{
		"$set": bson.M{
			slotPath(slot):    buildPhotoDocument(photo),
			"participantName": owner.Name,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc SubmissionDocument
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	submission := mapSubmissionDocument(doc)
	return &submission, nil
}

func (r *SubmissionRepository) RemovePhoto(ctx context.Context, ref domain.PhotoRef, at time.Time) error {
	return r.updatePhoto(ctx, ref, bson.M{}, bson.M{
		"$unset": bson.M{slotPath(ref.Slot): ""},
		"$set":   bson.M{"updatedAt": at.UTC()},
	})
}

// SetModeration は状態を更新する。却下時は解放対象の deleteHandle も外す。
func (r *SubmissionRepository) SetModeration(ctx context.Context, ref domain.PhotoRef, state domain.ModerationState, at time.Time) error {
	path := slotPath(ref.Slot)
	update := bson.M{"$set": bson.M{
		path + ".moderationState": string(state),
		path + ".moderatedAt":     at.UTC(),
		"updatedAt":               at.UTC(),
	}}
	if domain.ReleasesImage(state) {
		update["$unset"] = bson.M{path + ".deleteHandle": ""}
	}
	return r.updatePhoto(ctx, ref, bson.M{}, update)
}

// SetVote は承認済みの写真にだけ書き込む。同じ投票者の再投票はスコアの上書きになる。
func (r *SubmissionRepository) SetVote(ctx context.Context, ref domain.PhotoRef, voterID string, score int) error {
	path := slotPath(ref.Slot)
	return r.updatePhoto(ctx, ref,
		bson.M{path + ".moderationState": string(domain.ModerationApproved)},
		bson.M{"$set": bson.M{path + ".votes." + voterID: score}},
	)
}

func (r *SubmissionRepository) DeleteByContest(ctx context.Context, contestID string) (int64, error) {
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

func (r *SubmissionRepository) updatePhoto(ctx context.Context, ref domain.PhotoRef, extra bson.M, update bson.M) error {
	objectID, err := parseObjectID(ref.SubmissionID)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": objectID, slotPath(ref.Slot): bson.M{"$exists": true}}
	for k, v := range extra {
		filter[k] = v
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: photo %s", domain.ErrNotFound, ref)
	}
	return nil
}

func slotPath(slot int) string {
	return "slots." + strconv.Itoa(slot)
}

func buildPhotoDocument(photo domain.Photo) PhotoDocument {
	votes := photo.Votes
	if votes == nil {
		votes = map[string]int{}
	}
	return PhotoDocument{
		ID:              photo.ID,
		ImageURL:        photo.ImageURL,
		DeleteHandle:    photo.DeleteHandle,
		ModerationState: string(photo.ModerationState),
		Votes:           votes,
		UploadedAt:      photo.UploadedAt.UTC(),
		ModeratedAt:     utcPtr(photo.ModeratedAt),
	}
}

// mapSubmissionDocument は不正なスロットキーを読み飛ばす。
func mapSubmissionDocument(doc SubmissionDocument) domain.Submission {
	slots := make(map[int]domain.Photo, len(doc.Slots))
	for key, photo := range doc.Slots {
		slot, err := strconv.Atoi(key)
		if err != nil || domain.ValidateSlot(slot) != nil {
			continue
		}
		votes := photo.Votes
		if votes == nil {
			votes = map[string]int{}
		}
		slots[slot] = domain.Photo{
			ID:              photo.ID,
			ImageURL:        photo.ImageURL,
			DeleteHandle:    photo.DeleteHandle,
			ModerationState: domain.ModerationState(photo.ModerationState),
			Votes:           votes,
			UploadedAt:      photo.UploadedAt,
			ModeratedAt:     photo.ModeratedAt,
		}
	}
	return domain.Submission{
		ID:              doc.ID.Hex(),
		ContestID:       doc.ContestID.Hex(),
		ParticipantID:   doc.ParticipantID,
		ParticipantName: doc.ParticipantName,
		Slots:           slots,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}
