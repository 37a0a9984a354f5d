package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ContestRepository implements application.ContestRepository using MongoDB.
type ContestRepository struct {
	collection *mongo.Collection
}

// NewContestRepository creates a new Mongo-backed contest repository.
func NewContestRepository(db *mongo.Database, collectionName string) *ContestRepository {
	return &ContestRepository{collection: db.Collection(collectionName)}
}

// Find はフェーズで絞り込んだコンテストを開始日時の新しい順で返す。
func (r *ContestRepository) Find(ctx context.Context, filter application.ContestFilter) ([]domain.Contest, error) {
	mongoFilter := bson.M{}
	if filter.Phase != nil {
		mongoFilter["phase"] = string(*filter.Phase)
	}
	opts := options.Find().SetSort(bson.D{{Key: "startAt", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	contests := make([]domain.Contest, 0)
	for cursor.Next(ctx) {
		var doc ContestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		contests = append(contests, mapContestDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return contests, nil
}

// FindByID は 16 進 ObjectID でコンテストを 1 件取得する。
func (r *ContestRepository) FindByID(ctx context.Context, id string) (*domain.Contest, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc ContestDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, translate(err, "contest "+id)
	}
	contest := mapContestDocument(doc)
	return &contest, nil
}

// Create は新しい ObjectID を採番し、contest.ID に書き戻す。
func (r *ContestRepository) Create(ctx context.Context, contest *domain.Contest) error {
	doc := buildContestDocument(contest)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	contest.ID = doc.ID.Hex()
	return nil
}

// Update は購読者以外のフィールドを差し替える。購読者は AddSubscriber/RemoveSubscriber だけが触る。
func (r *ContestRepository) Update(ctx context.Context, contest *domain.Contest) error {
	objectID, err := parseObjectID(contest.ID)
	if err != nil {
		return err
	}
	doc := buildContestDocument(contest)
	set := bson.M{
		"title":         doc.Title,
		"theme":         doc.Theme,
		"description":   doc.Description,
		"coverImageURL": doc.CoverImageURL,
		"phase":         doc.Phase,
		"updatedAt":     doc.UpdatedAt,
	}
	unset := bson.M{}
	setOrUnset(set, unset, "startAt", doc.StartAt)
	setOrUnset(set, unset, "submissionCloseAt", doc.SubmissionCloseAt)
	setOrUnset(set, unset, "votingCloseAt", doc.VotingCloseAt)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	result, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: contest %s", domain.ErrNotFound, contest.ID)
	}
	return nil
}

// UpdatePhase は phase だけを書き換える。Advance からの並行呼び出しでも他フィールドを壊さない。
func (r *ContestRepository) UpdatePhase(ctx context.Context, id string, phase domain.Phase, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"phase": string(phase), "updatedAt": at.UTC()}})
}

func (r *ContestRepository) AddSubscriber(ctx context.Context, id, userID string) error {
	return r.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"subscribers": userID}})
}

func (r *ContestRepository) RemoveSubscriber(ctx context.Context, id, userID string) error {
	return r.updateOne(ctx, id, bson.M{"$pull": bson.M{"subscribers": userID}})
}

func (r *ContestRepository) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: contest %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ContestRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: contest %s", domain.ErrNotFound, id)
	}
	return nil
}

func setOrUnset(set, unset bson.M, key string, value *time.Time) {
	if value == nil {
		unset[key] = ""
		return
	}
	set[key] = *value
}

func buildContestDocument(contest *domain.Contest) ContestDocument {
	subscribers := contest.Subscribers
	if subscribers == nil {
		subscribers = []string{}
	}
	return ContestDocument{
		Title:             strings.TrimSpace(contest.Title),
		Theme:             strings.TrimSpace(contest.Theme),
		Description:       contest.Description,
		CoverImageURL:     contest.CoverImageURL,
		StartAt:           utcPtr(contest.StartAt),
		SubmissionCloseAt: utcPtr(contest.SubmissionCloseAt),
		VotingCloseAt:     utcPtr(contest.VotingCloseAt),
		Phase:             string(contest.Phase),
		CreatedBy:         contest.CreatedBy,
		Subscribers:       subscribers,
		CreatedAt:         contest.CreatedAt.UTC(),
		UpdatedAt:         contest.UpdatedAt.UTC(),
	}
}

// mapContestDocument は保存値をそのままドメインに写す。phase の再解決はアプリケーション層の責務。
func mapContestDocument(doc ContestDocument) domain.Contest {
	subscribers := doc.Subscribers
	if subscribers == nil {
		subscribers = []string{}
	}
	return domain.Contest{
		ID:                doc.ID.Hex(),
		Title:             doc.Title,
		Theme:             doc.Theme,
		Description:       doc.Description,
		CoverImageURL:     doc.CoverImageURL,
		StartAt:           utcPtr(doc.StartAt),
		SubmissionCloseAt: utcPtr(doc.SubmissionCloseAt),
		VotingCloseAt:     utcPtr(doc.VotingCloseAt),
		Phase:             domain.Phase(doc.Phase),
		CreatedBy:         doc.CreatedBy,
		Subscribers:       subscribers,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

// parseObjectID は不正な ID を「存在しない」と同じ扱いにする。
func parseObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", domain.ErrNotFound, id)
	}
	return objectID, nil
}

// translate は mongo.ErrNoDocuments を domain.ErrNotFound に変換する。
func translate(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return err
}
