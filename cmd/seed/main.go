package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	mongodoc "github.com/sngm3741/photo-contest/api/internal/infrastructure/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedOptions struct {
	envName         string
	participants    int
	voters          int
	dropCollections bool
	randomSeed      int64
}

// contestPlan はシード対象のコンテスト 1 件。offset は now からの開始日時のずれ。
type contestPlan struct {
	title  string
	theme  string
	offset time.Duration
}

var plans = []contestPlan{
	{title: "夏の夕暮れフォトコン", theme: "夕焼けと街", offset: 3 * 24 * time.Hour},
	{title: "春の桜フォトコンテスト", theme: "夜桜", offset: -2 * 24 * time.Hour},
	{title: "港町スナップ 2026", theme: "港と船", offset: -10 * 24 * time.Hour},
	{title: "冬の灯りコンテスト", theme: "イルミネーション", offset: -30 * 24 * time.Hour},
}

const phaseLength = 7 * 24 * time.Hour

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Printf("WARN: 環境変数ファイルを読み込めませんでした: %v", err)
	}

	cols := mongodoc.Collections{
		Contests:            envOrDefault("CONTEST_COLLECTION", "contests"),
		Submissions:         envOrDefault("SUBMISSION_COLLECTION", "submissions"),
		VotingStats:         envOrDefault("VOTING_STATS_COLLECTION", "voting_stats"),
		FailedNotifications: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
	}

	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "photo-contest")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		dropCollections(ctx, db, cols)
		log.Printf("既存コレクションを削除しました")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, cols); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	now := time.Now().UTC().Truncate(time.Minute)
	participants := users("participant", opts.participants)
	voters := append(users("voter", opts.voters), participants...)

	var contestDocs, submissionDocs, statsDocs []interface{}
	for _, plan := range plans {
		contest := buildContest(plan, now, participants)
		subs := buildSubmissions(rng, contest, participants)
		stats := castVotes(rng, contest, subs, voters)

		contestDocs = append(contestDocs, contest)
		for _, sub := range subs {
			submissionDocs = append(submissionDocs, sub)
		}
		for _, s := range stats {
			statsDocs = append(statsDocs, s)
		}
		log.Printf("contest %q phase=%s submissions=%d voters=%d", contest.Title, contest.Phase, len(subs), len(stats))
	}

	if err := insertMany(ctx, db.Collection(cols.Contests), contestDocs); err != nil {
		log.Fatalf("コンテストの挿入に失敗しました: %v", err)
	}
	if err := insertMany(ctx, db.Collection(cols.Submissions), submissionDocs); err != nil {
		log.Fatalf("応募の挿入に失敗しました: %v", err)
	}
	if err := insertMany(ctx, db.Collection(cols.VotingStats), statsDocs); err != nil {
		log.Fatalf("投票統計の挿入に失敗しました: %v", err)
	}

	log.Printf("Seed 完了: contests=%d submissions=%d votingStats=%d", len(contestDocs), len(submissionDocs), len(statsDocs))
	log.Printf("Mongo: %s / %s (env=%s)", mongoURI, dbName, opts.envName)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env ディレクトリ内の env ファイル名 (例: local, staging)")
	flag.IntVar(&opts.participants, "participants", 8, "コンテストごとの参加者数")
	flag.IntVar(&opts.voters, "voters", 12, "応募しない投票者の数")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.Parse()

	if opts.participants <= 0 {
		log.Fatal("participants は 1 以上を指定してください")
	}
	if opts.voters < 0 {
		opts.voters = 0
	}
	return opts
}

// loadEnvFiles は env/shared.env と env/<name>.env を順に読み込む。既存の環境変数は上書きしない。
func loadEnvFiles(envName string) error {
	base := filepath.Clean(filepath.Join("..", "env"))
	var files []string
	for _, name := range []string{"shared.env", envName + ".env"} {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%s に env ファイルがありません", base)
	}
	return godotenv.Load(files...)
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func dropCollections(ctx context.Context, db *mongo.Database, cols mongodoc.Collections) {
	for _, name := range []string{cols.Contests, cols.Submissions, cols.VotingStats, cols.FailedNotifications} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			log.Printf("WARN: コレクション %s の削除に失敗: %v", name, err)
		}
	}
}

func users(prefix string, count int) []string {
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, fmt.Sprintf("%s-%02d", prefix, i))
	}
	return ids
}

// buildContest は保存フェーズも now 時点で解決した値にする。
func buildContest(plan contestPlan, now time.Time, participants []string) mongodoc.ContestDocument {
	start := now.Add(plan.offset)
	closeAt := start.Add(phaseLength)
	voteAt := closeAt.Add(phaseLength)

	contest := domain.Contest{StartAt: &start, SubmissionCloseAt: &closeAt, VotingCloseAt: &voteAt}
	resolution, err := domain.ResolvePhase(contest, now)
	if err != nil {
		log.Fatalf("フェーズ解決に失敗しました: %v", err)
	}

	subscribers := []string{}
	if resolution.Phase != domain.PhasePending {
		subscribers = append(subscribers, participants...)
	}

	return mongodoc.ContestDocument{
		ID:                primitive.NewObjectID(),
		Title:             plan.title,
		Theme:             plan.theme,
		Description:       fmt.Sprintf("## %s\n\nテーマは **%s**。1 人 3 枚まで応募できます。", plan.title, plan.theme),
		CoverImageURL:     fmt.Sprintf("https://picsum.photos/seed/%s/1200/600", slug(plan.title)),
		StartAt:           &start,
		SubmissionCloseAt: &closeAt,
		VotingCloseAt:     &voteAt,
		Phase:             string(resolution.Phase),
		CreatedBy:         "seed-admin",
		Subscribers:       subscribers,
		CreatedAt:         start.Add(-7 * 24 * time.Hour),
		UpdatedAt:         now,
	}
}

func buildSubmissions(rng *rand.Rand, contest mongodoc.ContestDocument, participants []string) []mongodoc.SubmissionDocument {
	if domain.Phase(contest.Phase) == domain.PhasePending {
		return nil
	}

	reviewed := domain.Phase(contest.Phase) != domain.PhaseActive
	subs := make([]mongodoc.SubmissionDocument, 0, len(participants))
	for _, participant := range participants {
		slots := map[string]mongodoc.PhotoDocument{}
		photos := 1 + rng.Intn(domain.SlotCount)
		for slot := 1; slot <= photos; slot++ {
			state := domain.ModerationPending
			switch {
			case reviewed && rng.Intn(10) == 0:
				state = domain.ModerationRejected
			case reviewed || rng.Intn(2) == 0:
				state = domain.ModerationApproved
			}
			uploaded := contest.StartAt.Add(time.Duration(rng.Intn(6*24)) * time.Hour)
			id := uuid.NewString()
			slots[strconv.Itoa(slot)] = mongodoc.PhotoDocument{
				ID:              id,
				ImageURL:        fmt.Sprintf("https://picsum.photos/seed/%s/1024/768", id),
				ModerationState: string(state),
				Votes:           map[string]int{},
				UploadedAt:      uploaded,
			}
		}
		subs = append(subs, mongodoc.SubmissionDocument{
			ID:              primitive.NewObjectID(),
			ContestID:       contest.ID,
			ParticipantID:   participant,
			ParticipantName: participant,
			Slots:           slots,
			CreatedAt:       *contest.StartAt,
			UpdatedAt:       *contest.StartAt,
		})
	}
	return subs
}

// castVotes は投票期間以降のコンテストだけに票を入れ、投票統計と台帳を一致させる。自分の写真には投票しない。
func castVotes(rng *rand.Rand, contest mongodoc.ContestDocument, subs []mongodoc.SubmissionDocument, voters []string) []mongodoc.VotingStatsDocument {
	phase := domain.Phase(contest.Phase)
	if phase != domain.PhaseVoting && phase != domain.PhaseFinalized {
		return nil
	}

	stats := make([]mongodoc.VotingStatsDocument, 0, len(voters))
	for _, voter := range voters {
		doc := mongodoc.VotingStatsDocument{
			ID:          primitive.NewObjectID(),
			ContestID:   contest.ID,
			VoterID:     voter,
			VotedPhotos: []string{},
			LastVotedAt: *contest.SubmissionCloseAt,
		}
		for i := range subs {
			if subs[i].ParticipantID == voter {
				continue
			}
			for _, photo := range subs[i].Slots {
				if photo.ModerationState != string(domain.ModerationApproved) || rng.Intn(3) == 0 {
					continue
				}
				photo.Votes[voter] = domain.MinScore + rng.Intn(domain.MaxScore)
				doc.VotedPhotos = append(doc.VotedPhotos, photo.ID)
			}
		}
		doc.DistinctCount = len(doc.VotedPhotos)
		if doc.DistinctCount > 0 {
			stats = append(stats, doc)
		}
	}
	return stats
}

func slug(title string) string {
	return strings.NewReplacer(" ", "-", "　", "-").Replace(title)
}

func insertMany(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}
