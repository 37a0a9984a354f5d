package main

import (
	"context"
	"flag"
	"os"

	"github.com/sngm3741/photo-contest/api/internal/config"
	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/metrics"
	"github.com/sngm3741/photo-contest/api/internal/server"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// advance はフェーズ再解決を 1 回だけ実行する。cron など外部スケジューラから呼ぶ想定。
// 一部のコンテストが失敗した場合は終了コード 1 を返す。
func main() {
	ensureIndexes := flag.Bool("ensure-indexes", false, "実行前にインデックスを作成する")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+cfg.LifecycleInterval)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		cfg.ServerLog.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	db := client.Database(cfg.MongoDatabase)

	if *ensureIndexes {
		if err := server.EnsureIndexes(ctx, cfg, db); err != nil {
			cfg.ServerLog.Fatalf("インデックス作成に失敗しました: %v", err)
		}
	}

	deps, notifier := server.NewDependencies(cfg, db, metrics.New())
	transitions, runErr := contestapp.NewLifecycleService(deps).Advance(ctx)
	for _, t := range transitions {
		cfg.ServerLog.Printf("contest phase advanced id=%s from=%s to=%s", t.ContestID, t.From, t.To)
	}
	cfg.ServerLog.Printf("advance finished transitions=%d", len(transitions))

	notifier.Wait()
	if err := client.Disconnect(context.Background()); err != nil {
		cfg.ServerLog.Printf("MongoDB 切断時にエラー: %v", err)
	}
	if runErr != nil {
		cfg.ServerLog.Printf("advance failed: %v", runErr)
		os.Exit(1)
	}
}
