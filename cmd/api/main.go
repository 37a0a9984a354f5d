package main

import (
	"context"
	"log"

	"github.com/sngm3741/photo-contest/api/internal/config"
	"github.com/sngm3741/photo-contest/api/internal/server"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		cfg.ServerLog.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}

	// ユニークインデックスは 1 参加者 1 応募と重複カウント防止の前提。
	if err := server.EnsureIndexes(ctx, cfg, client.Database(cfg.MongoDatabase)); err != nil {
		cfg.ServerLog.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	app := server.New(cfg, client)
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}
