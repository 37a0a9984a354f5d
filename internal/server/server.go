package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sngm3741/photo-contest/api/internal/config"
	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/infrastructure/imagehost"
	"github.com/sngm3741/photo-contest/api/internal/infrastructure/messenger"
	mongodoc "github.com/sngm3741/photo-contest/api/internal/infrastructure/mongo"
	adminhttp "github.com/sngm3741/photo-contest/api/internal/interfaces/http/admin"
	publichttp "github.com/sngm3741/photo-contest/api/internal/interfaces/http/public"
	"github.com/sngm3741/photo-contest/api/internal/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server は HTTP サーバーとフェーズ更新ループのライフサイクルを管理するコンポジションルート。
type Server struct {
	logger            *log.Logger
	client            *mongo.Client
	location          *time.Location
	metrics           *metrics.Metrics
	notifier          *messenger.Notifier
	contests          contestapp.ContestService
	submissions       contestapp.SubmissionService
	voting            contestapp.VotingService
	ranking           contestapp.RankingService
	lifecycle         contestapp.LifecycleService
	lifecycleInterval time.Duration
	jwtConfigs        []config.JWTConfig
	jwtAudience       string
	maxUploadBytes    int64
	addr              string
	allowedOrigins    []string
}

// Run はルーティングを組み立てて HTTP サーバーとフェーズ更新ループを起動し、終了シグナルまでブロックする。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		newLifecycleRunner(s.lifecycle, s.lifecycleInterval, s.logger).Run(runnerCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	stopRunner()
	<-runnerDone
	s.shutdown(context.Background())
	return nil
}

// routes は Public/Admin のハンドラとインフラ系エンドポイントを 1 つのルータにまとめる。
func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))
	router.Use(s.metrics.Middleware)

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:         s.logger,
		Contests:       s.contests,
		Submissions:    s.submissions,
		Voting:         s.voting,
		Ranking:        s.ranking,
		Location:       s.location,
		MaxUploadBytes: s.maxUploadBytes,
	})
	publicHandler.Register(router, s.authMiddleware, s.optionalAuthMiddleware)

	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:      s.logger,
		Contests:    s.contests,
		Submissions: s.submissions,
		Lifecycle:   s.lifecycle,
		Location:    s.location,
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		adminHandler.Register(r)
	})
	return router
}

// normaliseBaseURL は入力文字列をトリムして末尾スラッシュを削除したURLを返す。
func normaliseBaseURL(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.TrimRight(trimmed, "/")
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB への疎通だけを確認する。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// shutdown は送信中の通知を待ってから MongoDB クライアントを切断する。
// 通知の失敗記録が Mongo に書かれるため、順序を逆にしてはいけない。
func (s *Server) shutdown(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Wait()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("サーバーが異常終了: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}
}

// LoadLocation は表示用タイムゾーンを読み込み、失敗時は JST に固定する。
func LoadLocation(name string, logger *log.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Printf("タイムゾーン %s の読み込みに失敗: %v, JST を使用します", name, err)
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// NewDependencies は Mongo・画像ホスト・メッセンジャー・メトリクスを束ねたユースケース用の依存を組み立てる。
// API サーバーと単発の advance コマンドで共有する。
func NewDependencies(cfg config.Config, db *mongo.Database, recorder *metrics.Metrics) (contestapp.Dependencies, *messenger.Notifier) {
	notifier := messenger.NewNotifier(messenger.Config{
		Endpoint:         normaliseBaseURL(cfg.MessengerEndpoint),
		Destination:      cfg.MessengerDestination,
		AdminDestination: cfg.MessengerAdminDestination,
		Timeout:          cfg.MessengerTimeout,
	}, mongodoc.NewFailedNotificationRepository(db, cfg.FailedNotificationCollection), cfg.ServerLog)

	deps := contestapp.Dependencies{
		Contests:           mongodoc.NewContestRepository(db, cfg.ContestCollection),
		Submissions:        mongodoc.NewSubmissionRepository(db, cfg.SubmissionCollection),
		VotingStats:        mongodoc.NewVotingStatsRepository(db, cfg.VotingStatsCollection),
		Images:             imagehost.New(cfg.ImageHostUploadURL, cfg.ImageHostAPIKey, cfg.ImageHostTimeout, cfg.ServerLog),
		Notifier:           notifier,
		Metrics:            recorder,
		Clock:              contestapp.SystemClock{},
		Logger:             cfg.ServerLog,
		AdvanceConcurrency: cfg.LifecycleConcurrency,
	}
	return deps, notifier
}

// EnsureIndexes は Config のコレクション名でインデックスを作成する。
func EnsureIndexes(ctx context.Context, cfg config.Config, db *mongo.Database) error {
	return mongodoc.EnsureIndexes(ctx, db, mongodoc.Collections{
		Contests:            cfg.ContestCollection,
		Submissions:         cfg.SubmissionCollection,
		VotingStats:         cfg.VotingStatsCollection,
		FailedNotifications: cfg.FailedNotificationCollection,
	})
}

// New は Config と Mongo クライアントを受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, client *mongo.Client) *Server {
	recorder := metrics.New()
	deps, notifier := NewDependencies(cfg, client.Database(cfg.MongoDatabase), recorder)

	return &Server{
		logger:            cfg.ServerLog,
		client:            client,
		location:          LoadLocation(cfg.Timezone, cfg.ServerLog),
		metrics:           recorder,
		notifier:          notifier,
		contests:          contestapp.NewContestService(deps),
		submissions:       contestapp.NewSubmissionService(deps),
		voting:            contestapp.NewVotingService(deps),
		ranking:           contestapp.NewRankingService(deps),
		lifecycle:         contestapp.NewLifecycleService(deps),
		lifecycleInterval: cfg.LifecycleInterval,
		jwtConfigs:        append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:       cfg.JWTAudience,
		maxUploadBytes:    cfg.MaxUploadBytes,
		addr:              cfg.Addr,
		allowedOrigins:    append([]string(nil), cfg.AllowedOrigins...),
	}
}
