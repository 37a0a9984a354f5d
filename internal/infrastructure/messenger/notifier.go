package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/application"
)

// Failure は再試行しても届かなかった通知 1 件。
type Failure struct {
	Target   string
	Kind     string
	Payload  map[string]any
	Err      error
	Attempts int
}

// FailureStore persists undeliverable notifications.
type FailureStore interface {
	Save(ctx context.Context, failure Failure) error
}

// Config はメッセンジャーゲートウェイへの接続設定。
type Config struct {
	Endpoint         string
	Destination      string
	AdminDestination string
	Timeout          time.Duration
	Attempts         int
	RetryDelay       time.Duration
}

// Notifier はメッセンジャーゲートウェイ経由で通知を送る application.Notifier 実装。
// 送信は呼び出し元をブロックしないようバックグラウンドで行う。
type Notifier struct {
	cfg        Config
	httpClient *http.Client
	failures   FailureStore
	logger     *log.Logger
	wg         sync.WaitGroup
}

func NewNotifier(cfg Config, failures FailureStore, logger *log.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &Notifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		failures:   failures,
		logger:     logger,
	}
}

// Notify は通知の種類に応じて宛先とメッセージを決め、非同期に送信する。
func (n *Notifier) Notify(ctx context.Context, kind application.NotificationKind, payload map[string]any) {
	if strings.TrimSpace(n.cfg.Endpoint) == "" {
		return
	}
	destination, userID, text := n.route(kind, payload)
	if destination == "" || userID == "" || text == "" {
		return
	}

	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		err := n.sendWithRetry(ctx, destination, userID, text)
		if err == nil {
			return
		}
		n.logger.Printf("通知の送信に失敗 kind=%s destination=%s: %v", kind, destination, err)
		n.persistFailure(ctx, Failure{
			Target:   destination,
			Kind:     string(kind),
			Payload:  payload,
			Err:      err,
			Attempts: n.cfg.Attempts,
		})
	}()
}

// Wait は送信中の通知がすべて終わるまで待つ。シャットダウン時に呼ぶ。
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) route(kind application.NotificationKind, payload map[string]any) (destination, userID, text string) {
	switch kind {
	case application.NotifyPhotoModerated:
		return strings.TrimSpace(n.cfg.Destination), stringValue(payload, "ownerId"), buildModeratedMessage(payload)
	case application.NotifyPhotoUploaded:
		return strings.TrimSpace(n.cfg.AdminDestination), "admin", buildUploadedMessage(payload)
	case application.NotifyPhaseChanged:
		return strings.TrimSpace(n.cfg.AdminDestination), "admin", buildPhaseMessage(payload)
	}
	return "", "", ""
}

func buildUploadedMessage(payload map[string]any) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s** さんから新しい写真が投稿されました。\n", orDefault(stringValue(payload, "participant"), "参加者")))
	builder.WriteString(fmt.Sprintf("- コンテスト: %s\n", orDefault(stringValue(payload, "contestTitle"), stringValue(payload, "contestId"))))
	builder.WriteString(fmt.Sprintf("- 写真: %s\n", stringValue(payload, "photo")))
	if url := stringValue(payload, "imageUrl"); url != "" {
		builder.WriteString(fmt.Sprintf("[画像を確認](%s)\n", url))
	}
	return builder.String()
}

func buildModeratedMessage(payload map[string]any) string {
	title := orDefault(stringValue(payload, "contestTitle"), stringValue(payload, "contestId"))
	switch stringValue(payload, "state") {
	case "approved":
		return fmt.Sprintf("「%s」に投稿した写真が承認されました。投票期間をお楽しみに！", title)
	case "rejected":
		return fmt.Sprintf("「%s」に投稿した写真は掲載を見送りました。", title)
	}
	return ""
}

func buildPhaseMessage(payload map[string]any) string {
	return fmt.Sprintf("コンテスト %s のフェーズが %s から %s に変わりました。",
		stringValue(payload, "contestId"), stringValue(payload, "from"), stringValue(payload, "to"))
}

func (n *Notifier) sendWithRetry(ctx context.Context, destination, userID, text string) error {
	var lastErr error
	for i := 0; i < n.cfg.Attempts; i++ {
		if err := n.send(ctx, destination, userID, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if n.cfg.RetryDelay > 0 && i < n.cfg.Attempts-1 {
			time.Sleep(n.cfg.RetryDelay)
		}
	}
	return lastErr
}

func (n *Notifier) persistFailure(ctx context.Context, failure Failure) {
	if n.failures == nil {
		return
	}
	if err := n.failures.Save(ctx, failure); err != nil {
		n.logger.Printf("failed_notifications への保存に失敗: %v", err)
	}
}

func (n *Notifier) send(ctx context.Context, destination, userID, bodyText string) error {
	payload := map[string]any{
		"userId":      userID,
		"text":        bodyText,
		"destination": destination,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信用ペイロードの作成に失敗: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(n.cfg.Endpoint, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("メッセンジャー送信でエラーが発生: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func stringValue(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
