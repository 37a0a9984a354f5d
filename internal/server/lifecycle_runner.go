package server

import (
	"context"
	"log"
	"time"

	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
)

// lifecycleRunner は一定間隔で Advance を呼び、時刻に追いついていないフェーズを保存し直す。
// 読み取り時の再解決があるので、この周期は通知と一覧の鮮度にだけ影響する。
type lifecycleRunner struct {
	lifecycle contestapp.LifecycleService
	interval  time.Duration
	logger    *log.Logger
}

func newLifecycleRunner(lifecycle contestapp.LifecycleService, interval time.Duration, logger *log.Logger) *lifecycleRunner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &lifecycleRunner{lifecycle: lifecycle, interval: interval, logger: logger}
}

// Run は起動直後に 1 回、その後 interval ごとに Advance を実行する。ctx がキャンセルされると戻る。
func (r *lifecycleRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *lifecycleRunner) tick(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	transitions, err := r.lifecycle.Advance(passCtx)
	if err != nil {
		r.logger.Printf("lifecycle advance failed: %v", err)
	}
	for _, t := range transitions {
		r.logger.Printf("contest phase advanced id=%s from=%s to=%s", t.ContestID, t.From, t.To)
	}
}
