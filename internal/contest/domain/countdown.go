package domain

import "time"

// Countdown は画面のカウントダウン表示に使う、フェーズごとの目標時刻と残り時間。
type Countdown struct {
	Phase     Phase
	Label     string
	Target    *time.Time
	Running   bool
	Remaining time.Duration
	Days      int
	Hours     int
	Minutes   int
	Seconds   int
}

// CountdownFor は保存済みフェーズに応じて次の境界時刻までの残りを計算する。
// 境界を過ぎているのにフェーズが未更新の場合は Running=false で返す。
func CountdownFor(c Contest, now time.Time) Countdown {
	var (
		label  string
		target *time.Time
	)
	switch c.Phase {
	case PhasePending:
		label, target = "starts_in", c.StartAt
	case PhaseActive:
		label, target = "uploads_close_in", c.SubmissionCloseAt
	case PhaseVoting:
		label, target = "voting_closes_in", c.VotingCloseAt
	case PhaseFinalized:
		return Countdown{Phase: c.Phase, Label: "finished"}
	default:
		return Countdown{Phase: c.Phase, Label: "unknown"}
	}

	cd := Countdown{Phase: c.Phase, Label: label, Target: target}
	if target == nil || !target.After(now) {
		cd.Label = "advancing"
		return cd
	}

	remaining := target.Sub(now)
	cd.Running = true
	cd.Remaining = remaining
	cd.Days = int(remaining / (24 * time.Hour))
	cd.Hours = int(remaining % (24 * time.Hour) / time.Hour)
	cd.Minutes = int(remaining % time.Hour / time.Minute)
	cd.Seconds = int(remaining % time.Minute / time.Second)
	return cd
}
