package domain

import "sort"

// RankingSize はランキングに載せる上位件数。
const RankingSize = 10

// RankingEntry はランキング 1 行分。
type RankingEntry struct {
	Position   int
	Photo      PhotoRef
	ImageURL   string
	OwnerID    string
	OwnerName  string
	MeanScore  float64
	VoteCount  int
	TotalScore int
}

// ComputeRanking は承認済み写真だけを平均点の降順、同点は得票数の降順で並べ、上位 RankingSize 件を返す。
// それ以上の同点はストアの返却順のまま（安定ソート）。
func ComputeRanking(submissions []Submission) []RankingEntry {
	entries := make([]RankingEntry, 0)
	for _, submission := range submissions {
		for _, slot := range sortedSlots(submission.Slots) {
			photo := submission.Slots[slot]
			if photo.ModerationState != ModerationApproved {
				continue
			}
			total := 0
			for _, score := range photo.Votes {
				total += score
			}
			count := len(photo.Votes)
			mean := 0.0
			if count > 0 {
				mean = float64(total) / float64(count)
			}
			entries = append(entries, RankingEntry{
				Photo:      PhotoRef{SubmissionID: submission.ID, Slot: slot},
				ImageURL:   photo.ImageURL,
				OwnerID:    submission.ParticipantID,
				OwnerName:  submission.ParticipantName,
				MeanScore:  mean,
				VoteCount:  count,
				TotalScore: total,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MeanScore == entries[j].MeanScore {
			return entries[i].VoteCount > entries[j].VoteCount
		}
		return entries[i].MeanScore > entries[j].MeanScore
	})

	if len(entries) > RankingSize {
		entries = entries[:RankingSize]
	}
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// sortedSlots はマップ反復順に依存しないようスロット番号を昇順で返す。
func sortedSlots(slots map[int]Photo) []int {
	keys := make([]int, 0, len(slots))
	for slot := range slots {
		keys = append(keys, slot)
	}
	sort.Ints(keys)
	return keys
}
