package aggregate

import (
	"math"
	"sort"
	"time"

	"support-agent/internal/domain"
)

// TrailingDays is the length of the daily histogram window, today included.
const TrailingDays = 7

const dateLayout = "2006-01-02"

// Snapshot computes transcript-wide counters as of now. Calendar days are
// evaluated in loc; a nil loc means UTC.
func Snapshot(exchanges []domain.Exchange, now time.Time, loc *time.Location) domain.AnalyticsSnapshot {
	if loc == nil {
		loc = time.UTC
	}

	sessions := make(map[string]struct{})
	intents := make(map[string]int)
	authenticated := 0
	for _, ex := range exchanges {
		sessions[ex.SessionID] = struct{}{}
		intents[ex.Intent]++
		if ex.Authenticated() {
			authenticated++
		}
	}

	total := len(exchanges)
	return domain.AnalyticsSnapshot{
		TotalMessages:             total,
		TotalSessions:             len(sessions),
		AuthenticatedMessageCount: authenticated,
		AnonymousMessageCount:     total - authenticated,
		AverageMessagesPerSession: averagePerSession(total, len(sessions)),
		IntentFrequency:           intentFrequency(intents),
		DailyCounts:               dailyCounts(exchanges, now, loc),
	}
}

func averagePerSession(messages, sessions int) float64 {
	if sessions == 0 {
		return 0
	}
	return math.Round(float64(messages)/float64(sessions)*100) / 100
}

func intentFrequency(counts map[string]int) []domain.IntentCount {
	out := make([]domain.IntentCount, 0, len(counts))
	for intent, n := range counts {
		out = append(out, domain.IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}

// dailyCounts buckets exchanges into the TrailingDays calendar days ending
// on now's date, oldest first, including empty days.
func dailyCounts(exchanges []domain.Exchange, now time.Time, loc *time.Location) []domain.DailyCount {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	out := make([]domain.DailyCount, TrailingDays)
	index := make(map[string]int, TrailingDays)
	for i := 0; i < TrailingDays; i++ {
		date := today.AddDate(0, 0, i-(TrailingDays-1)).Format(dateLayout)
		out[i] = domain.DailyCount{Date: date}
		index[date] = i
	}
	for _, ex := range exchanges {
		if i, ok := index[ex.CreatedAt.In(loc).Format(dateLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}
