// Package aggregate derives session summaries and analytics from transcript
// exchanges. Every function is a pure view over its input.
package aggregate

import (
	"sort"

	"support-agent/internal/domain"
)

// DefaultMaxSessions caps Sessions when the caller passes a non-positive limit.
const DefaultMaxSessions = 100

// Sessions groups exchanges by session and returns the most recently active
// sessions first. A session's caller is taken from its earliest exchange.
func Sessions(exchanges []domain.Exchange, limit int) []domain.SessionSummary {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}

	groups := groupBySession(exchanges)
	summaries := make([]domain.SessionSummary, 0, len(groups))
	for sessionID, group := range groups {
		first, last := group[0], group[len(group)-1]
		summaries = append(summaries, domain.SessionSummary{
			SessionID:    sessionID,
			CallerID:     first.CallerID,
			MessageCount: len(group),
			LastMessage:  last.Message,
			LastResponse: last.Response,
			FirstSeenAt:  first.CreatedAt,
			LastActiveAt: last.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.LastActiveAt.Equal(b.LastActiveAt) {
			return a.LastActiveAt.After(b.LastActiveAt)
		}
		return a.SessionID < b.SessionID
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// groupBySession returns each session's exchanges in chronological order.
// Exchanges with equal timestamps keep their input order.
func groupBySession(exchanges []domain.Exchange) map[string][]domain.Exchange {
	groups := make(map[string][]domain.Exchange)
	for _, ex := range exchanges {
		groups[ex.SessionID] = append(groups[ex.SessionID], ex)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
	}
	return groups
}
