package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"support-agent/internal/domain"
)

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func exchange(sessionID string, caller *string, intent string, at time.Time) domain.Exchange {
	return domain.Exchange{
		ID:        fmt.Sprintf("%s-%d", sessionID, at.UnixNano()),
		SessionID: sessionID,
		CallerID:  caller,
		Message:   "message at " + at.Format(time.RFC3339),
		Response:  "response at " + at.Format(time.RFC3339),
		Intent:    intent,
		CreatedAt: at,
	}
}

func TestSessions_GroupsAndOrders(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s2", nil, "pricing", base.Add(5*time.Minute)),
		exchange("s1", strPtr("alice"), "greeting", base),
		exchange("s1", strPtr("bob"), "payment", base.Add(2*time.Minute)),
		exchange("s1", nil, "returns", base.Add(time.Minute)),
	}

	got := Sessions(exchanges, 0)
	require.Len(t, got, 2)

	require.Equal(t, "s2", got[0].SessionID)
	require.Equal(t, 1, got[0].MessageCount)
	require.Nil(t, got[0].CallerID)

	s1 := got[1]
	require.Equal(t, "s1", s1.SessionID)
	require.Equal(t, 3, s1.MessageCount)
	require.Equal(t, "alice", *s1.CallerID)
	require.Equal(t, exchanges[2].Message, s1.LastMessage)
	require.Equal(t, exchanges[2].Response, s1.LastResponse)
	require.True(t, s1.FirstSeenAt.Equal(base))
	require.True(t, s1.LastActiveAt.Equal(base.Add(2*time.Minute)))
}

func TestSessions_CallerFixedAtSessionStart(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", strPtr("carol"), "pricing", base.Add(time.Minute)),
		exchange("s1", nil, "greeting", base),
	}

	got := Sessions(exchanges, 10)
	require.Len(t, got, 1)
	require.Nil(t, got[0].CallerID)
}

func TestSessions_CapsResults(t *testing.T) {
	var exchanges []domain.Exchange
	for i := 0; i < 150; i++ {
		exchanges = append(exchanges, exchange(fmt.Sprintf("s%03d", i), nil, "pricing", base.Add(time.Duration(i)*time.Second)))
	}

	require.Len(t, Sessions(exchanges, 0), DefaultMaxSessions)

	got := Sessions(exchanges, 3)
	require.Len(t, got, 3)
	require.Equal(t, []string{"s149", "s148", "s147"}, []string{got[0].SessionID, got[1].SessionID, got[2].SessionID})
}

func TestSessions_TiesBrokenBySessionID(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("b", nil, "pricing", base),
		exchange("a", nil, "pricing", base),
	}

	got := Sessions(exchanges, 10)
	require.Equal(t, "a", got[0].SessionID)
	require.Equal(t, "b", got[1].SessionID)
}

func TestSessions_Empty(t *testing.T) {
	got := Sessions(nil, 10)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSnapshot_Counters(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", strPtr("alice"), "greeting", base.Add(-time.Hour)),
		exchange("s1", strPtr("alice"), "pricing", base.Add(-30*time.Minute)),
		exchange("s2", nil, "pricing", base.Add(-48*time.Hour)),
	}

	snap := Snapshot(exchanges, base, time.UTC)
	require.Equal(t, 3, snap.TotalMessages)
	require.Equal(t, 2, snap.TotalSessions)
	require.Equal(t, 2, snap.AuthenticatedMessageCount)
	require.Equal(t, 1, snap.AnonymousMessageCount)
	require.Equal(t, 1.5, snap.AverageMessagesPerSession)
	require.Equal(t, []domain.IntentCount{
		{Intent: "pricing", Count: 2},
		{Intent: "greeting", Count: 1},
	}, snap.IntentFrequency)
}

func TestSnapshot_AverageRoundsToTwoDecimals(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", nil, "pricing", base),
		exchange("s2", nil, "pricing", base),
		exchange("s3", nil, "pricing", base),
		exchange("s3", nil, "pricing", base.Add(time.Second)),
	}

	require.Equal(t, 1.33, Snapshot(exchanges, base, nil).AverageMessagesPerSession)
}

func TestSnapshot_IntentTiesSortedByLabel(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", nil, "shipping", base),
		exchange("s1", nil, "default", base),
		exchange("s1", nil, "payment", base),
	}

	snap := Snapshot(exchanges, base, nil)
	require.Equal(t, []domain.IntentCount{
		{Intent: "default", Count: 1},
		{Intent: "payment", Count: 1},
		{Intent: "shipping", Count: 1},
	}, snap.IntentFrequency)
}

func TestSnapshot_DailyCountsWindow(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", nil, "pricing", base),
		exchange("s1", nil, "pricing", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)),
		exchange("s2", nil, "pricing", time.Date(2026, 10, 13, 23, 59, 0, 0, time.UTC)),
		exchange("s3", nil, "pricing", time.Date(2026, 10, 9, 8, 0, 0, 0, time.UTC)),
		exchange("s4", nil, "pricing", time.Date(2026, 10, 8, 23, 59, 59, 0, time.UTC)),
		exchange("s5", nil, "pricing", time.Date(2026, 10, 16, 0, 0, 1, 0, time.UTC)),
	}

	snap := Snapshot(exchanges, base, time.UTC)
	require.Equal(t, []domain.DailyCount{
		{Date: "2026-10-09", Count: 1},
		{Date: "2026-10-10", Count: 0},
		{Date: "2026-10-11", Count: 0},
		{Date: "2026-10-12", Count: 0},
		{Date: "2026-10-13", Count: 1},
		{Date: "2026-10-14", Count: 0},
		{Date: "2026-10-15", Count: 2},
	}, snap.DailyCounts)
	require.Equal(t, 6, snap.TotalMessages)
}

func TestSnapshot_DailyCountsUseLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 02:00 UTC on the 15th is still the 14th at UTC-5.
	exchanges := []domain.Exchange{exchange("s1", nil, "pricing", time.Date(2026, 10, 15, 2, 0, 0, 0, time.UTC))}

	snap := Snapshot(exchanges, base, loc)
	require.Equal(t, "2026-10-15", snap.DailyCounts[6].Date)
	require.Equal(t, 0, snap.DailyCounts[6].Count)
	require.Equal(t, domain.DailyCount{Date: "2026-10-14", Count: 1}, snap.DailyCounts[5])
}

func TestSnapshot_EmptyStore(t *testing.T) {
	snap := Snapshot(nil, base, nil)
	require.Equal(t, 0, snap.TotalMessages)
	require.Equal(t, 0, snap.TotalSessions)
	require.Equal(t, 0.0, snap.AverageMessagesPerSession)
	require.Empty(t, snap.IntentFrequency)
	require.Len(t, snap.DailyCounts, TrailingDays)
	for _, d := range snap.DailyCounts {
		require.Zero(t, d.Count)
	}
	require.Equal(t, "2026-10-15", snap.DailyCounts[TrailingDays-1].Date)
}

func TestSessionsAndSnapshotAgree(t *testing.T) {
	var exchanges []domain.Exchange
	for i := 0; i < 40; i++ {
		exchanges = append(exchanges, exchange(fmt.Sprintf("s%d", i%7), nil, "pricing", base.Add(time.Duration(i)*time.Minute)))
	}

	total := 0
	for _, s := range Sessions(exchanges, 0) {
		total += s.MessageCount
	}
	require.Equal(t, Snapshot(exchanges, base, nil).TotalMessages, total)
}

func TestSessions_IndependentOfInputOrder(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", strPtr("alice"), "greeting", base),
		exchange("s2", nil, "pricing", base.Add(time.Minute)),
		exchange("s1", nil, "payment", base.Add(2*time.Minute)),
		exchange("s3", strPtr("dan"), "returns", base.Add(3*time.Minute)),
		exchange("s2", nil, "shipping", base.Add(4*time.Minute)),
	}
	reversed := make([]domain.Exchange, len(exchanges))
	for i, ex := range exchanges {
		reversed[len(exchanges)-1-i] = ex
	}

	want := []domain.SessionSummary{
		{SessionID: "s2", MessageCount: 2, LastMessage: exchanges[4].Message, LastResponse: exchanges[4].Response, FirstSeenAt: base.Add(time.Minute), LastActiveAt: base.Add(4 * time.Minute)},
		{SessionID: "s3", CallerID: strPtr("dan"), MessageCount: 1, LastMessage: exchanges[3].Message, LastResponse: exchanges[3].Response, FirstSeenAt: base.Add(3 * time.Minute), LastActiveAt: base.Add(3 * time.Minute)},
		{SessionID: "s1", CallerID: strPtr("alice"), MessageCount: 2, LastMessage: exchanges[2].Message, LastResponse: exchanges[2].Response, FirstSeenAt: base, LastActiveAt: base.Add(2 * time.Minute)},
	}
	for name, in := range map[string][]domain.Exchange{"forward": exchanges, "reversed": reversed} {
		if diff := cmp.Diff(want, Sessions(in, 0)); diff != "" {
			t.Errorf("Sessions(%s) mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestSnapshot_FullShape(t *testing.T) {
	exchanges := []domain.Exchange{
		exchange("s1", strPtr("alice"), "greeting", base.Add(-26*time.Hour)),
		exchange("s1", strPtr("alice"), "payment", base.Add(-25*time.Hour)),
		exchange("s2", nil, "default", base.Add(-time.Hour)),
	}

	want := domain.AnalyticsSnapshot{
		TotalMessages:             3,
		TotalSessions:             2,
		AuthenticatedMessageCount: 2,
		AnonymousMessageCount:     1,
		AverageMessagesPerSession: 1.5,
		IntentFrequency: []domain.IntentCount{
			{Intent: "default", Count: 1},
			{Intent: "greeting", Count: 1},
			{Intent: "payment", Count: 1},
		},
		DailyCounts: []domain.DailyCount{
			{Date: "2026-10-09", Count: 0},
			{Date: "2026-10-10", Count: 0},
			{Date: "2026-10-11", Count: 0},
			{Date: "2026-10-12", Count: 0},
			{Date: "2026-10-13", Count: 0},
			{Date: "2026-10-14", Count: 2},
			{Date: "2026-10-15", Count: 1},
		},
	}
	if diff := cmp.Diff(want, Snapshot(exchanges, base, time.UTC)); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}
