package domain

// IntentCount is the number of exchanges resolved to one intent label.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// DailyCount is the number of exchanges created on one calendar date (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsSnapshot holds transcript-wide counters computed at query time.
type AnalyticsSnapshot struct {
	TotalMessages             int           `json:"totalMessages"`
	TotalSessions             int           `json:"totalSessions"`
	AuthenticatedMessageCount int           `json:"authenticatedMessageCount"`
	AnonymousMessageCount     int           `json:"anonymousMessageCount"`
	AverageMessagesPerSession float64       `json:"averageMessagesPerSession"`
	IntentFrequency           []IntentCount `json:"intentFrequency"`
	DailyCounts               []DailyCount  `json:"dailyCounts"`
}
