package domain

import "time"

// Exchange is a single persisted message/response pair in a session transcript.
// Exchanges are written once and never updated.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionID"`
	CallerID  *string   `json:"callerID"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Intent    string    `json:"intent"`
	CreatedAt time.Time `json:"createdAt"`
}

// Authenticated reports whether the exchange was submitted by a known caller.
func (e Exchange) Authenticated() bool {
	return e.CallerID != nil
}

// SessionSummary is a derived view over the exchanges of one session.
type SessionSummary struct {
	SessionID    string    `json:"sessionID"`
	CallerID     *string   `json:"callerID"`
	MessageCount int       `json:"messageCount"`
	LastMessage  string    `json:"lastMessage"`
	LastResponse string    `json:"lastResponse"`
	FirstSeenAt  time.Time `json:"firstSeenAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
