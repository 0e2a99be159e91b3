package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"support-agent/internal/aggregate"
	"support-agent/internal/domain"
	"support-agent/internal/intent"
)

const (
	defaultMaxMessageLen = 1000
	defaultHistoryLimit  = 50
)

// Reasons attached to ErrorInvalidInput.
const (
	ReasonMissingFields    = "missing_fields"
	ReasonMessageTooLong   = "message_too_long"
	ReasonMissingSessionID = "missing_session_id"
)

type Classifier interface {
	Classify(message string) intent.Result
}

type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, callerID *string, message, response, intent string) (domain.Exchange, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
	ListAll(ctx context.Context) ([]domain.Exchange, error)
}

// Settings bounds request sizes and result sets. Zero values select defaults.
type Settings struct {
	MaxMessageLen int
	HistoryLimit  int
	MaxSessions   int
	Location      *time.Location
}

type SupportService struct {
	classifier Classifier
	store      TranscriptStore
	settings   Settings
}

type SubmitInput struct {
	Message   string
	SessionID string
	CallerID  *string
}

type SubmitOutput struct {
	Response  string
	Intent    string
	MessageID string
}

func NewSupportService(c Classifier, s TranscriptStore, settings Settings) (*SupportService, error) {
	if c == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: transcript store must not be nil")
	}
	if settings.MaxMessageLen <= 0 {
		settings.MaxMessageLen = defaultMaxMessageLen
	}
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = defaultHistoryLimit
	}
	if settings.MaxSessions <= 0 {
		settings.MaxSessions = aggregate.DefaultMaxSessions
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &SupportService{classifier: c, store: s, settings: settings}, nil
}

// SubmitMessage classifies a message and records the exchange. The response is
// only returned once the exchange is persisted.
func (s *SupportService) SubmitMessage(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	if strings.TrimSpace(in.Message) == "" || strings.TrimSpace(in.SessionID) == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, ReasonMissingFields, nil)
	}
	if utf8.RuneCountInString(in.Message) > s.settings.MaxMessageLen {
		return SubmitOutput{}, newError(ErrorInvalidInput, ReasonMessageTooLong, nil)
	}

	res := s.classifier.Classify(in.Message)

	ex, err := s.store.Append(ctx, in.SessionID, in.CallerID, in.Message, res.Response, res.Intent)
	if err != nil {
		return SubmitOutput{}, newError(ErrorPersistence, "transcript_append_error", err)
	}

	return SubmitOutput{
		Response:  ex.Response,
		Intent:    ex.Intent,
		MessageID: ex.ID,
	}, nil
}

// History returns a session transcript, oldest first.
func (s *SupportService) History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, newError(ErrorInvalidInput, ReasonMissingSessionID, nil)
	}
	if limit <= 0 {
		limit = s.settings.HistoryLimit
	}
	exchanges, err := s.store.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, newError(ErrorPersistence, "transcript_query_error", err)
	}
	return exchanges, nil
}

// Sessions summarises the most recently active sessions.
func (s *SupportService) Sessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = s.settings.MaxSessions
	}
	exchanges, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, newError(ErrorPersistence, "transcript_scan_error", err)
	}
	return aggregate.Sessions(exchanges, limit), nil
}

// Analytics computes a fresh snapshot over the whole transcript.
func (s *SupportService) Analytics(ctx context.Context) (domain.AnalyticsSnapshot, error) {
	exchanges, err := s.store.ListAll(ctx)
	if err != nil {
		return domain.AnalyticsSnapshot{}, newError(ErrorPersistence, "transcript_scan_error", err)
	}
	return aggregate.Snapshot(exchanges, now(), s.settings.Location), nil
}

var now = time.Now
