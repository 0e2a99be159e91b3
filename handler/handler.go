package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"support-agent/internal/domain"
	"support-agent/internal/usecase"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	roleAdmin           = "admin"

	msgMissingFields   = "Message and sessionID are required"
	msgInvalidBody     = "Invalid request body"
	msgUnauthorized    = "Not authorized"
	msgAdminRequired   = "Admin access required"
	msgNotFound        = "Not found"
	msgMethodNotAllow  = "Method not allowed"
	msgInternal        = "Internal server error"
	codeUnauthorized   = "UNAUTHORIZED"
	codeForbidden      = "FORBIDDEN"
	codeNotFound       = "NOT_FOUND"
	codeMethodNotAllow = "METHOD_NOT_ALLOWED"
)

// UseCase is the support engine surface exposed over HTTP.
type UseCase interface {
	SubmitMessage(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
	Sessions(ctx context.Context, limit int) ([]domain.SessionSummary, error)
	Analytics(ctx context.Context) (domain.AnalyticsSnapshot, error)
}

// Caller is the identity attached to a request by the authorizer in front of
// this service. An empty ID means an anonymous caller.
type Caller struct {
	ID    string
	Admin bool
}

type Handler struct {
	uc       UseCase
	basePath string
}

type Option func(*Handler)

// WithBasePath strips a mount prefix (e.g. "/api/chatbot") from Lambda request paths.
func WithBasePath(prefix string) Option {
	return func(h *Handler) {
		h.basePath = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
		if h.basePath == "/" {
			h.basePath = ""
		}
	}
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type request struct {
	correlationID string
	caller        Caller
	body          string
	sessionID     string
	query         map[string]string
}

type messageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionID"`
}

type messageResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	MessageID string `json:"messageId"`
}

type historyResponse struct {
	Success  bool              `json:"success"`
	Count    int               `json:"count"`
	Messages []domain.Exchange `json:"messages"`
}

type sessionsResponse struct {
	Success  bool                    `json:"success"`
	Count    int                     `json:"count"`
	Sessions []domain.SessionSummary `json:"sessions"`
}

type analyticsResponse struct {
	Success   bool                     `json:"success"`
	Analytics domain.AnalyticsSnapshot `json:"analytics"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Handle is the API Gateway proxy entry point.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req := request{
		correlationID: correlationID(event.Headers),
		caller:        callerFromAuthorizer(event.RequestContext.Authorizer),
		body:          event.Body,
		query:         event.QueryStringParameters,
	}
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return failure(req.correlationID, http.StatusBadRequest, msgInvalidBody, string(usecase.ErrorInvalidInput)), nil
		}
		req.body = string(decoded)
	}

	path := strings.TrimSuffix(strings.TrimPrefix(event.Path, h.basePath), "/")
	method := event.HTTPMethod

	switch {
	case path == "/message":
		if method != http.MethodPost {
			return failure(req.correlationID, http.StatusMethodNotAllowed, msgMethodNotAllow, codeMethodNotAllow), nil
		}
		return h.postMessage(ctx, req), nil
	case strings.HasPrefix(path, "/history/"):
		if method != http.MethodGet {
			return failure(req.correlationID, http.StatusMethodNotAllowed, msgMethodNotAllow, codeMethodNotAllow), nil
		}
		sessionID, ok := historySessionID(path, event.PathParameters)
		if !ok {
			return failure(req.correlationID, http.StatusNotFound, msgNotFound, codeNotFound), nil
		}
		req.sessionID = sessionID
		return h.getHistory(ctx, req), nil
	case path == "/sessions":
		if method != http.MethodGet {
			return failure(req.correlationID, http.StatusMethodNotAllowed, msgMethodNotAllow, codeMethodNotAllow), nil
		}
		return h.getSessions(ctx, req), nil
	case path == "/analytics":
		if method != http.MethodGet {
			return failure(req.correlationID, http.StatusMethodNotAllowed, msgMethodNotAllow, codeMethodNotAllow), nil
		}
		return h.getAnalytics(ctx, req), nil
	default:
		return failure(req.correlationID, http.StatusNotFound, msgNotFound, codeNotFound), nil
	}
}

func (h *Handler) postMessage(ctx context.Context, req request) events.APIGatewayProxyResponse {
	var payload messageRequest
	if strings.TrimSpace(req.body) != "" {
		if err := json.Unmarshal([]byte(req.body), &payload); err != nil {
			return failure(req.correlationID, http.StatusBadRequest, msgInvalidBody, string(usecase.ErrorInvalidInput))
		}
	}

	var callerID *string
	if req.caller.ID != "" {
		id := req.caller.ID
		callerID = &id
	}

	out, err := h.uc.SubmitMessage(ctx, usecase.SubmitInput{
		Message:   payload.Message,
		SessionID: payload.SessionID,
		CallerID:  callerID,
	})
	if err != nil {
		return h.errorResponse(ctx, req.correlationID, err)
	}

	slog.InfoContext(ctx, "message classified",
		"correlation_id", req.correlationID,
		"session_id", payload.SessionID,
		"intent", out.Intent,
		"authenticated", callerID != nil,
	)
	return jsonResponse(req.correlationID, http.StatusOK, messageResponse{
		Success:   true,
		Response:  out.Response,
		Intent:    out.Intent,
		MessageID: out.MessageID,
	})
}

func (h *Handler) getHistory(ctx context.Context, req request) events.APIGatewayProxyResponse {
	exchanges, err := h.uc.History(ctx, req.sessionID, queryInt(req.query, "limit"))
	if err != nil {
		return h.errorResponse(ctx, req.correlationID, err)
	}
	return jsonResponse(req.correlationID, http.StatusOK, historyResponse{
		Success:  true,
		Count:    len(exchanges),
		Messages: exchanges,
	})
}

func (h *Handler) getSessions(ctx context.Context, req request) events.APIGatewayProxyResponse {
	if resp, ok := requireAdmin(req); !ok {
		return resp
	}
	sessions, err := h.uc.Sessions(ctx, queryInt(req.query, "limit"))
	if err != nil {
		return h.errorResponse(ctx, req.correlationID, err)
	}
	return jsonResponse(req.correlationID, http.StatusOK, sessionsResponse{
		Success:  true,
		Count:    len(sessions),
		Sessions: sessions,
	})
}

func (h *Handler) getAnalytics(ctx context.Context, req request) events.APIGatewayProxyResponse {
	if resp, ok := requireAdmin(req); !ok {
		return resp
	}
	snap, err := h.uc.Analytics(ctx)
	if err != nil {
		return h.errorResponse(ctx, req.correlationID, err)
	}
	return jsonResponse(req.correlationID, http.StatusOK, analyticsResponse{
		Success:   true,
		Analytics: snap,
	})
}

func requireAdmin(req request) (events.APIGatewayProxyResponse, bool) {
	if req.caller.ID == "" {
		return failure(req.correlationID, http.StatusUnauthorized, msgUnauthorized, codeUnauthorized), false
	}
	if !req.caller.Admin {
		return failure(req.correlationID, http.StatusForbidden, msgAdminRequired, codeForbidden), false
	}
	return events.APIGatewayProxyResponse{}, true
}

func (h *Handler) errorResponse(ctx context.Context, corrID string, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.ErrorContext(ctx, "unexpected error", "correlation_id", corrID, "err", err)
		return failure(corrID, http.StatusInternalServerError, msgInternal, string(usecase.ErrorInternal))
	}

	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		slog.WarnContext(ctx, "request rejected", "correlation_id", corrID, "reason", ucErr.Reason)
		return failure(corrID, http.StatusBadRequest, invalidInputMessage(ucErr.Reason), string(ucErr.Code))
	case usecase.ErrorPersistence:
		slog.ErrorContext(ctx, "transcript store failure", "correlation_id", corrID, "reason", ucErr.Reason, "err", ucErr.Err)
		detail := msgInternal
		if ucErr.Err != nil {
			detail = ucErr.Err.Error()
		}
		return failure(corrID, http.StatusInternalServerError, detail, string(ucErr.Code))
	default:
		slog.ErrorContext(ctx, "internal error", "correlation_id", corrID, "reason", ucErr.Reason, "err", ucErr.Err)
		return failure(corrID, http.StatusInternalServerError, msgInternal, string(usecase.ErrorInternal))
	}
}

func invalidInputMessage(reason string) string {
	switch reason {
	case usecase.ReasonMessageTooLong:
		return "Message is too long"
	case usecase.ReasonMissingSessionID:
		return "sessionID is required"
	default:
		return msgMissingFields
	}
}

func failure(corrID string, status int, message, code string) events.APIGatewayProxyResponse {
	return jsonResponse(corrID, status, errorResponse{Success: false, Message: message, Code: code})
}

func jsonResponse(corrID string, status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"message":"Internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerCorrelationID: corrID,
		},
		Body: string(body),
	}
}

// correlationID returns the caller-supplied correlation id, matching the header
// name case-insensitively, or a fresh one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, headerCorrelationID) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return newCorrelationID()
}

func callerFromAuthorizer(auth map[string]interface{}) Caller {
	id, _ := auth["principalId"].(string)
	role, _ := auth["role"].(string)
	return Caller{
		ID:    strings.TrimSpace(id),
		Admin: strings.EqualFold(strings.TrimSpace(role), roleAdmin),
	}
}

func historySessionID(path string, params map[string]string) (string, bool) {
	if id := strings.TrimSpace(params["sessionID"]); id != "" {
		return id, true
	}
	raw := strings.TrimPrefix(path, "/history/")
	if raw == "" || strings.Contains(raw, "/") {
		return "", false
	}
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

func queryInt(query map[string]string, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(query[key]))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
