package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"support-agent/internal/usecase"
)

const (
	maxBodyBytes = 1 << 20

	// Identity headers set by the gateway in front of the local server.
	headerCallerID   = "X-Caller-Id"
	headerCallerRole = "X-Caller-Role"
)

type endpoint func(ctx context.Context, req request) events.APIGatewayProxyResponse

// NewRouter exposes the same endpoints as Handle on a chi router for running
// outside Lambda.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/message", h.serve(h.postMessage))
	r.Get("/history/{sessionID}", h.serve(h.getHistory))
	r.Get("/sessions", h.serve(h.getSessions))
	r.Get("/analytics", h.serve(h.getAnalytics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, failure(correlationIDFromHTTP(r), http.StatusNotFound, msgNotFound, codeNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, failure(correlationIDFromHTTP(r), http.StatusMethodNotAllowed, msgMethodNotAllow, codeMethodNotAllow))
	})
	return r
}

func (h *Handler) serve(fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{
			correlationID: correlationIDFromHTTP(r),
			caller:        callerFromHeaders(r.Header),
			sessionID:     chi.URLParam(r, "sessionID"),
			query:         flattenQuery(r),
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeResponse(w, failure(req.correlationID, http.StatusBadRequest, msgInvalidBody, string(usecase.ErrorInvalidInput)))
			return
		}
		req.body = string(body)

		writeResponse(w, fn(r.Context(), req))
	}
}

func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		slog.Error("failed to write response", "err", err)
	}
}

func correlationIDFromHTTP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(headerCorrelationID)); v != "" {
		return v
	}
	if v := middleware.GetReqID(r.Context()); v != "" {
		return v
	}
	return newCorrelationID()
}

func callerFromHeaders(header http.Header) Caller {
	return Caller{
		ID:    strings.TrimSpace(header.Get(headerCallerID)),
		Admin: strings.EqualFold(strings.TrimSpace(header.Get(headerCallerRole)), roleAdmin),
	}
}

func flattenQuery(r *http.Request) map[string]string {
	values := r.URL.Query()
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}
