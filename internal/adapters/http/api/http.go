// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/admitly/internal/app"
	"github.com/okian/admitly/internal/domain/describe"
	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/internal/domain/types"
	"github.com/okian/admitly/pkg/logger"
)

const (
	defaultMaxLimit = 1000
	maxBodyBytes    = 1 << 20
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	EstimateDependencies
	AssessmentDependencies
	CohortDependencies
}

// Entry mirrors the read shape returned by cohort queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	estimatesHandler   *EstimatesHandler
	assessmentsHandler *AssessmentsHandler
	cohortHandler      *CohortHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
}

// WithMaxLimit caps the limit accepted by GET /v1/cohort/top.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	var pinger Pinger
	if p, ok := statsProvider.(Pinger); ok {
		pinger = p
	}
	return &Server{
		healthHandler:      NewHealthHandler(pinger),
		statsHandler:       NewStatsHandler(statsProvider),
		estimatesHandler:   NewEstimatesHandler(deps),
		assessmentsHandler: NewAssessmentsHandler(deps),
		cohortHandler:      NewCohortHandler(deps, cfg.maxLimit),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/estimates", MetricsMiddleware(s.estimatesHandler.HandlePostEstimate, "estimates"))
		v1.Post("/descriptions", MetricsMiddleware(s.estimatesHandler.HandlePostDescription, "descriptions"))
		v1.Get("/reference", MetricsMiddleware(s.estimatesHandler.HandleGetReference, "reference"))

		v1.Post("/assessments", MetricsMiddleware(s.assessmentsHandler.HandlePostAssessment, "assessments"))
		v1.Get("/assessments/{id}", MetricsMiddleware(s.assessmentsHandler.HandleGetAssessment, "assessment"))
		v1.Get("/students/{student_id}/assessments", MetricsMiddleware(s.assessmentsHandler.HandleGetHistory, "student_history"))

		v1.Route("/cohort", func(c chi.Router) {
			c.Get("/top", MetricsMiddleware(s.cohortHandler.HandleGetTop, "cohort_top"))
			c.Get("/rank/{student_id}", MetricsMiddleware(s.cohortHandler.HandleGetRank, "cohort_rank"))
			c.Get("/summary", MetricsMiddleware(s.cohortHandler.HandleGetSummary, "cohort_summary"))
		})
	})
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// internalErrorBody is sent when a response cannot be encoded.
var internalErrorBody = []byte(`{"code":"internal_error","message":"internal error"}` + "\n")

// writeJSON marshals v before writing any header; an unencodable value
// becomes a 500 internal_error.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error(context.Background(), "encode response",
			logger.Int("status", status), logger.Error(err))
		status, body = http.StatusInternalServerError, internalErrorBody
	} else {
		body = append(body, '\n')
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = publicMessage(err)
		var ve *ValidationError
		if errors.As(err, &ve) {
			resp.Fields = ve.Fields
		}
	}
	writeJSON(w, status, resp)
}

// writeServiceError translates errors from the service layer.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput), errors.Is(err, service.ErrInvalid):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
	default:
		logger.Get().Error(context.Background(), "request failed", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
	}
}

// decode reads a single JSON object into v and validates it. Decoder
// errors are mapped to field-level messages that do not name Go types.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return validateRequest(v)
}

func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return &ValidationError{Fields: map[string]string{
			typeErr.Field: typeErr.Field + " has the wrong type",
		}}
	case errors.As(err, &tooBig):
		return ErrBodyTooLarge
	default:
		return ErrMalformedBody
	}
}

// resolveLocale prefers an explicit locale and falls back to Accept-Language.
func resolveLocale(r *http.Request, explicit string) describe.Locale {
	if explicit != "" {
		if l, err := describe.ParseLocale(explicit); err == nil {
			return l
		}
	}
	return describe.MatchLocale(r.Header.Get("Accept-Language"))
}
