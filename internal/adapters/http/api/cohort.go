package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/admitly/internal/domain/types"
)

// CohortDependencies covers cohort reads.
type CohortDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, studentID string) (Entry, error)
	Summary(ctx context.Context) types.Summary
}

// CohortHandler handles cohort requests.
type CohortHandler struct {
	deps     CohortDependencies
	maxLimit int
}

// NewCohortHandler creates a new cohort handler.
func NewCohortHandler(deps CohortDependencies, maxLimit int) *CohortHandler {
	return &CohortHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetTop handles GET /v1/cohort/top?limit=N requests.
func (h *CohortHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cohort_top"
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			WrapKind(op, ErrBadRequest, errors.New("limit must not exceed "+strconv.Itoa(h.maxLimit))))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetRank handles GET /v1/cohort/rank/{student_id} requests.
func (h *CohortHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cohort_rank"
	id := chi.URLParam(r, "student_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetSummary handles GET /v1/cohort/summary requests.
func (h *CohortHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Summary(r.Context()))
}
