package api

import (
	"context"
	"net/http"

	service "github.com/okian/admitly/internal/app"
	"github.com/okian/admitly/internal/domain/describe"
)

// EstimateDependencies covers the synchronous estimator endpoints.
type EstimateDependencies interface {
	Estimate(ctx context.Context, req service.EstimateRequest) (service.Estimate, error)
	Describe(ctx context.Context, p float64, nApplicants int, locale describe.Locale) describe.Description
	Reference(ctx context.Context) service.ReferenceView
}

// estimateRequest mirrors the OpenAPI schema for POST /v1/estimates.
type estimateRequest struct {
	GPA         *float64 `json:"gpa" validate:"required,gte=0,lte=5"`
	SAT         *float64 `json:"sat_score" validate:"omitempty,gte=400,lte=1600"`
	ACT         *float64 `json:"act_score" validate:"omitempty,gte=1,lte=36"`
	WeightTest  *float64 `json:"weight_test" validate:"omitempty,gte=0,lte=1000"`
	WeightGPA   *float64 `json:"weight_gpa" validate:"omitempty,gte=0,lte=1000"`
	NApplicants int      `json:"n_applicants" validate:"omitempty,gte=1,lte=1000000"`
	Locale      string   `json:"locale" validate:"omitempty,locale"`
}

// descriptionRequest mirrors the OpenAPI schema for POST /v1/descriptions.
type descriptionRequest struct {
	Percentile  *float64 `json:"percentile" validate:"required,gte=0,lte=1"`
	NApplicants int      `json:"n_applicants" validate:"omitempty,gte=1,lte=1000000"`
	Locale      string   `json:"locale" validate:"omitempty,locale"`
}

// EstimatesHandler handles estimate, description and reference requests.
type EstimatesHandler struct {
	deps EstimateDependencies
}

// NewEstimatesHandler creates a new estimates handler.
func NewEstimatesHandler(deps EstimateDependencies) *EstimatesHandler {
	return &EstimatesHandler{deps: deps}
}

// HandlePostEstimate handles POST /v1/estimates requests.
func (h *EstimatesHandler) HandlePostEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_estimate"
	var req estimateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	est, err := h.deps.Estimate(r.Context(), service.EstimateRequest{
		GPA:         *req.GPA,
		SAT:         req.SAT,
		ACT:         req.ACT,
		WeightTest:  req.WeightTest,
		WeightGPA:   req.WeightGPA,
		NApplicants: req.NApplicants,
		Locale:      resolveLocale(r, req.Locale),
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// HandlePostDescription handles POST /v1/descriptions requests.
func (h *EstimatesHandler) HandlePostDescription(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_description"
	var req descriptionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	d := h.deps.Describe(r.Context(), *req.Percentile, req.NApplicants, resolveLocale(r, req.Locale))
	writeJSON(w, http.StatusOK, d)
}

// HandleGetReference handles GET /v1/reference requests.
func (h *EstimatesHandler) HandleGetReference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Reference(r.Context()))
}
