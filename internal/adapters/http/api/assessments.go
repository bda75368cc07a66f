package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/admitly/internal/app"
	"github.com/okian/admitly/internal/domain/model"
)

// AssessmentDependencies covers assessment submission and lookup.
type AssessmentDependencies interface {
	Submit(ctx context.Context, a model.Assessment) (service.SubmitResult, error)
	Assessment(ctx context.Context, id string) (model.ScoredAssessment, error)
	History(ctx context.Context, studentID string) ([]model.ScoredAssessment, error)
}

// assessmentRequest mirrors the OpenAPI schema for POST /v1/assessments.
type assessmentRequest struct {
	AssessmentID string   `json:"assessment_id" validate:"omitempty,max=128"`
	StudentID    string   `json:"student_id" validate:"required,max=128"`
	GPA          *float64 `json:"gpa" validate:"required,gte=0,lte=5"`
	SAT          *float64 `json:"sat_score" validate:"omitempty,gte=400,lte=1600"`
	ACT          *float64 `json:"act_score" validate:"omitempty,gte=1,lte=36"`
}

// AssessmentsHandler handles assessment requests.
type AssessmentsHandler struct {
	deps AssessmentDependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps AssessmentDependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

// HandlePostAssessment handles POST /v1/assessments requests.
func (h *AssessmentsHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	var req assessmentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Submit(r.Context(), model.Assessment{
		ID:        strings.TrimSpace(req.AssessmentID),
		StudentID: strings.TrimSpace(req.StudentID),
		GPA:       *req.GPA,
		SAT:       req.SAT,
		ACT:       req.ACT,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	status := http.StatusAccepted
	if res.Status == service.StatusDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// HandleGetAssessment handles GET /v1/assessments/{id} requests.
func (h *AssessmentsHandler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	a, err := h.deps.Assessment(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type historyResponse struct {
	StudentID   string                   `json:"student_id"`
	Assessments []model.ScoredAssessment `json:"assessments"`
}

// HandleGetHistory handles GET /v1/students/{student_id}/assessments requests.
func (h *AssessmentsHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	studentID := chi.URLParam(r, "student_id")
	out, err := h.deps.History(r.Context(), studentID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{StudentID: studentID, Assessments: out})
}
