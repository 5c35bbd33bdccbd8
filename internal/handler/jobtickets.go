package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/ovenline/production-api/internal/middleware"
	"github.com/ovenline/production-api/internal/service"
)

// TicketServicer is the job ticket workflow the handler drives.
// Satisfied by *service.TicketService.
type TicketServicer interface {
	Get(ctx context.Context, ticketID uuid.UUID) (*service.TicketDetail, error)
	Progress(ctx context.Context, ticketID uuid.UUID, stepNumber int32, actor service.Actor, in service.ProgressInput) (*service.ProgressResult, error)
	AssignStep(ctx context.Context, ticketID uuid.UUID, stepNumber int32, userID uuid.UUID) (database.JobTicketStep, error)
	Cancel(ctx context.Context, ticketID uuid.UUID, actorID uuid.UUID, reason string) (database.JobTicket, error)
	ListUnassigned(ctx context.Context) ([]database.ListUnassignedStepsRow, error)
}

type JobTicketHandler struct {
	svc TicketServicer
}

func NewJobTicketHandler(svc TicketServicer) *JobTicketHandler {
	return &JobTicketHandler{svc: svc}
}

// RegisterStaffRoutes is mounted at /job-tickets for any authenticated staff.
func (h *JobTicketHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/{id}", h.Get)
	r.Post("/{id}/steps/{n}/progress", h.Progress)
}

// RegisterManagerRoutes is mounted at /job-tickets behind a manager role check.
func (h *JobTicketHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/unassigned-steps", h.ListUnassigned)
	r.Post("/{id}/steps/{n}/assign", h.Assign)
	r.Post("/{id}/cancel", h.Cancel)
}

// --- Request / Response types ---

type progressRequest struct {
	Notes         string `json:"notes"`
	QualityPassed *bool  `json:"quality_passed"`
}

type assignRequest struct {
	UserID string `json:"user_id"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type stepResponse struct {
	ID                 uuid.UUID  `json:"id"`
	StepNumber         int32      `json:"step_number"`
	StepName           string     `json:"step_name"`
	AssignedRole       string     `json:"assigned_role"`
	RequiredDepartment string     `json:"required_department,omitempty"`
	StepType           string     `json:"step_type"`
	AssignedUserID     *uuid.UUID `json:"assigned_user_id"`
	Status             string     `json:"status"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CompletedBy        *uuid.UUID `json:"completed_by,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	TimeSpentMinutes   *int32     `json:"time_spent_minutes,omitempty"`
	QualityCheckPassed *bool      `json:"quality_check_passed,omitempty"`
}

type transitionResponse struct {
	Kind      string     `json:"kind"`
	FromStep  int32      `json:"from_step"`
	ToStep    int32      `json:"to_step"`
	ActorID   *uuid.UUID `json:"actor_user_id,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type ticketResponse struct {
	ID                  uuid.UUID            `json:"id"`
	OrderID             uuid.UUID            `json:"order_id"`
	WorkflowID          uuid.UUID            `json:"workflow_id"`
	Number              string               `json:"job_ticket_number"`
	Priority            string               `json:"priority_level"`
	Status              string               `json:"current_status"`
	CurrentStep         int32                `json:"current_step_number"`
	StartedAt           *time.Time           `json:"started_at,omitempty"`
	EstimatedCompletion *time.Time           `json:"estimated_completion,omitempty"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
	ProductionCost      *string              `json:"total_production_cost,omitempty"`
	QualityNotes        string               `json:"quality_notes,omitempty"`
	Steps               []stepResponse       `json:"steps"`
	Transitions         []transitionResponse `json:"transitions,omitempty"`
}

type progressResponse struct {
	*service.ProgressResult
	Ticket ticketSummary `json:"job_ticket"`
}

type unassignedStepResponse struct {
	StepID             uuid.UUID `json:"step_id"`
	TicketID           uuid.UUID `json:"job_ticket_id"`
	TicketNumber       string    `json:"job_ticket_number"`
	Priority           string    `json:"priority_level"`
	StepNumber         int32     `json:"step_number"`
	StepName           string    `json:"step_name"`
	AssignedRole       string    `json:"assigned_role"`
	RequiredDepartment string    `json:"required_department,omitempty"`
}

func toStepResponse(s database.JobTicketStep) stepResponse {
	resp := stepResponse{
		ID:                 s.ID,
		StepNumber:         s.StepNumber,
		StepName:           s.StepName,
		AssignedRole:       s.AssignedRole,
		RequiredDepartment: optText(s.RequiredDepartment),
		StepType:           s.StepType,
		AssignedUserID:     optUUID(s.AssignedUserID),
		Status:             s.Status,
		StartedAt:          optTime(s.StartTimestamp),
		CompletedAt:        optTime(s.CompletionTimestamp),
		CompletedBy:        optUUID(s.CompletedByUserID),
		Notes:              optText(s.Notes),
	}
	if s.TimeSpentMinutes.Valid {
		resp.TimeSpentMinutes = &s.TimeSpentMinutes.Int32
	}
	if s.QualityCheckPassed.Valid {
		resp.QualityCheckPassed = &s.QualityCheckPassed.Bool
	}
	return resp
}

func toTicketResponse(d *service.TicketDetail) ticketResponse {
	t := d.Ticket
	resp := ticketResponse{
		ID:                  t.ID,
		OrderID:             t.OrderID,
		WorkflowID:          t.WorkflowID,
		Number:              t.JobTicketNumber,
		Priority:            t.PriorityLevel,
		Status:              t.CurrentStatus,
		CurrentStep:         t.CurrentStepNumber,
		StartedAt:           optTime(t.StartTimestamp),
		EstimatedCompletion: optTime(t.EstimatedCompletionTimestamp),
		CompletedAt:         optTime(t.ActualCompletionTimestamp),
		ProductionCost:      optNumeric(t.TotalProductionCost),
		QualityNotes:        optText(t.QualityNotes),
		Steps:               make([]stepResponse, len(d.Steps)),
	}
	for i, s := range d.Steps {
		resp.Steps[i] = toStepResponse(s)
	}
	for _, tr := range d.Transitions {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			Kind:      tr.Kind,
			FromStep:  tr.FromStep,
			ToStep:    tr.ToStep,
			ActorID:   optUUID(tr.ActorUserID),
			Reason:    optText(tr.Reason),
			CreatedAt: tr.CreatedAt,
		})
	}
	return resp
}

func stepNumberParam(w http.ResponseWriter, r *http.Request) (int32, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, "n"), 10, 32)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "invalid step number")
		return 0, false
	}
	return int32(n), true
}

// --- Handlers ---

func (h *JobTicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(r.Context(), ticketID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResponse(detail))
}

// Progress finishes a step on behalf of the caller. Role and department come
// from the token, never from the body.
func (h *JobTicketHandler) Progress(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	stepNumber, ok := stepNumberParam(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	actor := service.Actor{
		ID:         claims.UserID,
		Role:       enum.Role(claims.Role),
		Department: enum.Department(claims.Department),
	}

	result, err := h.svc.Progress(r.Context(), ticketID, stepNumber, actor, service.ProgressInput{
		Notes:         req.Notes,
		QualityPassed: req.QualityPassed,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{ProgressResult: result, Ticket: *toTicketSummary(result.Ticket)})
}

// Assign hands an unassigned step to a specific user.
func (h *JobTicketHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	stepNumber, ok := stepNumberParam(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	step, err := h.svc.AssignStep(r.Context(), ticketID, stepNumber, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(step))
}

func (h *JobTicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	var actorID uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		actorID = claims.UserID
	}

	ticket, err := h.svc.Cancel(r.Context(), ticketID, actorID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketSummary(ticket))
}

func (h *JobTicketHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListUnassigned(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]unassignedStepResponse, len(rows))
	for i, row := range rows {
		resp[i] = unassignedStepResponse{
			StepID:             row.ID,
			TicketID:           row.JobTicketID,
			TicketNumber:       row.JobTicketNumber,
			Priority:           row.PriorityLevel,
			StepNumber:         row.StepNumber,
			StepName:           row.StepName,
			AssignedRole:       row.AssignedRole,
			RequiredDepartment: optText(row.RequiredDepartment),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
