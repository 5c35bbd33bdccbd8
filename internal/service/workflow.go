package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
)

// StepTemplate is one step definition of a workflow, stored as JSONB.
type StepTemplate struct {
	StepName           string `json:"step_name"`
	AssignedRole       string `json:"assigned_role"`
	RequiredDepartment string `json:"required_department,omitempty"`
	StepType           string `json:"step_type"`
	NextStepOverride   *int32 `json:"next_step_override,omitempty"`
}

// ParseSteps decodes and validates a workflow's step list. Every step must
// name a known role and, if given, a known department.
func ParseSteps(wf database.Workflow) ([]StepTemplate, error) {
	var steps []StepTemplate
	if err := json.Unmarshal(wf.WorkflowSteps, &steps); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidWorkflow, wf.WorkflowName, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidWorkflow, wf.WorkflowName)
	}
	for i, st := range steps {
		if st.StepName == "" {
			return nil, fmt.Errorf("%w: %s step %d has no name", ErrInvalidWorkflow, wf.WorkflowName, i+1)
		}
		if _, err := enum.ParseCapability(st.AssignedRole, st.RequiredDepartment); err != nil {
			return nil, fmt.Errorf("%w: %s step %d: %w", ErrInvalidWorkflow, wf.WorkflowName, i+1, err)
		}
		if st.StepType == "" {
			steps[i].StepType = "production"
		}
	}
	return steps, nil
}

// WorkflowSelector picks the production workflow for an order.
type WorkflowSelector struct {
	store WorkflowStore
	cfg   config.ProductionConfig
}

// NewWorkflowSelector creates a new WorkflowSelector.
func NewWorkflowSelector(store WorkflowStore, cfg config.ProductionConfig) *WorkflowSelector {
	return &WorkflowSelector{store: store, cfg: cfg}
}

// Select evaluates, first match wins: same-day delivery takes an active rush
// workflow, a total above the high-value threshold takes an active custom
// workflow, and everything else falls back to the active standard workflow.
func (s *WorkflowSelector) Select(ctx context.Context, deliveryDate, today time.Time, total decimal.Decimal) (database.Workflow, error) {
	if deliveryDate.Equal(today) {
		wf, ok, err := s.lookup(ctx, enum.WorkflowTypeRush)
		if err != nil || ok {
			return wf, err
		}
	}
	if total.GreaterThan(s.cfg.HighValueThreshold) {
		wf, ok, err := s.lookup(ctx, enum.WorkflowTypeCustom)
		if err != nil || ok {
			return wf, err
		}
	}
	wf, ok, err := s.lookup(ctx, enum.WorkflowTypeStandard)
	if err != nil {
		return database.Workflow{}, err
	}
	if !ok {
		return database.Workflow{}, ErrNoWorkflowAvailable
	}
	return wf, nil
}

func (s *WorkflowSelector) lookup(ctx context.Context, workflowType string) (database.Workflow, bool, error) {
	wf, err := s.store.GetActiveWorkflowByType(ctx, workflowType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Workflow{}, false, nil
		}
		return database.Workflow{}, false, fmt.Errorf("get %s workflow: %w", workflowType, err)
	}
	return wf, true, nil
}
