package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ovenline/production-api/internal/database"
)

// TicketDetail is a ticket with its steps and move history.
type TicketDetail struct {
	Ticket      database.JobTicket
	Steps       []database.JobTicketStep
	Transitions []database.JobTicketTransition
}

// TicketService runs job ticket operations in their own transactions.
type TicketService struct {
	deps Deps
}

// NewTicketService creates a new TicketService.
func NewTicketService(deps Deps) *TicketService {
	return &TicketService{deps: deps.withDefaults()}
}

// inTx runs fn with an engine bound to a fresh transaction, commits, then
// sends whatever the engine queued.
func (s *TicketService) inTx(ctx context.Context, fn func(e *TicketEngine) error) error {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	box := &outbox{}
	engine := NewTicketEngine(s.deps.NewStore(tx), s.deps.Config, s.deps.Now, s.deps.Logger, box)
	if err := fn(engine); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	box.flush(ctx, s.deps)
	return nil
}

// Progress completes a step for the acting user.
func (s *TicketService) Progress(ctx context.Context, ticketID uuid.UUID, stepNumber int32, actor Actor, in ProgressInput) (*ProgressResult, error) {
	var result *ProgressResult
	err := s.inTx(ctx, func(e *TicketEngine) error {
		var err error
		result, err = e.Progress(ctx, ticketID, stepNumber, actor, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AssignStep manually assigns the ticket's current step.
func (s *TicketService) AssignStep(ctx context.Context, ticketID uuid.UUID, stepNumber int32, userID uuid.UUID) (database.JobTicketStep, error) {
	var step database.JobTicketStep
	err := s.inTx(ctx, func(e *TicketEngine) error {
		var err error
		step, err = e.AssignStep(ctx, ticketID, stepNumber, userID)
		return err
	})
	return step, err
}

// Cancel cancels the ticket and its order.
func (s *TicketService) Cancel(ctx context.Context, ticketID uuid.UUID, actorID uuid.UUID, reason string) (database.JobTicket, error) {
	var ticket database.JobTicket
	err := s.inTx(ctx, func(e *TicketEngine) error {
		var err error
		ticket, err = e.Cancel(ctx, ticketID, pgUUID(actorID), reason)
		return err
	})
	return ticket, err
}

// Get returns the ticket with steps and transitions.
func (s *TicketService) Get(ctx context.Context, ticketID uuid.UUID) (*TicketDetail, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)
	ticket, err := store.GetJobTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("get job ticket: %w", err)
	}
	steps, err := store.ListJobTicketSteps(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	transitions, err := store.ListJobTicketTransitions(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return &TicketDetail{Ticket: ticket, Steps: steps, Transitions: transitions}, nil
}

// ListUnassigned returns current steps of open tickets that have no assignee.
func (s *TicketService) ListUnassigned(ctx context.Context) ([]database.ListUnassignedStepsRow, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := s.deps.NewStore(tx).ListUnassignedSteps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned steps: %w", err)
	}
	return rows, nil
}
