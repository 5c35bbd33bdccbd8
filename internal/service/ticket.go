package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Progress outcomes.
const (
	ProgressStatusProgressed     = "progressed"
	ProgressStatusQualityFailure = "quality_failure"
	ProgressStatusCompleted      = "completed"
)

var priorityBuffer = map[string]float64{
	enum.PriorityUrgent: 0.8,
	enum.PriorityHigh:   1.0,
	enum.PriorityNormal: 1.2,
}

// Actor is the staff member performing a ticket operation.
type Actor struct {
	ID         uuid.UUID
	Role       enum.Role
	Department enum.Department
}

// ProgressInput is what a staff member reports when finishing a step.
// A nil QualityPassed means the step has no quality gate.
type ProgressInput struct {
	Notes         string
	QualityPassed *bool
}

// ProgressResult describes where the ticket went after a step finished.
type ProgressResult struct {
	Status         string             `json:"status"`
	Ticket         database.JobTicket `json:"-"`
	NextStep       int32              `json:"next_step,omitempty"`
	ReturnedToStep int32              `json:"returned_to_step,omitempty"`
	Assigned       bool               `json:"assigned"`
}

// TicketResult is a ticket with its materialized steps.
type TicketResult struct {
	Ticket database.JobTicket
	Steps  []database.JobTicketStep
}

// TicketCompletedEvent is published when production for an order is done.
type TicketCompletedEvent struct {
	TicketID       uuid.UUID           `json:"ticket_id"`
	TicketNumber   string              `json:"ticket_number"`
	OrderID        uuid.UUID           `json:"order_id"`
	MerchantID     uuid.UUID           `json:"merchant_id"`
	ProductionCost decimal.Decimal     `json:"production_cost"`
	OrderTotal     decimal.Decimal     `json:"order_total"`
	Items          []CompletedLineItem `json:"items"`
}

// CompletedLineItem is one delivered order line.
type CompletedLineItem struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	Quantity int32     `json:"quantity"`
}

// TicketEngine drives one ticket through its workflow steps. It works inside
// the caller's transaction; messages for assignees and downstream events are
// queued in its outbox and sent by the caller after commit.
type TicketEngine struct {
	store  TicketStore
	cfg    config.ProductionConfig
	now    func() time.Time
	logger *zap.Logger
	box    *outbox
}

// NewTicketEngine creates a TicketEngine on store. Notifications and events
// raised while it works are queued on box and sent by the caller after commit.
func NewTicketEngine(store TicketStore, cfg config.ProductionConfig, now func() time.Time, logger *zap.Logger, box *outbox) *TicketEngine {
	return &TicketEngine{store: store, cfg: cfg, now: now, logger: logger, box: box}
}

// Create materializes the workflow into steps for a confirmed order, assigns
// step 1 and starts the ticket.
func (e *TicketEngine) Create(ctx context.Context, order database.Order, merchant database.Merchant, wf database.Workflow) (*TicketResult, error) {
	templates, err := ParseSteps(wf)
	if err != nil {
		return nil, err
	}

	now := e.now()
	today := civilDate(now, e.cfg.Location)
	number, err := e.nextTicketNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	priority := e.priority(order, merchant, today)
	minutes := float64(wf.EstimatedTotalDurationMinutes) * priorityBuffer[priority]
	estimated := now.Add(time.Duration(minutes * float64(time.Minute)))

	ticket, err := e.store.CreateJobTicket(ctx, database.CreateJobTicketParams{
		OrderID:                      order.ID,
		WorkflowID:                   wf.ID,
		JobTicketNumber:              number,
		PriorityLevel:                priority,
		CurrentStatus:                enum.TicketStatusPending,
		EstimatedCompletionTimestamp: pgTime(estimated),
	})
	if err != nil {
		return nil, fmt.Errorf("create job ticket: %w", err)
	}

	for i, t := range templates {
		override := pgtype.Int4{}
		if t.NextStepOverride != nil {
			override = pgtype.Int4{Int32: *t.NextStepOverride, Valid: true}
		}
		if _, err := e.store.CreateJobTicketStep(ctx, database.CreateJobTicketStepParams{
			JobTicketID:        ticket.ID,
			StepNumber:         int32(i + 1),
			StepName:           t.StepName,
			AssignedRole:       t.AssignedRole,
			RequiredDepartment: pgText(t.RequiredDepartment),
			StepType:           t.StepType,
			NextStepOverride:   override,
		}); err != nil {
			return nil, fmt.Errorf("create step %d: %w", i+1, err)
		}
	}

	if _, _, err := e.AutoAssign(ctx, ticket, 1); err != nil {
		return nil, err
	}

	ticket, err = e.store.StartJobTicket(ctx, database.StartJobTicketParams{
		ID:             ticket.ID,
		StartTimestamp: pgTime(now),
	})
	if err != nil {
		return nil, fmt.Errorf("start job ticket: %w", err)
	}

	steps, err := e.store.ListJobTicketSteps(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}

	e.logger.Info("job ticket created",
		zap.String("ticket_number", ticket.JobTicketNumber),
		zap.String("priority", priority),
		zap.String("workflow", wf.WorkflowName),
		zap.Int("steps", len(steps)))
	return &TicketResult{Ticket: ticket, Steps: steps}, nil
}

func (e *TicketEngine) priority(order database.Order, merchant database.Merchant, today time.Time) string {
	if order.RequestedDeliveryDate.Valid && order.RequestedDeliveryDate.Time.Equal(today) {
		return enum.PriorityUrgent
	}
	if numericToDecimal(order.TotalAmount).GreaterThan(e.cfg.HighValueThreshold) ||
		merchant.AccountStatus == enum.MerchantStatusVIP {
		return enum.PriorityHigh
	}
	return enum.PriorityNormal
}

// nextTicketNumber returns JT{yymmdd}{seq}, one past the highest sequence
// issued today. Concurrent creators can collide; the unique index rejects
// the loser and the caller retries.
func (e *TicketEngine) nextTicketNumber(ctx context.Context, now time.Time) (string, error) {
	prefix := "JT" + now.In(e.cfg.Location).Format("060102")
	seq, err := e.store.MaxJobTicketSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("max job ticket sequence: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

// isTicketNumberConflict checks if the error is a unique constraint violation
// on the job ticket number (pgconn error code 23505).
func isTicketNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "job_tickets_job_ticket_number_key"
	}
	return false
}

// AutoAssign gives the step to the least-loaded active user holding its
// capability and activates it. When nobody qualifies the step stays pending
// and unassigned; that is logged as a configuration problem, not returned.
func (e *TicketEngine) AutoAssign(ctx context.Context, ticket database.JobTicket, stepNumber int32) (database.JobTicketStep, bool, error) {
	step, err := e.store.GetJobTicketStep(ctx, database.GetJobTicketStepParams{
		JobTicketID: ticket.ID,
		StepNumber:  stepNumber,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.JobTicketStep{}, false, ErrStepNotFound
		}
		return database.JobTicketStep{}, false, fmt.Errorf("get step %d: %w", stepNumber, err)
	}

	capability, err := enum.ParseCapability(step.AssignedRole, step.RequiredDepartment.String)
	if err != nil {
		e.reportUnassignable(ticket, step, step.AssignedRole, err.Error())
		return step, false, nil
	}

	userID, err := e.store.FindLeastLoadedUser(ctx, database.FindLeastLoadedUserParams{
		Role:       string(capability.Role),
		Department: pgText(string(capability.Department)),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			e.reportUnassignable(ticket, step, capability.String(), "no eligible active user")
			return step, false, nil
		}
		return database.JobTicketStep{}, false, fmt.Errorf("find assignee: %w", err)
	}

	step, err = e.activate(ctx, ticket, step, userID)
	if err != nil {
		return database.JobTicketStep{}, false, err
	}
	return step, true, nil
}

func (e *TicketEngine) activate(ctx context.Context, ticket database.JobTicket, step database.JobTicketStep, userID uuid.UUID) (database.JobTicketStep, error) {
	step, err := e.store.ActivateJobTicketStep(ctx, database.ActivateJobTicketStepParams{
		JobTicketID:    ticket.ID,
		StepNumber:     step.StepNumber,
		AssignedUserID: pgUUID(userID),
		StartTimestamp: pgTime(e.now()),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.JobTicketStep{}, fmt.Errorf("%w: step %d is not open", ErrInvalidStateTransition, step.StepNumber)
		}
		return database.JobTicketStep{}, fmt.Errorf("activate step %d: %w", step.StepNumber, err)
	}
	e.box.notify(userID.String(), fmt.Sprintf("New task: %s for job %s (%s priority)",
		step.StepName, ticket.JobTicketNumber, ticket.PriorityLevel))
	return step, nil
}

func (e *TicketEngine) reportUnassignable(ticket database.JobTicket, step database.JobTicketStep, capability, reason string) {
	cfgErr := &ConfigurationError{
		TicketNumber: ticket.JobTicketNumber,
		StepNumber:   step.StepNumber,
		Capability:   capability,
		Reason:       reason,
	}
	e.logger.Warn("step left unassigned", zap.Error(cfgErr))
}

// AssignStep hands the current step to a specific user. Used for steps
// auto-assignment could not place.
func (e *TicketEngine) AssignStep(ctx context.Context, ticketID uuid.UUID, stepNumber int32, userID uuid.UUID) (database.JobTicketStep, error) {
	ticket, err := e.lockOpenTicket(ctx, ticketID)
	if err != nil {
		return database.JobTicketStep{}, err
	}
	if stepNumber != ticket.CurrentStepNumber {
		return database.JobTicketStep{}, fmt.Errorf("%w: step %d is not the current step", ErrInvalidStateTransition, stepNumber)
	}
	step, err := e.store.GetJobTicketStep(ctx, database.GetJobTicketStepParams{JobTicketID: ticketID, StepNumber: stepNumber})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.JobTicketStep{}, ErrStepNotFound
		}
		return database.JobTicketStep{}, fmt.Errorf("get step: %w", err)
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.JobTicketStep{}, ErrUserNotFound
		}
		return database.JobTicketStep{}, fmt.Errorf("get user: %w", err)
	}
	capability, err := enum.ParseCapability(step.AssignedRole, step.RequiredDepartment.String)
	if err != nil {
		return database.JobTicketStep{}, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}
	if !capability.Allows(enum.Role(user.Role), enum.Department(user.Department.String)) {
		return database.JobTicketStep{}, fmt.Errorf("%w: step requires %s", ErrUnauthorized, capability)
	}
	return e.activate(ctx, ticket, step, userID)
}

func (e *TicketEngine) lockOpenTicket(ctx context.Context, ticketID uuid.UUID) (database.JobTicket, error) {
	ticket, err := e.store.GetJobTicketForUpdate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.JobTicket{}, ErrTicketNotFound
		}
		return database.JobTicket{}, fmt.Errorf("get job ticket: %w", err)
	}
	switch ticket.CurrentStatus {
	case enum.TicketStatusPending, enum.TicketStatusInProgress:
		return ticket, nil
	}
	return database.JobTicket{}, fmt.Errorf("%w: ticket is %s", ErrInvalidStateTransition, ticket.CurrentStatus)
}

// Progress completes the ticket's current step on behalf of actor and moves
// the ticket forward, back (on a failed quality check) or to completion.
func (e *TicketEngine) Progress(ctx context.Context, ticketID uuid.UUID, stepNumber int32, actor Actor, in ProgressInput) (*ProgressResult, error) {
	ticket, err := e.lockOpenTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if stepNumber != ticket.CurrentStepNumber {
		return nil, fmt.Errorf("%w: step %d is not the current step", ErrInvalidStateTransition, stepNumber)
	}
	step, err := e.store.GetJobTicketStep(ctx, database.GetJobTicketStepParams{JobTicketID: ticketID, StepNumber: stepNumber})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStepNotFound
		}
		return nil, fmt.Errorf("get step: %w", err)
	}
	if step.Status != enum.StepStatusPending && step.Status != enum.StepStatusActive {
		return nil, fmt.Errorf("%w: step %d is %s", ErrInvalidStateTransition, stepNumber, step.Status)
	}

	if enum.Role(step.AssignedRole) != actor.Role {
		return nil, fmt.Errorf("%w: step requires role %s", ErrUnauthorized, step.AssignedRole)
	}
	if step.AssignedUserID.Valid && uuid.UUID(step.AssignedUserID.Bytes) != actor.ID {
		return nil, fmt.Errorf("%w: step is assigned to another user", ErrUnauthorized)
	}

	now := e.now()
	spent := pgtype.Int4{}
	if step.StartTimestamp.Valid {
		spent = pgtype.Int4{Int32: int32(now.Sub(step.StartTimestamp.Time).Minutes()), Valid: true}
	}
	quality := pgtype.Bool{}
	if in.QualityPassed != nil {
		quality = pgtype.Bool{Bool: *in.QualityPassed, Valid: true}
	}
	if _, err := e.store.CompleteJobTicketStep(ctx, database.CompleteJobTicketStepParams{
		ID:                  step.ID,
		CompletionTimestamp: pgTime(now),
		CompletedByUserID:   pgUUID(actor.ID),
		Notes:               pgText(in.Notes),
		TimeSpentMinutes:    spent,
		QualityCheckPassed:  quality,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: step %d was already completed", ErrInvalidStateTransition, stepNumber)
		}
		return nil, fmt.Errorf("complete step: %w", err)
	}

	if in.QualityPassed != nil && !*in.QualityPassed {
		return e.rollback(ctx, ticket, stepNumber, actor, in.Notes)
	}

	steps, err := e.store.ListJobTicketSteps(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	total := int32(len(steps))

	next := stepNumber + 1
	if step.NextStepOverride.Valid {
		if step.NextStepOverride.Int32 > stepNumber {
			next = step.NextStepOverride.Int32
		} else {
			e.logger.Warn("backward step override ignored",
				zap.String("ticket_number", ticket.JobTicketNumber),
				zap.Int32("step", stepNumber),
				zap.Int32("override", step.NextStepOverride.Int32))
		}
	}

	jumpEnd := min(next-1, total)
	if jumpEnd > stepNumber {
		if err := e.store.SkipJobTicketSteps(ctx, database.SkipJobTicketStepsParams{
			JobTicketID: ticketID,
			FromStep:    stepNumber + 1,
			ToStep:      jumpEnd,
		}); err != nil {
			return nil, fmt.Errorf("skip steps: %w", err)
		}
	}

	if next > total {
		done, err := e.Complete(ctx, ticket, pgUUID(actor.ID))
		if err != nil {
			return nil, err
		}
		return &ProgressResult{Status: ProgressStatusCompleted, Ticket: done}, nil
	}

	ticket, err = e.store.MoveJobTicket(ctx, database.MoveJobTicketParams{
		ID:                ticketID,
		CurrentStepNumber: next,
		QualityNotes:      ticket.QualityNotes,
	})
	if err != nil {
		return nil, fmt.Errorf("move ticket: %w", err)
	}
	if err := e.recordTransition(ctx, ticketID, enum.TransitionAdvance, stepNumber, next, pgUUID(actor.ID), ""); err != nil {
		return nil, err
	}
	_, assigned, err := e.AutoAssign(ctx, ticket, next)
	if err != nil {
		return nil, err
	}
	return &ProgressResult{Status: ProgressStatusProgressed, Ticket: ticket, NextStep: next, Assigned: assigned}, nil
}

func (e *TicketEngine) rollback(ctx context.Context, ticket database.JobTicket, stepNumber int32, actor Actor, notes string) (*ProgressResult, error) {
	returnStep := max(1, stepNumber-1)
	if err := e.store.ResetJobTicketSteps(ctx, database.ResetJobTicketStepsParams{
		JobTicketID: ticket.ID,
		FromStep:    returnStep,
		ToStep:      stepNumber,
	}); err != nil {
		return nil, fmt.Errorf("reset steps: %w", err)
	}

	note := fmt.Sprintf("Quality failure at step %d: %s", stepNumber, notes)
	qualityNotes := note
	if ticket.QualityNotes.Valid && ticket.QualityNotes.String != "" {
		qualityNotes = strings.Join([]string{ticket.QualityNotes.String, note}, "\n")
	}
	moved, err := e.store.MoveJobTicket(ctx, database.MoveJobTicketParams{
		ID:                ticket.ID,
		CurrentStepNumber: returnStep,
		QualityNotes:      pgText(qualityNotes),
	})
	if err != nil {
		return nil, fmt.Errorf("move ticket: %w", err)
	}
	if err := e.recordTransition(ctx, ticket.ID, enum.TransitionRollback, stepNumber, returnStep, pgUUID(actor.ID), note); err != nil {
		return nil, err
	}
	e.logger.Info("quality rollback",
		zap.String("ticket_number", ticket.JobTicketNumber),
		zap.Int32("from_step", stepNumber),
		zap.Int32("to_step", returnStep))

	_, assigned, err := e.AutoAssign(ctx, moved, returnStep)
	if err != nil {
		return nil, err
	}
	return &ProgressResult{
		Status:         ProgressStatusQualityFailure,
		Ticket:         moved,
		ReturnedToStep: returnStep,
		Assigned:       assigned,
	}, nil
}

// Complete closes the ticket, prices its production from ingredient costs,
// completes the order, records the delivered stock at the merchant and
// queues the completion event.
func (e *TicketEngine) Complete(ctx context.Context, ticket database.JobTicket, actorID pgtype.UUID) (database.JobTicket, error) {
	order, err := e.store.GetOrderForUpdate(ctx, ticket.OrderID)
	if err != nil {
		return database.JobTicket{}, fmt.Errorf("get order: %w", err)
	}
	items, err := e.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return database.JobTicket{}, fmt.Errorf("list order items: %w", err)
	}
	steps, err := e.store.ListJobTicketSteps(ctx, ticket.ID)
	if err != nil {
		return database.JobTicket{}, fmt.Errorf("list steps: %w", err)
	}
	finished := int32(len(steps)) + 1

	cost := decimal.Zero
	for _, it := range items {
		unit, err := ingredientCost(ctx, e.store, it.RecipeID)
		if err != nil {
			return database.JobTicket{}, err
		}
		cost = cost.Add(unit.Mul(decimal.NewFromInt32(it.Quantity)))
	}

	now := e.now()
	done, err := e.store.CompleteJobTicket(ctx, database.CompleteJobTicketParams{
		ID:                        ticket.ID,
		CurrentStepNumber:         finished,
		ActualCompletionTimestamp: pgTime(now),
		TotalProductionCost:       decimalToNumeric(cost),
	})
	if err != nil {
		return database.JobTicket{}, fmt.Errorf("complete job ticket: %w", err)
	}
	if _, err := e.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:          order.ID,
		OrderStatus: enum.OrderStatusCompleted,
	}); err != nil {
		return database.JobTicket{}, fmt.Errorf("complete order: %w", err)
	}
	if err := e.recordTransition(ctx, ticket.ID, enum.TransitionComplete, ticket.CurrentStepNumber, finished, actorID, ""); err != nil {
		return database.JobTicket{}, err
	}

	today := civilDate(now, e.cfg.Location)
	event := TicketCompletedEvent{
		TicketID:       done.ID,
		TicketNumber:   done.JobTicketNumber,
		OrderID:        order.ID,
		MerchantID:     order.MerchantID,
		ProductionCost: cost,
		OrderTotal:     numericToDecimal(order.TotalAmount),
	}
	for _, it := range items {
		recipe, err := e.store.GetRecipe(ctx, it.RecipeID)
		if err != nil {
			return database.JobTicket{}, fmt.Errorf("get recipe: %w", err)
		}
		expiration := pgDate(today.AddDate(0, 0, int(recipe.ShelfLifeDays)))
		if _, err := e.store.CreateMerchantProductTracking(ctx, database.CreateMerchantProductTrackingParams{
			MerchantID:               order.MerchantID,
			RecipeID:                 it.RecipeID,
			JobTicketID:              pgUUID(done.ID),
			QuantityDelivered:        it.Quantity,
			DeliveryDate:             now,
			ExpirationDate:           expiration,
			CurrentEstimatedQuantity: it.Quantity,
			Status:                   freshness(today, expiration, e.cfg.NearExpiryDays),
		}); err != nil {
			return database.JobTicket{}, fmt.Errorf("create product tracking: %w", err)
		}
		event.Items = append(event.Items, CompletedLineItem{RecipeID: it.RecipeID, Quantity: it.Quantity})
	}
	e.box.publish(SubjectTicketCompleted, event)

	e.logger.Info("job ticket completed",
		zap.String("ticket_number", done.JobTicketNumber),
		zap.String("production_cost", cost.StringFixed(2)))
	return done, nil
}

// Cancel skips every open step, cancels the ticket and its order.
// Completed and already-cancelled tickets are rejected.
func (e *TicketEngine) Cancel(ctx context.Context, ticketID uuid.UUID, actorID pgtype.UUID, reason string) (database.JobTicket, error) {
	ticket, err := e.lockOpenTicket(ctx, ticketID)
	if err != nil {
		return database.JobTicket{}, err
	}
	if err := e.store.SkipOpenJobTicketSteps(ctx, ticketID); err != nil {
		return database.JobTicket{}, fmt.Errorf("skip open steps: %w", err)
	}
	cancelled, err := e.store.CancelJobTicket(ctx, database.CancelJobTicketParams{
		ID:                        ticketID,
		ActualCompletionTimestamp: pgTime(e.now()),
	})
	if err != nil {
		return database.JobTicket{}, fmt.Errorf("cancel job ticket: %w", err)
	}
	if _, err := e.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:          ticket.OrderID,
		OrderStatus: enum.OrderStatusCancelled,
	}); err != nil {
		return database.JobTicket{}, fmt.Errorf("cancel order: %w", err)
	}
	if err := e.recordTransition(ctx, ticketID, enum.TransitionCancel, ticket.CurrentStepNumber, ticket.CurrentStepNumber, actorID, reason); err != nil {
		return database.JobTicket{}, err
	}
	e.logger.Info("job ticket cancelled", zap.String("ticket_number", ticket.JobTicketNumber))
	return cancelled, nil
}

func (e *TicketEngine) recordTransition(ctx context.Context, ticketID uuid.UUID, kind string, from, to int32, actorID pgtype.UUID, reason string) error {
	if _, err := e.store.CreateJobTicketTransition(ctx, database.CreateJobTicketTransitionParams{
		JobTicketID: ticketID,
		Kind:        kind,
		FromStep:    from,
		ToStep:      to,
		ActorUserID: actorID,
		Reason:      pgText(reason),
	}); err != nil {
		return fmt.Errorf("record %s transition: %w", kind, err)
	}
	return nil
}
