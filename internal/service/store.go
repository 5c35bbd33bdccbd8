package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"go.uber.org/zap"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PricingStore defines the DB methods needed to resolve a merchant price.
// Satisfied by *database.Queries (and its WithTx variant).
type PricingStore interface {
	GetActiveMerchantPricing(ctx context.Context, arg database.GetActiveMerchantPricingParams) (database.MerchantPricing, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.ListRecipeIngredientsRow, error)
}

// PricingWriteStore adds the methods used to set and list merchant prices.
type PricingWriteStore interface {
	PricingStore
	GetMerchant(ctx context.Context, id uuid.UUID) (database.Merchant, error)
	ExpireMerchantPricing(ctx context.Context, arg database.ExpireMerchantPricingParams) error
	CreateMerchantPricing(ctx context.Context, arg database.CreateMerchantPricingParams) (database.MerchantPricing, error)
	ListActiveMerchantPricing(ctx context.Context, arg database.ListActiveMerchantPricingParams) ([]database.ListActiveMerchantPricingRow, error)
}

// InventoryStore defines the catalog reads of the availability check.
type InventoryStore interface {
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.ListRecipeIngredientsRow, error)
}

// CreditStore defines the DB methods needed to compute merchant exposure.
type CreditStore interface {
	GetMerchantForUpdate(ctx context.Context, id uuid.UUID) (database.Merchant, error)
	SumOutstandingInvoices(ctx context.Context, merchantID uuid.UUID) (pgtype.Numeric, error)
	SumPendingOrders(ctx context.Context, merchantID uuid.UUID) (pgtype.Numeric, error)
}

// WasteStore defines the DB methods of FIFO consumption and pickup shrinking.
type WasteStore interface {
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	ListConsumableTrackingForUpdate(ctx context.Context, arg database.ListConsumableTrackingForUpdateParams) ([]database.MerchantProductTracking, error)
	UpdateTrackingConsumption(ctx context.Context, arg database.UpdateTrackingConsumptionParams) error
	ListScheduledCollectionsForUpdate(ctx context.Context, arg database.ListScheduledCollectionsForUpdateParams) ([]database.WasteManagement, error)
	UpdateCollectionItems(ctx context.Context, arg database.UpdateCollectionItemsParams) error
	CancelCollection(ctx context.Context, id uuid.UUID) error
}

// WasteAlertStore defines the DB methods of alert generation and pickup completion.
type WasteAlertStore interface {
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	ListExpiringTracking(ctx context.Context, horizon pgtype.Date) ([]database.ListExpiringTrackingRow, error)
	UpdateTrackingStatus(ctx context.Context, arg database.UpdateTrackingStatusParams) error
	CountOpenCollections(ctx context.Context, arg database.CountOpenCollectionsParams) (int64, error)
	CreateWasteCollection(ctx context.Context, arg database.CreateWasteCollectionParams) (database.WasteManagement, error)
	GetWasteCollectionForUpdate(ctx context.Context, id uuid.UUID) (database.WasteManagement, error)
	CompleteWasteCollection(ctx context.Context, arg database.CompleteWasteCollectionParams) (database.WasteManagement, error)
	MarkCollectedTracking(ctx context.Context, arg database.MarkCollectedTrackingParams) error
}

// WorkflowStore defines the workflow template reads.
type WorkflowStore interface {
	GetActiveWorkflowByType(ctx context.Context, workflowType string) (database.Workflow, error)
	GetWorkflow(ctx context.Context, id uuid.UUID) (database.Workflow, error)
}

// TicketStore defines the DB methods of the job ticket state machine.
type TicketStore interface {
	MaxJobTicketSequence(ctx context.Context, dayPrefix string) (int32, error)
	CreateJobTicket(ctx context.Context, arg database.CreateJobTicketParams) (database.JobTicket, error)
	CreateJobTicketStep(ctx context.Context, arg database.CreateJobTicketStepParams) (database.JobTicketStep, error)
	CreateJobTicketTransition(ctx context.Context, arg database.CreateJobTicketTransitionParams) (database.JobTicketTransition, error)
	GetJobTicket(ctx context.Context, id uuid.UUID) (database.JobTicket, error)
	GetJobTicketByOrder(ctx context.Context, orderID uuid.UUID) (database.JobTicket, error)
	GetJobTicketForUpdate(ctx context.Context, id uuid.UUID) (database.JobTicket, error)
	GetJobTicketStep(ctx context.Context, arg database.GetJobTicketStepParams) (database.JobTicketStep, error)
	ListJobTicketSteps(ctx context.Context, jobTicketID uuid.UUID) ([]database.JobTicketStep, error)
	ListJobTicketTransitions(ctx context.Context, jobTicketID uuid.UUID) ([]database.JobTicketTransition, error)
	ListUnassignedSteps(ctx context.Context) ([]database.ListUnassignedStepsRow, error)
	ActivateJobTicketStep(ctx context.Context, arg database.ActivateJobTicketStepParams) (database.JobTicketStep, error)
	CompleteJobTicketStep(ctx context.Context, arg database.CompleteJobTicketStepParams) (database.JobTicketStep, error)
	ResetJobTicketSteps(ctx context.Context, arg database.ResetJobTicketStepsParams) error
	SkipJobTicketSteps(ctx context.Context, arg database.SkipJobTicketStepsParams) error
	SkipOpenJobTicketSteps(ctx context.Context, jobTicketID uuid.UUID) error
	StartJobTicket(ctx context.Context, arg database.StartJobTicketParams) (database.JobTicket, error)
	MoveJobTicket(ctx context.Context, arg database.MoveJobTicketParams) (database.JobTicket, error)
	CompleteJobTicket(ctx context.Context, arg database.CompleteJobTicketParams) (database.JobTicket, error)
	CancelJobTicket(ctx context.Context, arg database.CancelJobTicketParams) (database.JobTicket, error)
	FindLeastLoadedUser(ctx context.Context, arg database.FindLeastLoadedUserParams) (uuid.UUID, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.ListRecipeIngredientsRow, error)
	CreateMerchantProductTracking(ctx context.Context, arg database.CreateMerchantProductTrackingParams) (database.MerchantProductTracking, error)
}

// OrderStore defines the order rows the orchestrator writes and reads.
type OrderStore interface {
	GetMerchant(ctx context.Context, id uuid.UUID) (database.Merchant, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	SetOrderWorkflow(ctx context.Context, arg database.SetOrderWorkflowParams) error
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetJobTicketByOrder(ctx context.Context, orderID uuid.UUID) (database.JobTicket, error)
}

// Store is everything the services need inside one transaction.
// Satisfied by *database.Queries.
type Store interface {
	PricingWriteStore
	InventoryStore
	CreditStore
	WasteStore
	WasteAlertStore
	WorkflowStore
	TicketStore
	OrderStore
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// PriceCache is a read-through cache of resolved prices per (merchant, recipe).
type PriceCache interface {
	Get(ctx context.Context, merchantID, recipeID uuid.UUID) (ResolvedPrice, bool)
	Set(ctx context.Context, merchantID, recipeID uuid.UUID, p ResolvedPrice)
	Invalidate(ctx context.Context, merchantID, recipeID uuid.UUID) error
}

// Notifier delivers a human-readable message to a phone number or user id.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}

// EventPublisher hands domain events to downstream consumers (invoicing,
// inventory deduction).
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Event subjects published after commit.
const (
	SubjectOrderConfirmed      = "orders.confirmed"
	SubjectTicketCompleted     = "production.ticket.completed"
	SubjectCollectionCompleted = "waste.collection.completed"
)

// Deps are the collaborators shared by the services.
type Deps struct {
	Pool     TxBeginner
	NewStore NewStore
	Cache    PriceCache
	Events   EventPublisher
	Notifier Notifier
	Config   config.ProductionConfig
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = noCache{}
	}
	if d.Events == nil {
		d.Events = noEvents{}
	}
	if d.Notifier == nil {
		d.Notifier = noNotifier{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config.Location == nil {
		d.Config.Location = time.UTC
	}
	return d
}

type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID, uuid.UUID) (ResolvedPrice, bool) {
	return ResolvedPrice{}, false
}
func (noCache) Set(context.Context, uuid.UUID, uuid.UUID, ResolvedPrice) {}
func (noCache) Invalidate(context.Context, uuid.UUID, uuid.UUID) error   { return nil }

type noEvents struct{}

func (noEvents) Publish(context.Context, string, any) error { return nil }

type noNotifier struct{}

func (noNotifier) Notify(context.Context, string, string) error { return nil }

// outbox collects notifications and events raised inside a transaction so
// they are only sent once it commits.
type outbox struct {
	messages []outboxMessage
	events   []outboxEvent
}

type outboxMessage struct {
	recipient string
	text      string
}

type outboxEvent struct {
	subject string
	payload any
}

func (o *outbox) notify(recipient, text string) {
	o.messages = append(o.messages, outboxMessage{recipient: recipient, text: text})
}

func (o *outbox) publish(subject string, payload any) {
	o.events = append(o.events, outboxEvent{subject: subject, payload: payload})
}

// flush sends everything collected. Failures are logged and never returned.
func (o *outbox) flush(ctx context.Context, d Deps) {
	for _, m := range o.messages {
		if err := d.Notifier.Notify(ctx, m.recipient, m.text); err != nil {
			d.Logger.Warn("notify failed", zap.String("recipient", m.recipient), zap.Error(err))
		}
	}
	for _, e := range o.events {
		if err := d.Events.Publish(ctx, e.subject, e.payload); err != nil {
			d.Logger.Warn("publish failed", zap.String("subject", e.subject), zap.Error(err))
		}
	}
	o.messages = nil
	o.events = nil
}
