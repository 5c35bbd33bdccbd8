package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxTicketNumberRetries = 3

// ProcessOrderRequest is the normalized order an intake channel hands over.
type ProcessOrderRequest struct {
	MerchantID      uuid.UUID
	Items           []OrderLine
	DeliveryDate    *time.Time // nil means DefaultLeadDays from today
	SpecialNotes    string
	DeliveryAddress string // empty means the merchant's address
	SourceRef       string
	CatalogOrder    bool
	CatalogID       string
	CatalogTotal    *decimal.Decimal
}

// ProcessOrderResult is everything one successful order produced.
type ProcessOrderResult struct {
	Order   database.Order
	Items   []database.OrderItem
	Ticket  *TicketResult
	Pricing PricingBreakdown
	Waste   WasteSummary
}

// OrderConfirmedEvent is published once an order and its ticket commit.
type OrderConfirmedEvent struct {
	OrderID      uuid.UUID       `json:"order_id"`
	MerchantID   uuid.UUID       `json:"merchant_id"`
	TicketNumber string          `json:"ticket_number"`
	Total        decimal.Decimal `json:"total"`
	DeliveryDate string          `json:"delivery_date"`
	SourceRef    string          `json:"source_ref,omitempty"`
}

// OrderDetail is an order with its lines and ticket, if any.
type OrderDetail struct {
	Order  database.Order
	Items  []database.OrderItem
	Ticket *database.JobTicket
}

// StatusUpdateResult reports the side effects of a manual status change.
type StatusUpdateResult struct {
	Order           database.Order
	Ticket          *TicketResult
	TicketCancelled bool
}

// OrderService coordinates credit, pricing, inventory, waste matching,
// workflow selection and ticket creation for incoming orders.
type OrderService struct {
	deps Deps
}

// NewOrderService creates a new OrderService.
func NewOrderService(deps Deps) *OrderService {
	return &OrderService{deps: deps.withDefaults()}
}

// ProcessOrder validates and books an order atomically: either the order, its
// lines, ticket, steps and every stock and pickup adjustment commit together
// or nothing does. Retries up to maxTicketNumberRetries times when two
// concurrent orders draw the same ticket number.
func (s *OrderService) ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*ProcessOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxTicketNumberRetries; attempt++ {
		result, err := s.processOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isTicketNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) processOrderTx(ctx context.Context, req ProcessOrderRequest) (*ProcessOrderResult, error) {
	cfg := s.deps.Config
	today := civilDate(s.deps.Now(), cfg.Location)

	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)
	box := &outbox{}

	merchant, err := NewCreditGuard(store).Check(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	pricing, err := NewPricingResolver(store, s.deps.Cache, cfg, s.deps.Now).CalculateOrderTotal(ctx, merchant.ID, req.Items)
	if err != nil {
		return nil, err
	}
	lines := pricing.OrderLines()

	inventory, err := NewInventoryChecker(store).Check(ctx, lines)
	if err != nil {
		return nil, err
	}
	if err := inventory.Err(); err != nil {
		return nil, err
	}

	waste, err := NewWasteMatcher(store, cfg, s.deps.Now, s.deps.Logger).Match(ctx, merchant.ID, lines)
	if err != nil {
		return nil, err
	}

	deliveryDate := today.AddDate(0, 0, cfg.DefaultLeadDays)
	if req.DeliveryDate != nil {
		deliveryDate = civilDate(*req.DeliveryDate, cfg.Location)
	}
	if deliveryDate.Before(today) {
		return nil, fmt.Errorf("%w: %s", ErrDeliveryInPast, deliveryDate.Format(time.DateOnly))
	}
	address := req.DeliveryAddress
	if address == "" {
		address = merchant.LocationAddress
	}
	catalogTotal := pgtype.Numeric{}
	if req.CatalogTotal != nil {
		catalogTotal = decimalToNumeric(*req.CatalogTotal)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		MerchantID:            merchant.ID,
		SourceRef:             pgText(req.SourceRef),
		TotalAmount:           decimalToNumeric(pricing.Total),
		RequestedDeliveryDate: pgDate(deliveryDate),
		OrderStatus:           enum.OrderStatusConfirmed,
		SpecialNotes:          pgText(req.SpecialNotes),
		DeliveryAddress:       address,
		CatalogOrder:          req.CatalogOrder,
		CatalogID:             pgText(req.CatalogID),
		CatalogTotal:          catalogTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(pricing.Lines))
	for _, l := range pricing.Lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:         order.ID,
			RecipeID:        l.RecipeID,
			RecipeName:      l.RecipeName,
			Quantity:        l.Quantity,
			UnitPrice:       decimalToNumeric(l.UnitPrice),
			LineTotal:       decimalToNumeric(l.LineTotal),
			PriceTier:       l.Tier,
			DiscountApplied: l.DiscountApplied,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	ticket, err := s.startProduction(ctx, store, box, order, merchant, today)
	if err != nil {
		return nil, err
	}
	order.AssignedWorkflowID = pgUUID(ticket.Ticket.WorkflowID)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.deps.Logger.Info("order processed",
		zap.String("order_id", order.ID.String()),
		zap.String("merchant", merchant.BusinessName),
		zap.String("total", pricing.Total.StringFixed(2)),
		zap.String("ticket_number", ticket.Ticket.JobTicketNumber),
		zap.Int32("waste_prevented", waste.TotalPrevented))

	box.publish(SubjectOrderConfirmed, OrderConfirmedEvent{
		OrderID:      order.ID,
		MerchantID:   merchant.ID,
		TicketNumber: ticket.Ticket.JobTicketNumber,
		Total:        pricing.Total,
		DeliveryDate: deliveryDate.Format(time.DateOnly),
		SourceRef:    req.SourceRef,
	})
	if merchant.ChatPhone.Valid {
		box.notify(merchant.ChatPhone.String, orderConfirmationMessage(ticket.Ticket.JobTicketNumber, pricing, waste, deliveryDate))
	}
	box.flush(ctx, s.deps)

	return &ProcessOrderResult{
		Order:   order,
		Items:   items,
		Ticket:  ticket,
		Pricing: pricing,
		Waste:   waste,
	}, nil
}

// startProduction selects the workflow, records it on the order and creates
// the ticket.
func (s *OrderService) startProduction(ctx context.Context, store Store, box *outbox, order database.Order, merchant database.Merchant, today time.Time) (*TicketResult, error) {
	wf, err := NewWorkflowSelector(store, s.deps.Config).Select(ctx, order.RequestedDeliveryDate.Time, today, numericToDecimal(order.TotalAmount))
	if err != nil {
		return nil, err
	}
	if err := store.SetOrderWorkflow(ctx, database.SetOrderWorkflowParams{
		ID:                 order.ID,
		AssignedWorkflowID: pgUUID(wf.ID),
	}); err != nil {
		return nil, fmt.Errorf("set order workflow: %w", err)
	}
	return NewTicketEngine(store, s.deps.Config, s.deps.Now, s.deps.Logger, box).Create(ctx, order, merchant, wf)
}

func orderConfirmationMessage(ticketNumber string, pricing PricingBreakdown, waste WasteSummary, delivery time.Time) string {
	msg := fmt.Sprintf("Order confirmed. Job %s, total $%s, delivery %s.",
		ticketNumber, pricing.Total.StringFixed(2), delivery.Format(time.DateOnly))
	if waste.TotalPrevented > 0 {
		msg += fmt.Sprintf(" %d unit(s) of your existing stock were counted as sold.", waste.TotalPrevented)
	}
	return msg
}

// UpdateOrderStatus applies a manual status change. Confirming a pending
// order starts production; cancelling a pending or confirmed order cancels
// its open ticket. Every other change is rejected.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID) (*StatusUpdateResult, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)
	box := &outbox{}

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	result := &StatusUpdateResult{}
	switch {
	case status == enum.OrderStatusConfirmed && order.OrderStatus == enum.OrderStatusPending:
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: orderID, OrderStatus: status})
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		_, err = store.GetJobTicketByOrder(ctx, orderID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			merchant, err := store.GetMerchant(ctx, order.MerchantID)
			if err != nil {
				return nil, fmt.Errorf("get merchant: %w", err)
			}
			today := civilDate(s.deps.Now(), s.deps.Config.Location)
			result.Ticket, err = s.startProduction(ctx, store, box, order, merchant, today)
			if err != nil {
				return nil, err
			}
		case err != nil:
			return nil, fmt.Errorf("get job ticket: %w", err)
		}

	case status == enum.OrderStatusCancelled &&
		(order.OrderStatus == enum.OrderStatusPending || order.OrderStatus == enum.OrderStatusConfirmed):
		ticket, err := store.GetJobTicketByOrder(ctx, orderID)
		switch {
		case err == nil && ticket.CurrentStatus != enum.TicketStatusCompleted && ticket.CurrentStatus != enum.TicketStatusCancelled:
			engine := NewTicketEngine(store, s.deps.Config, s.deps.Now, s.deps.Logger, box)
			if _, err := engine.Cancel(ctx, ticket.ID, pgUUID(actorID), "order cancelled"); err != nil {
				return nil, err
			}
			result.TicketCancelled = true
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("get job ticket: %w", err)
		}
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: orderID, OrderStatus: status})
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: order %s cannot become %s", ErrInvalidStateTransition, order.OrderStatus, status)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	box.flush(ctx, s.deps)

	result.Order = order
	return result, nil
}

// GetOrder returns the order with its lines and ticket.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	detail := &OrderDetail{Order: order, Items: items}
	ticket, err := store.GetJobTicketByOrder(ctx, orderID)
	switch {
	case err == nil:
		detail.Ticket = &ticket
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get job ticket: %w", err)
	}
	return detail, nil
}
