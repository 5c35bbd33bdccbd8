package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/middleware"
	"github.com/ovenline/production-api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer is the order workflow the handler drives.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	ProcessOrder(ctx context.Context, req service.ProcessOrderRequest) (*service.ProcessOrderResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID) (*service.StatusUpdateResult, error)
}

type OrderHandler struct {
	svc OrderServicer
	loc *time.Location
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, loc *time.Location) *OrderHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderHandler{svc: svc, loc: loc}
}

// RegisterRoutes is mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type orderLineRequest struct {
	RecipeID string `json:"recipe_id"`
	Quantity int32  `json:"quantity"`
}

type createOrderRequest struct {
	MerchantID      string             `json:"merchant_id"`
	Items           []orderLineRequest `json:"items"`
	DeliveryDate    string             `json:"delivery_date"`
	SpecialNotes    string             `json:"special_notes"`
	DeliveryAddress string             `json:"delivery_address"`
	SourceRef       string             `json:"source_ref"`
	CatalogOrder    bool               `json:"catalog_order"`
	CatalogID       string             `json:"catalog_id"`
	CatalogTotal    *decimal.Decimal   `json:"catalog_total"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID              uuid.UUID `json:"id"`
	RecipeID        uuid.UUID `json:"recipe_id"`
	RecipeName      string    `json:"recipe_name"`
	Quantity        int32     `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
	LineTotal       string    `json:"line_total"`
	PriceTier       string    `json:"price_tier"`
	DiscountApplied bool      `json:"discount_applied"`
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	MerchantID         uuid.UUID           `json:"merchant_id"`
	Status             string              `json:"status"`
	TotalAmount        string              `json:"total_amount"`
	OrderDate          time.Time           `json:"order_date"`
	DeliveryDate       *string             `json:"delivery_date"`
	DeliveryAddress    string              `json:"delivery_address"`
	SpecialNotes       string              `json:"special_notes,omitempty"`
	SourceRef          string              `json:"source_ref,omitempty"`
	AssignedWorkflowID *uuid.UUID          `json:"assigned_workflow_id,omitempty"`
	CatalogOrder       bool                `json:"catalog_order"`
	CatalogID          string              `json:"catalog_id,omitempty"`
	CatalogTotal       *string             `json:"catalog_total,omitempty"`
	Items              []orderItemResponse `json:"items,omitempty"`
	Ticket             *ticketSummary      `json:"job_ticket,omitempty"`
}

type ticketSummary struct {
	ID                  uuid.UUID  `json:"id"`
	Number              string     `json:"job_ticket_number"`
	Priority            string     `json:"priority_level"`
	Status              string     `json:"current_status"`
	CurrentStep         int32      `json:"current_step_number"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

type processOrderResponse struct {
	Order   orderResponse            `json:"order"`
	Pricing service.PricingBreakdown `json:"pricing"`
	Waste   service.WasteSummary     `json:"waste_prevention"`
}

type statusUpdateResponse struct {
	Order           orderResponse  `json:"order"`
	Ticket          *ticketSummary `json:"job_ticket,omitempty"`
	TicketCancelled bool           `json:"ticket_cancelled"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:                 o.ID,
		MerchantID:         o.MerchantID,
		Status:             o.OrderStatus,
		TotalAmount:        numericString(o.TotalAmount),
		OrderDate:          o.OrderDate,
		DeliveryDate:       dateString(o.RequestedDeliveryDate),
		DeliveryAddress:    o.DeliveryAddress,
		SpecialNotes:       optText(o.SpecialNotes),
		SourceRef:          optText(o.SourceRef),
		AssignedWorkflowID: optUUID(o.AssignedWorkflowID),
		CatalogOrder:       o.CatalogOrder,
		CatalogID:          optText(o.CatalogID),
		CatalogTotal:       optNumeric(o.CatalogTotal),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:              it.ID,
			RecipeID:        it.RecipeID,
			RecipeName:      it.RecipeName,
			Quantity:        it.Quantity,
			UnitPrice:       numericString(it.UnitPrice),
			LineTotal:       numericString(it.LineTotal),
			PriceTier:       it.PriceTier,
			DiscountApplied: it.DiscountApplied,
		})
	}
	return resp
}

func toTicketSummary(t database.JobTicket) *ticketSummary {
	return &ticketSummary{
		ID:                  t.ID,
		Number:              t.JobTicketNumber,
		Priority:            t.PriorityLevel,
		Status:              t.CurrentStatus,
		CurrentStep:         t.CurrentStepNumber,
		EstimatedCompletion: optTime(t.EstimatedCompletionTimestamp),
	}
}

// --- Handlers ---

// Create runs the full order workflow: credit, pricing, inventory, waste
// matching, workflow selection and ticket creation in one transaction.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant_id")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, service.ErrEmptyItems.Error())
		return
	}

	lines := make([]service.OrderLine, len(req.Items))
	for i, it := range req.Items {
		recipeID, err := uuid.Parse(it.RecipeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid recipe_id in items")
			return
		}
		lines[i] = service.OrderLine{RecipeID: recipeID, Quantity: it.Quantity}
	}

	in := service.ProcessOrderRequest{
		MerchantID:      merchantID,
		Items:           lines,
		SpecialNotes:    req.SpecialNotes,
		DeliveryAddress: req.DeliveryAddress,
		SourceRef:       req.SourceRef,
		CatalogOrder:    req.CatalogOrder,
		CatalogID:       req.CatalogID,
		CatalogTotal:    req.CatalogTotal,
	}
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "delivery_date must be YYYY-MM-DD")
			return
		}
		in.DeliveryDate = &d
	}

	result, err := h.svc.ProcessOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := processOrderResponse{
		Order:   toOrderResponse(result.Order, result.Items),
		Pricing: result.Pricing,
		Waste:   result.Waste,
	}
	if result.Ticket != nil {
		resp.Order.Ticket = toTicketSummary(result.Ticket.Ticket)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := toOrderResponse(detail.Order, detail.Items)
	if detail.Ticket != nil {
		resp.Ticket = toTicketSummary(*detail.Ticket)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus applies a manual confirm or cancel.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	var actorID uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		actorID = claims.UserID
	}

	result, err := h.svc.UpdateOrderStatus(r.Context(), orderID, req.Status, actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := statusUpdateResponse{
		Order:           toOrderResponse(result.Order, nil),
		TicketCancelled: result.TicketCancelled,
	}
	if result.Ticket != nil {
		resp.Ticket = toTicketSummary(result.Ticket.Ticket)
	}
	writeJSON(w, http.StatusOK, resp)
}
