// Package intake turns merchant chat messages into production orders.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/service"
	"go.uber.org/zap"
)

// ErrUnknownSender means the chat number belongs to no merchant.
var ErrUnknownSender = errors.New("sender is not a registered merchant")

// Store defines the lookups intake needs.
type Store interface {
	GetMerchantByChatPhone(ctx context.Context, chatPhone pgtype.Text) (database.Merchant, error)
	ListActiveRecipes(ctx context.Context) ([]database.Recipe, error)
}

// OrderProcessor places the order. Satisfied by *service.OrderService.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, req service.ProcessOrderRequest) (*service.ProcessOrderResult, error)
}

// Message is one inbound chat message.
type Message struct {
	MessageID   string
	SenderPhone string
	Text        string
}

// Outcome statuses.
const (
	StatusAccepted    = "accepted"
	StatusNeedsReview = "needs_review"
	StatusRejected    = "rejected"
)

// Outcome is what intake did with a message and the reply to send back.
type Outcome struct {
	Status       string
	Reply        string
	OrderID      uuid.UUID
	TicketNumber string
	Matched      int
	Ambiguous    int
	Unmatched    int
}

type Service struct {
	store  Store
	orders OrderProcessor
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// NewService creates a chat intake service that places orders through orders.
func NewService(store Store, orders OrderProcessor, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, orders: orders, now: time.Now, loc: loc, logger: logger}
}

// Handle parses the message, matches every line to a recipe and places the
// order. Lines that do not resolve to exactly one recipe hold the whole
// order back for the merchant to correct. Business rejections (credit,
// pricing, stock) come back as a rejected Outcome, not an error.
func (s *Service) Handle(ctx context.Context, msg Message) (*Outcome, error) {
	phone := strings.TrimSpace(msg.SenderPhone)
	merchant, err := s.store.GetMerchantByChatPhone(ctx, pgtype.Text{String: phone, Valid: phone != ""})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownSender
		}
		return nil, fmt.Errorf("lookup merchant: %w", err)
	}

	today := s.now().In(s.loc)
	parsed, err := ParseMessage(msg.Text, today)
	if err != nil {
		return &Outcome{
			Status: StatusRejected,
			Reply:  fmt.Sprintf("Sorry, we could not read that order: %s.\n\nExample:\ndeliver 12 mar\n10 sourdough\n24 croissants", err),
		}, nil
	}

	recipes, err := s.store.ListActiveRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	m := NewMatcher(catalog(recipes))

	out := &Outcome{}
	var lines []service.OrderLine
	var problems []string
	for _, item := range parsed.Items {
		res := m.Match(item.Description)
		switch res.Status {
		case Matched:
			out.Matched++
			lines = append(lines, service.OrderLine{RecipeID: res.Recipe.ID, RecipeName: res.Recipe.Name, Quantity: item.Quantity})
		case Ambiguous:
			out.Ambiguous++
			problems = append(problems, fmt.Sprintf("- %q could be: %s", item.Description, candidateNames(res.Candidates)))
		default:
			out.Unmatched++
			problems = append(problems, fmt.Sprintf("- %q is not on our list", item.Description))
		}
	}

	if len(problems) > 0 {
		out.Status = StatusNeedsReview
		out.Reply = "We could not place your order yet:\n" + strings.Join(problems, "\n") + "\nPlease resend with the exact product names."
		return out, nil
	}

	result, err := s.orders.ProcessOrder(ctx, service.ProcessOrderRequest{
		MerchantID:   merchant.ID,
		Items:        lines,
		DeliveryDate: parsed.DeliveryDate,
		SpecialNotes: parsed.Notes,
		SourceRef:    sourceRef(msg.MessageID),
	})
	if err != nil {
		if reason, ok := rejectionReason(err); ok {
			s.logger.Info("chat order rejected",
				zap.String("merchant_id", merchant.ID.String()), zap.Error(err))
			out.Status = StatusRejected
			out.Reply = "Sorry, we could not accept this order: " + reason
			return out, nil
		}
		return nil, err
	}

	out.Status = StatusAccepted
	out.OrderID = result.Order.ID
	if result.Ticket != nil {
		out.TicketNumber = result.Ticket.Ticket.JobTicketNumber
	}
	out.Reply = acceptedReply(result, parsed.Warnings)
	return out, nil
}

func catalog(recipes []database.Recipe) []Recipe {
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = Recipe{ID: r.ID, Name: r.RecipeName, Keywords: r.Keywords}
	}
	return out
}

func sourceRef(messageID string) string {
	if messageID == "" {
		return "chat"
	}
	return "chat:" + messageID
}

// rejectionReason maps business rule failures to merchant-facing text.
func rejectionReason(err error) (string, bool) {
	var credit *service.CreditExceededError
	var pricing *service.MissingPricingError
	var stock *service.InsufficientInventoryError
	switch {
	case errors.As(err, &credit):
		return "your account is over its credit limit. Please contact us about payment.", true
	case errors.As(err, &pricing):
		return fmt.Sprintf("no price is set up for %s.", strings.Join(pricing.Recipes, ", ")), true
	case errors.As(err, &stock):
		return "we do not have enough ingredients for this order on that date.", true
	case errors.Is(err, service.ErrDeliveryInPast):
		return "the delivery date has already passed.", true
	case errors.Is(err, service.ErrMerchantInactive):
		return "your account is not active.", true
	case errors.Is(err, service.ErrNoWorkflowAvailable):
		return "production is not taking orders right now.", true
	}
	return "", false
}

func acceptedReply(r *service.ProcessOrderResult, warnings []string) string {
	var sb strings.Builder
	sb.WriteString("Order received!\n")
	for _, l := range r.Pricing.Lines {
		fmt.Fprintf(&sb, "- %d x %s @ $%s = $%s\n", l.Quantity, l.RecipeName, l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&sb, "Total: $%s\n", r.Pricing.Total.StringFixed(2))
	if r.Order.RequestedDeliveryDate.Valid {
		fmt.Fprintf(&sb, "Delivery: %s", r.Order.RequestedDeliveryDate.Time.Format("Mon 2 Jan"))
	}
	for _, w := range warnings {
		sb.WriteString("\n" + w)
	}
	return sb.String()
}

func candidateNames(recipes []Recipe) string {
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
