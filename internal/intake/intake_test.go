package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockStore struct {
	merchants map[string]database.Merchant
	recipes   []database.Recipe
	recipeErr error
}

func (m *mockStore) GetMerchantByChatPhone(_ context.Context, phone pgtype.Text) (database.Merchant, error) {
	mer, ok := m.merchants[phone.String]
	if !ok {
		return database.Merchant{}, pgx.ErrNoRows
	}
	return mer, nil
}

func (m *mockStore) ListActiveRecipes(context.Context) ([]database.Recipe, error) {
	return m.recipes, m.recipeErr
}

type mockOrders struct {
	got    []service.ProcessOrderRequest
	result *service.ProcessOrderResult
	err    error
}

func (m *mockOrders) ProcessOrder(_ context.Context, req service.ProcessOrderRequest) (*service.ProcessOrderResult, error) {
	m.got = append(m.got, req)
	return m.result, m.err
}

type intakeFixture struct {
	svc       *Service
	store     *mockStore
	orders    *mockOrders
	merchant  database.Merchant
	sourdough database.Recipe
	croissant database.Recipe
}

func newIntakeFixture() *intakeFixture {
	merchant := database.Merchant{ID: uuid.New(), BusinessName: "Corner Cafe"}
	sourdough := database.Recipe{ID: uuid.New(), RecipeName: "Sourdough Loaf", Keywords: "sourdough,loaf", IsActive: true}
	croissant := database.Recipe{ID: uuid.New(), RecipeName: "Butter Croissant", Keywords: "croissant,butter", IsActive: true}
	almond := database.Recipe{ID: uuid.New(), RecipeName: "Almond Croissant", Keywords: "croissant,almond", IsActive: true}

	store := &mockStore{
		merchants: map[string]database.Merchant{"+15550001": merchant},
		recipes:   []database.Recipe{sourdough, croissant, almond},
	}
	orderID := uuid.New()
	orders := &mockOrders{result: &service.ProcessOrderResult{
		Order: database.Order{
			ID:                    orderID,
			RequestedDeliveryDate: pgtype.Date{Time: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), Valid: true},
		},
		Ticket: &service.TicketResult{Ticket: database.JobTicket{JobTicketNumber: "JT260311001"}},
		Pricing: service.PricingBreakdown{
			Total: decimal.RequireFromString("41.00"),
			Lines: []service.PricedLine{
				{RecipeName: "Sourdough Loaf", Quantity: 10, UnitPrice: decimal.RequireFromString("3.80"), LineTotal: decimal.RequireFromString("38.00")},
				{RecipeName: "Butter Croissant", Quantity: 3, UnitPrice: decimal.RequireFromString("1.00"), LineTotal: decimal.RequireFromString("3.00")},
			},
		},
	}}

	svc := NewService(store, orders, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return today }
	return &intakeFixture{svc: svc, store: store, orders: orders, merchant: merchant, sourdough: sourdough, croissant: croissant}
}

func TestHandle_Accepted(t *testing.T) {
	f := newIntakeFixture()

	out, err := f.svc.Handle(context.Background(), Message{
		MessageID:   "wamid.1",
		SenderPhone: " +15550001 ",
		Text:        "deliver 12 mar\n10 sourdough\n3 butter croissants\nnote: side door",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Status != StatusAccepted || out.TicketNumber != "JT260311001" || out.Matched != 2 {
		t.Fatalf("got %+v", out)
	}

	if len(f.orders.got) != 1 {
		t.Fatalf("ProcessOrder calls: %d", len(f.orders.got))
	}
	req := f.orders.got[0]
	if req.MerchantID != f.merchant.ID {
		t.Error("wrong merchant")
	}
	if req.SourceRef != "chat:wamid.1" {
		t.Errorf("source ref: %q", req.SourceRef)
	}
	if req.SpecialNotes != "side door" {
		t.Errorf("notes: %q", req.SpecialNotes)
	}
	if req.DeliveryDate == nil || req.DeliveryDate.Day() != 12 {
		t.Errorf("delivery: %v", req.DeliveryDate)
	}
	if len(req.Items) != 2 || req.Items[0].RecipeID != f.sourdough.ID || req.Items[0].Quantity != 10 ||
		req.Items[1].RecipeID != f.croissant.ID || req.Items[1].Quantity != 3 {
		t.Errorf("items: %+v", req.Items)
	}

	for _, want := range []string{"10 x Sourdough Loaf @ $3.80 = $38.00", "Total: $41.00", "Delivery: Thu 12 Mar"} {
		if !strings.Contains(out.Reply, want) {
			t.Errorf("reply missing %q:\n%s", want, out.Reply)
		}
	}
}

func TestHandle_UnknownSender(t *testing.T) {
	f := newIntakeFixture()
	_, err := f.svc.Handle(context.Background(), Message{SenderPhone: "+19999999", Text: "10 sourdough"})
	if !errors.Is(err, ErrUnknownSender) {
		t.Fatalf("expected ErrUnknownSender, got %v", err)
	}
}

func TestHandle_Unparseable(t *testing.T) {
	f := newIntakeFixture()
	out, err := f.svc.Handle(context.Background(), Message{SenderPhone: "+15550001", Text: "hello, are you open?"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Status != StatusRejected || !strings.Contains(out.Reply, "Example:") {
		t.Errorf("got %+v", out)
	}
	if len(f.orders.got) != 0 {
		t.Error("no order should be placed")
	}
}

func TestHandle_AmbiguousLinesHoldTheOrder(t *testing.T) {
	f := newIntakeFixture()
	out, err := f.svc.Handle(context.Background(), Message{
		SenderPhone: "+15550001",
		Text:        "10 sourdough\n4 croissants\n2 baguettes",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Status != StatusNeedsReview || out.Matched != 1 || out.Ambiguous != 1 || out.Unmatched != 1 {
		t.Fatalf("got %+v", out)
	}
	if !strings.Contains(out.Reply, `"croissants" could be: Butter Croissant, Almond Croissant`) {
		t.Errorf("reply:\n%s", out.Reply)
	}
	if !strings.Contains(out.Reply, `"baguettes" is not on our list`) {
		t.Errorf("reply:\n%s", out.Reply)
	}
	if len(f.orders.got) != 0 {
		t.Error("no order should be placed")
	}
}

func TestHandle_BusinessRejections(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"credit", fmt.Errorf("process order: %w", &service.CreditExceededError{}), "credit limit"},
		{"pricing", &service.MissingPricingError{Recipes: []string{"Sourdough Loaf"}}, "no price is set up for Sourdough Loaf"},
		{"stock", &service.InsufficientInventoryError{}, "enough ingredients"},
		{"past", service.ErrDeliveryInPast, "already passed"},
		{"inactive", service.ErrMerchantInactive, "not active"},
		{"workflow", service.ErrNoWorkflowAvailable, "not taking orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIntakeFixture()
			f.orders.result, f.orders.err = nil, tt.err

			out, err := f.svc.Handle(context.Background(), Message{SenderPhone: "+15550001", Text: "10 sourdough"})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if out.Status != StatusRejected || !strings.Contains(out.Reply, tt.want) {
				t.Errorf("got %+v", out)
			}
		})
	}
}

func TestHandle_InfrastructureErrorsPropagate(t *testing.T) {
	f := newIntakeFixture()
	boom := errors.New("connection reset")
	f.orders.result, f.orders.err = nil, boom

	if _, err := f.svc.Handle(context.Background(), Message{SenderPhone: "+15550001", Text: "10 sourdough"}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	f = newIntakeFixture()
	f.store.recipeErr = boom
	if _, err := f.svc.Handle(context.Background(), Message{SenderPhone: "+15550001", Text: "10 sourdough"}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
