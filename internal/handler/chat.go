package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/intake"
	"go.uber.org/zap"
)

// ChatIntake turns a chat message into an order. Satisfied by *intake.Service.
type ChatIntake interface {
	Handle(ctx context.Context, msg intake.Message) (*intake.Outcome, error)
}

// ChatHandler is the webhook the chat gateway calls for every inbound
// merchant message. The gateway relays reply_message back to the sender.
type ChatHandler struct {
	intake ChatIntake
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(in ChatIntake) *ChatHandler {
	return &ChatHandler{intake: in}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/chat", h.Receive)
}

type chatRequest struct {
	MessageID   string `json:"message_id"`
	SenderPhone string `json:"sender_phone"`
	SenderName  string `json:"sender_name"`
	MessageText string `json:"message_text"`
}

type chatResponse struct {
	Status         string     `json:"status"`
	ReplyMessage   string     `json:"reply_message"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	TicketNumber   string     `json:"job_ticket_number,omitempty"`
	ItemsMatched   int        `json:"items_matched"`
	ItemsAmbiguous int        `json:"items_ambiguous"`
	ItemsUnmatched int        `json:"items_unmatched"`
}

// Receive always answers 200 with a reply for the merchant once the message
// is understood, even when the order itself is rejected.
func (h *ChatHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SenderPhone == "" {
		writeError(w, http.StatusBadRequest, "sender_phone is required")
		return
	}
	if req.MessageText == "" {
		writeError(w, http.StatusBadRequest, "message_text is required")
		return
	}

	out, err := h.intake.Handle(r.Context(), intake.Message{
		MessageID:   req.MessageID,
		SenderPhone: req.SenderPhone,
		Text:        req.MessageText,
	})
	if err != nil {
		if errors.Is(err, intake.ErrUnknownSender) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":         "unknown sender",
				"reply_message": "This number is not registered for ordering. Please contact our sales team.",
			})
			return
		}
		zap.L().Error("chat intake failed", zap.String("message_id", req.MessageID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":         "internal server error",
			"reply_message": "Sorry, something went wrong on our side. Please try again shortly.",
		})
		return
	}

	resp := chatResponse{
		Status:         out.Status,
		ReplyMessage:   out.Reply,
		TicketNumber:   out.TicketNumber,
		ItemsMatched:   out.Matched,
		ItemsAmbiguous: out.Ambiguous,
		ItemsUnmatched: out.Unmatched,
	}
	if out.OrderID != uuid.Nil {
		id := out.OrderID
		resp.OrderID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}
