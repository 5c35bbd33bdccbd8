package notify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/ws"
	"go.uber.org/zap"
)

// SubjectPrefix is prepended to the recipient to form the outbound message
// subject. The chat gateway subscribes to notify.>.
const SubjectPrefix = "notify."

// Message is the body published for every notification.
type Message struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type eventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type userPusher interface {
	Connected(userID uuid.UUID) bool
	SendToUser(userID uuid.UUID, event ws.Event)
}

// Dispatcher delivers notifications. Staff recipients (user ids) get a live
// push when they have the assignment feed open; every message is also
// published for the chat gateway, which handles phone numbers and offline
// staff.
type Dispatcher struct {
	events eventPublisher
	hub    userPusher
	logger *zap.Logger
}

// NewDispatcher wires a dispatcher. Either events or hub may be nil; without
// events only connected staff are reached.
func NewDispatcher(events eventPublisher, hub userPusher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{events: events, hub: hub, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, recipient, message string) error {
	if recipient == "" {
		return nil
	}
	msg := Message{Recipient: recipient, Text: message}

	if id, err := uuid.Parse(recipient); err == nil && d.hub != nil && d.hub.Connected(id) {
		payload, err := json.Marshal(msg)
		if err == nil {
			d.hub.SendToUser(id, ws.Event{Type: ws.EventNotification, Payload: payload})
			d.logger.Debug("notification pushed", zap.String("user_id", recipient))
		}
	}

	if d.events == nil {
		return nil
	}
	return d.events.Publish(ctx, Subject(recipient), msg)
}

// Subject maps a recipient onto a single NATS subject token.
func Subject(recipient string) string {
	return SubjectPrefix + subjectToken.Replace(strings.TrimSpace(recipient))
}

var subjectToken = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
