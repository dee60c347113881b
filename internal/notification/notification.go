// Package notification delivers customer notifications over a pluggable transport.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	EventOrderConfirmed = "order.confirmed"
	EventContactRequest = "contact.requested"
)

type Message struct {
	Event        string `json:"event"`
	ToEmail      string `json:"to_email"`
	ToName       string `json:"to_name"`
	ReplyToEmail string `json:"reply_to_email,omitempty"`
	ReplyToName  string `json:"reply_to_name,omitempty"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	Reference    string `json:"reference,omitempty"`
}

// eventType defaults to order confirmation for messages built without one.
func (m Message) eventType() string {
	if m.Event == "" {
		return EventOrderConfirmed
	}
	return m.Event
}

// Sender delivers one message. Callers treat delivery as best effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// OrderConfirmation builds the message sent once an order is paid.
func OrderConfirmation(user *domain.User, order *domain.Order) Message {
	return Message{
		Event:     EventOrderConfirmed,
		ToEmail:   user.Email,
		ToName:    user.Firstname,
		Subject:   fmt.Sprintf("Order confirmation %s", order.Reference),
		Body:      fmt.Sprintf("Hello %s, thank you for your order.", user.Firstname),
		Reference: order.Reference,
	}
}

// ContactMessage forwards a visitor's contact form to the shop operator. The
// operator answers by replying to the visitor.
func ContactMessage(operatorEmail, operatorName string, req domain.ContactRequest) Message {
	visitor := strings.TrimSpace(req.Firstname + " " + req.Lastname)
	return Message{
		Event:        EventContactRequest,
		ToEmail:      operatorEmail,
		ToName:       operatorName,
		ReplyToEmail: req.Email,
		ReplyToName:  visitor,
		Subject:      fmt.Sprintf("Contact request from %s", visitor),
		Body:         fmt.Sprintf("%s <%s> wrote:\n\n%s", visitor, req.Email, req.Content),
	}
}

// NopSender only logs.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "notification skipped", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
