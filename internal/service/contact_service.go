package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notification"
)

// ContactService forwards contact form submissions to the shop operator.
type ContactService struct {
	sender        notification.Sender
	operatorEmail string
	operatorName  string
}

func NewContactService(sender notification.Sender, operatorEmail, operatorName string) *ContactService {
	return &ContactService{
		sender:        sender,
		operatorEmail: operatorEmail,
		operatorName:  operatorName,
	}
}

// Submit fails when delivery fails: unlike order confirmations the visitor
// is told the message was received.
func (s *ContactService) Submit(ctx context.Context, req domain.ContactRequest) error {
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Content = strings.TrimSpace(req.Content)

	if err := validateInput(req); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, notification.ContactMessage(s.operatorEmail, s.operatorName, req)); err != nil {
		slog.ErrorContext(ctx, "contact request not delivered", "from", req.Email, "error", err)
		return fmt.Errorf("%w: %w", ErrMailUnavailable, err)
	}

	slog.InfoContext(ctx, "contact request delivered", "from", req.Email)
	return nil
}
