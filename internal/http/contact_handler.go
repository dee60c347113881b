package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ContactService interface {
	Submit(ctx context.Context, req domain.ContactRequest) error
}

type ContactHandler struct {
	contact ContactService
	timeout time.Duration
}

func NewContactHandler(contact ContactService, timeout time.Duration) *ContactHandler {
	return &ContactHandler{
		contact: contact,
		timeout: timeout,
	}
}

// POST /api/v1/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.contact.Submit(ctx, req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
