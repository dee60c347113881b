package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleServiceError maps service errors to responses. Unknown errors are
// logged and reported without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order inaccessible")
	case errors.Is(err, service.ErrPrecondition):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "checkout precondition not met",
			Code:    preconditionCode(err),
			Details: err.Error(),
		})
	case errors.Is(err, service.ErrGateway):
		slog.ErrorContext(r.Context(), "payment gateway failure", "error", err)
		respondError(w, http.StatusBadGateway, "payment_unavailable", "payment provider unavailable, please retry")
	case errors.Is(err, service.ErrMailUnavailable):
		slog.ErrorContext(r.Context(), "mail delivery failure", "error", err)
		respondError(w, http.StatusBadGateway, "mail_unavailable", "message could not be sent, please retry")
	case errors.Is(err, domain.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", "order state cannot change that way")
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid input", Code: "invalid_input", Details: err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, cart.ErrNoSession):
		respondError(w, http.StatusBadRequest, "missing_cart_session", "cart session is required")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func preconditionCode(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, service.ErrNoAddress):
		return "no_address"
	case errors.Is(err, service.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, service.ErrCarrierNotFound):
		return "carrier_not_found"
	case errors.Is(err, service.ErrAlreadyPaid):
		return "already_paid"
	default:
		return "precondition_failed"
	}
}
