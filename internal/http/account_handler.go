package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error)
	AddAddress(ctx context.Context, userID int64, a domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) error
}

type AccountHandler struct {
	accounts      AccountService
	timeout       time.Duration
	secureCookies bool
}

func NewAccountHandler(accounts AccountService, timeout time.Duration, secureCookies bool) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		timeout:       timeout,
		secureCookies: secureCookies,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /api/v1/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.accounts.Register(ctx, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// POST /api/v1/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	setAuthCookie(w, session.Token, session.ExpiresAt, h.secureCookies)
	respondJSON(w, http.StatusOK, session)
}

// POST /api/v1/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/account/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.accounts.ChangePassword(ctx, getUserIDFromContext(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/account/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addresses, err := h.accounts.ListAddresses(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}

	respondJSON(w, http.StatusOK, addresses)
}

// POST /api/v1/account/addresses
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var a domain.Address
	if !decodeJSON(w, r, &a) {
		return
	}

	created, err := h.accounts.AddAddress(ctx, getUserIDFromContext(r.Context()), a)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// DELETE /api/v1/account/addresses/{address_id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := int64Param(w, r, "address_id")
	if !ok {
		return
	}

	err := h.accounts.DeleteAddress(ctx, getUserIDFromContext(r.Context()), addressID)
	if errors.Is(err, service.ErrAddressNotFound) {
		respondError(w, http.StatusNotFound, "address_not_found", "address not found")
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
