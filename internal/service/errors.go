package service

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is the caller's to fix: fill the cart, add an address, pick a carrier.
	ErrPrecondition    = errors.New("checkout precondition not met")
	ErrEmptyCart       = fmt.Errorf("%w: cart is empty, nothing to checkout", ErrPrecondition)
	ErrNoAddress       = fmt.Errorf("%w: no delivery address", ErrPrecondition)
	ErrAddressNotFound = fmt.Errorf("%w: address not found", ErrPrecondition)
	ErrCarrierNotFound = fmt.Errorf("%w: carrier not found", ErrPrecondition)
	ErrAlreadyPaid     = fmt.Errorf("%w: order is already paid", ErrPrecondition)

	// ErrNotFound does not tell a missing order from somebody else's.
	ErrNotFound = errors.New("order inaccessible")

	ErrGateway         = errors.New("payment gateway unavailable")
	ErrMailUnavailable = errors.New("mail delivery unavailable")

	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
)
