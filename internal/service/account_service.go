package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Passwords are capped at bcrypt's 72 byte input limit.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=180"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
}

type passwordChange struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type AccountService struct {
	users     UserStore
	addresses AddressStore
	tokens    TokenIssuer
	hashCost  int
}

func NewAccountService(users UserStore, addresses AddressStore, tokens TokenIssuer) *AccountService {
	return &AccountService{
		users:     users,
		addresses: addresses,
		tokens:    tokens,
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)

	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if err := validateInput(passwordChange{NewPassword: newPassword}); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *AccountService) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	return s.addresses.ListAddresses(ctx, userID)
}

func (s *AccountService) AddAddress(ctx context.Context, userID int64, a domain.Address) (*domain.Address, error) {
	a.ID = 0
	a.UserID = userID
	for _, field := range []*string{&a.Name, &a.Firstname, &a.Lastname, &a.Company, &a.Street, &a.Postal, &a.City, &a.Country, &a.Phone} {
		*field = strings.TrimSpace(*field)
	}
	if err := validateInput(a); err != nil {
		return nil, err
	}

	if err := s.addresses.CreateAddress(ctx, &a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return &a, nil
}

func (s *AccountService) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	err := s.addresses.DeleteAddress(ctx, userID, addressID)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return ErrAddressNotFound
	}
	return err
}
