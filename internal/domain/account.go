package domain

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Address struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name" validate:"required,max=100"`
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=100"`
	Street    string `json:"address" validate:"required,max=255"`
	Postal    string `json:"postal" validate:"required,max=20"`
	City      string `json:"city" validate:"required,max=100"`
	Country   string `json:"country" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=30"`
}

// DeliveryText renders the address one field per line: recipient, phone,
// company (only when set), street, postal code, city, country.
func (a Address) DeliveryText() string {
	lines := []string{
		strings.TrimSpace(a.Firstname + " " + a.Lastname),
		a.Phone,
	}
	if company := strings.TrimSpace(a.Company); company != "" {
		lines = append(lines, company)
	}
	lines = append(lines, a.Street, a.Postal, a.City, a.Country)
	return strings.Join(lines, "\n")
}
