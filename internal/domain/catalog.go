package domain

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCarrierNotFound = errors.New("carrier not found")
)

// Prices are minor currency units.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description"`
	Illustration string    `json:"illustration"`
	Price        int64     `json:"price"`
	CategoryID   int64     `json:"category_id"`
	IsBest       bool      `json:"is_best"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Carrier is a shipping option with a flat price.
type Carrier struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// Search filters the product listing. Zero value lists everything.
type Search struct {
	Query       string
	CategoryIDs []int64
	BestOnly    bool
}

// Header is a home page banner slide.
type Header struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	BtnTitle string `json:"btn_title"`
	BtnURL   string `json:"btn_url"`
	Image    string `json:"image"`
}

// ContactRequest is a message from a visitor to the shop operator.
type ContactRequest struct {
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=180"`
	Content   string `json:"content" validate:"required,max=5000"`
}
