package model

import "time"

// RegisterRequest
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required,min=3"`
}

// LoginRequest
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Images      []string `json:"images"`
}

type CreateOfferRequest struct {
	ProductID string     `json:"product_id" validate:"required,uuid4"`
	Amount    float64    `json:"offered_price" validate:"required,gt=0"`
	Message   string     `json:"message" validate:"max=500"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// RespondOfferRequest carries the seller's accept/reject note.
type RespondOfferRequest struct {
	Response string `json:"response" validate:"max=500"`
}
