package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is a phase of the checkout flow.
type Step string

const (
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// ShippingForm is the shipping address entered on the first checkout step.
// Field order matters: validation reports the first failing field.
type ShippingForm struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,basic_email"`
	Phone     string `json:"phone"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zip_code" validate:"required"`
}

// OrderSummary is the price breakdown shown during checkout.
type OrderSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Confirmation is produced once, when the order is placed.
type Confirmation struct {
	OrderNumber string          `json:"order_number"`
	PlacedAt    time.Time       `json:"placed_at"`
	Total       decimal.Decimal `json:"total"`
	Summary     OrderSummary    `json:"summary"`
	Items       Cart            `json:"items"`
}
