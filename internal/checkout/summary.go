package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/domain"
)

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(100)
	// ShippingFee is charged below FreeShippingThreshold.
	ShippingFee = decimal.RequireFromString("8.95")
	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
)

// Summary computes the order breakdown for a cart subtotal. Tax is rounded
// to cents. An empty cart has no shipping charge.
func Summary(subtotal decimal.Decimal) domain.OrderSummary {
	shipping := ShippingFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	return domain.OrderSummary{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
