// Package pricing computes deterministic booking quotes. It is pure: no
// storage, no clock, safe for live previews.
package pricing

import (
	"math"

	"tamasya/internal/models"
)

const (
	// ServiceFeePercent is the platform commission applied to the subtotal.
	ServiceFeePercent = 5.0

	// childPriceRatio is applied to the adult price when an activity has no
	// explicit child price.
	childPriceRatio = 0.7
)

// ChildPrice resolves the effective per-child price for an activity:
// the explicit child price when set, otherwise 70% of the adult price
// rounded half-up to the nearest whole currency unit.
func ChildPrice(adultPrice int64, childPrice *int64) int64 {
	if childPrice != nil {
		return *childPrice
	}
	return roundHalfUp(float64(adultPrice) * childPriceRatio)
}

// Quote computes the full price breakdown for the given unit prices and
// participant counts. The service fee is computed from the exact subtotal,
// not from rounded intermediates.
func Quote(adultPrice int64, childPrice *int64, adults, children int, currency string) models.PriceBreakdown {
	child := ChildPrice(adultPrice, childPrice)

	adultTotal := int64(adults) * adultPrice
	childTotal := int64(children) * child
	subtotal := adultTotal + childTotal
	serviceFee := roundHalfUp(float64(subtotal) * ServiceFeePercent / 100)

	return models.PriceBreakdown{
		AdultPrice:        adultPrice,
		ChildPrice:        child,
		Adults:            adults,
		Children:          children,
		AdultTotal:        adultTotal,
		ChildTotal:        childTotal,
		Subtotal:          subtotal,
		ServiceFee:        serviceFee,
		ServiceFeePercent: ServiceFeePercent,
		Total:             subtotal + serviceFee,
		Currency:          currency,
	}
}

// QuoteActivity computes the breakdown using an activity's own prices and
// currency.
func QuoteActivity(activity *models.Activity, adults, children int) models.PriceBreakdown {
	return Quote(activity.PriceAdult, activity.PriceChild, adults, children, activity.Currency)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
