package model

import "github.com/shopspring/decimal"

// DiscountCharge is a discount or charge, at item or invoice level.
// Exactly one of Rate (a percentage) or Amount (a fixed value) must be
// set; entries violating this are rejected when added to the invoice.
type DiscountCharge struct {
	Reason string
	Rate   *decimal.Decimal
	Amount *decimal.Decimal
}

// ByRate builds a percentage-based discount or charge.
func ByRate(reason string, rate decimal.Decimal) DiscountCharge {
	return DiscountCharge{Reason: reason, Rate: &rate}
}

// ByAmount builds a fixed-amount discount or charge.
func ByAmount(reason string, amount decimal.Decimal) DiscountCharge {
	return DiscountCharge{Reason: reason, Amount: &amount}
}

func (dc DiscountCharge) validate(field string) error {
	if dc.Rate != nil && dc.Amount != nil {
		return NewValidationError(field, dc.Reason, "rate-xor-amount", "cannot set both a rate and a fixed amount")
	}
	if dc.Rate == nil && dc.Amount == nil {
		return NewValidationError(field, dc.Reason, "rate-xor-amount", "either a rate or a fixed amount is required")
	}
	return nil
}

// ResolvedDiscountCharge is a discount or charge with its final
// computed amount, ready for rendering.
type ResolvedDiscountCharge struct {
	Reason string
	Rate   *decimal.Decimal
	Amount decimal.Decimal
}
