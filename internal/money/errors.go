package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PrecisionError is a precision warning escalated to fatal by a strict
// rounder. The field path points at the monetary boundary that lost
// precision.
type PrecisionError struct {
	Field    string
	Original decimal.Decimal
	Rounded  decimal.Decimal
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("precision loss at %s: %s rounds to %s", e.Field, e.Original, e.Rounded)
}
