// Package money implements the fixed-precision arithmetic rules of the
// FacturaE format: half-away-from-zero rounding at every monetary
// boundary, loss-of-precision tracking per field, and the per-schema
// decimal padding table used when rendering numbers.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyDecimals is the fixed precision of all monetary boundaries.
const CurrencyDecimals = 2

// DefaultTolerance is the maximum absolute difference between a raw
// value and its rounded form before a precision warning is recorded.
var DefaultTolerance = decimal.New(1, -5) // 0.00001

// Warning records a loss-of-precision event at a monetary boundary.
type Warning struct {
	Field    string
	Original decimal.Decimal
	Rounded  decimal.Decimal
}

func (w Warning) String() string {
	return w.Field + ": " + w.Original.String() + " rounded to " + w.Rounded.String()
}

// Rounder rounds monetary values and collects precision warnings.
// It is a pure accumulator: create one per computation, never share
// between exports.
type Rounder struct {
	// Tolerance overrides DefaultTolerance when positive.
	Tolerance decimal.Decimal
	// Strict escalates precision warnings to errors.
	Strict bool

	warnings []Warning
	err      error
}

// NewRounder creates a rounder with the default tolerance.
func NewRounder(strict bool) *Rounder {
	return &Rounder{Strict: strict}
}

// Round rounds v to the currency precision using half-away-from-zero
// tie-breaking. If the dropped part exceeds the tolerance, a warning is
// recorded against field; in strict mode the first such event becomes
// the rounder's error.
func (r *Rounder) Round(v decimal.Decimal, field string) decimal.Decimal {
	rounded := v.Round(CurrencyDecimals)
	tol := r.Tolerance
	if !tol.IsPositive() {
		tol = DefaultTolerance
	}
	if v.Sub(rounded).Abs().GreaterThan(tol) {
		r.warnings = append(r.warnings, Warning{Field: field, Original: v, Rounded: rounded})
		if r.Strict && r.err == nil {
			r.err = &PrecisionError{Field: field, Original: v, Rounded: rounded}
		}
	}
	return rounded
}

// Warnings returns the precision warnings collected so far.
func (r *Rounder) Warnings() []Warning {
	return r.warnings
}

// Err returns the first escalated precision error, if any.
func (r *Rounder) Err() error {
	return r.err
}

// prec is a min/max decimal places pair for a rendered field.
type prec struct {
	min int32
	max int32
}

// Decimal padding rules per schema version. The zero-value key holds
// the default for a version; fields not listed fall back to it.
var defaultPrecision = map[string]prec{
	"":                         {2, 2},
	"Item/Quantity":            {2, 8},
	"Item/UnitPriceWithoutTax": {2, 8},
	"Item/GrossAmount":         {2, 8},
	"Tax/Rate":                 {2, 8},
	"Discount/Rate":            {2, 8},
	"Discount/Amount":          {2, 2},
}

var schema32Precision = map[string]prec{
	"":                             {2, 2},
	"Item/Quantity":                {2, 6},
	"Item/TotalAmountWithoutTax":   {6, 6},
	"Item/UnitPriceWithoutTax":     {6, 6},
	"Item/GrossAmount":             {6, 6},
	"Discount/Rate":                {4, 4},
	"Discount/Amount":              {6, 6},
}

func precisionFor(field, version string) prec {
	table := defaultPrecision
	if version == "3.2" {
		table = schema32Precision
	}
	if p, ok := table[field]; ok {
		return p
	}
	return table[""]
}

// Pad renders v with the decimal places mandated for field under the
// given schema version: padded to the minimum, trailing zeros beyond it
// trimmed up to the maximum.
func Pad(v decimal.Decimal, field, version string) string {
	p := precisionFor(field, version)
	s := v.StringFixed(p.max)
	if p.max == p.min {
		return s
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	minLen := dot + 1 + int(p.min)
	for len(s) > minLen && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

// Amount renders a monetary scalar with the default currency precision.
func Amount(v decimal.Decimal, version string) string {
	return Pad(v, "", version)
}
