package model

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Tax is a tax applied to a line item: a type code with its rate and,
// for charged taxes, an optional equivalence surcharge rate.
type Tax struct {
	Code      TaxCode
	Rate      decimal.Decimal
	Surcharge decimal.Decimal
}

// LineItem is a single invoice line. Build it with the field literals
// plus the Add* methods for taxes and discounts, then attach it to an
// invoice with Invoice.AddItem.
type LineItem struct {
	Name          string
	Description   string
	ArticleCode   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	UnitOfMeasure Unit

	// Optional references, emitted in schema order when non-empty.
	IssuerContractReference      string
	IssuerContractDate           string
	IssuerTransactionReference   string
	IssuerTransactionDate        string
	ReceiverContractReference    string
	ReceiverContractDate         string
	ReceiverTransactionReference string
	ReceiverTransactionDate      string
	FileReference                string
	FileDate                     string
	SequenceNumber               string

	taxesOutputs  []Tax
	taxesWithheld []Tax
	discounts     []DiscountCharge
	charges       []DiscountCharge
}

// AddTax adds a charged tax to the item. A zero surcharge omits the
// surcharge sub-elements from the rendered row.
func (li *LineItem) AddTax(code TaxCode, rate, surcharge decimal.Decimal) *LineItem {
	li.taxesOutputs = append(li.taxesOutputs, Tax{Code: code, Rate: rate, Surcharge: surcharge})
	return li
}

// AddWithheldTax adds a tax withheld by the buyer on the issuer's
// behalf (e.g. IRPF).
func (li *LineItem) AddWithheldTax(code TaxCode, rate decimal.Decimal) *LineItem {
	li.taxesWithheld = append(li.taxesWithheld, Tax{Code: code, Rate: rate})
	return li
}

// AddDiscount adds an item-level discount. Malformed entries are
// rejected here, never at export time.
func (li *LineItem) AddDiscount(dc DiscountCharge) error {
	if err := dc.validate("item.discount"); err != nil {
		return err
	}
	li.discounts = append(li.discounts, dc)
	return nil
}

// AddCharge adds an item-level charge.
func (li *LineItem) AddCharge(dc DiscountCharge) error {
	if err := dc.validate("item.charge"); err != nil {
		return err
	}
	li.charges = append(li.charges, dc)
	return nil
}

// Taxes returns the charged taxes in insertion order.
func (li *LineItem) Taxes() []Tax { return li.taxesOutputs }

// WithheldTaxes returns the withheld taxes in insertion order.
func (li *LineItem) WithheldTaxes() []Tax { return li.taxesWithheld }

// Discounts returns the item-level discounts in insertion order.
func (li *LineItem) Discounts() []DiscountCharge { return li.discounts }

// Charges returns the item-level charges in insertion order.
func (li *LineItem) Charges() []DiscountCharge { return li.charges }

// Unit returns the unit of measure, defaulting to units.
func (li *LineItem) Unit() Unit {
	if li.UnitOfMeasure == "" {
		return UnitDefault
	}
	return li.UnitOfMeasure
}

// TaxRow is a computed tax entry: rate and surcharge applied to the
// item's taxable base.
type TaxRow struct {
	Code            TaxCode
	Rate            decimal.Decimal
	Surcharge       decimal.Decimal
	Base            decimal.Decimal
	Amount          decimal.Decimal
	SurchargeAmount decimal.Decimal
}

// ItemData holds the derived monetary figures of a line item. It is
// recomputed on demand and never stored on the item.
type ItemData struct {
	// TotalAmountWithoutTax is quantity times unit price, rounded once
	// at the item boundary.
	TotalAmountWithoutTax decimal.Decimal
	// GrossAmount is the taxable base: the total adjusted by the
	// item's own discounts and charges. Kept unrounded so aggregation
	// across items never compounds rounding error.
	GrossAmount decimal.Decimal

	Discounts []ResolvedDiscountCharge
	Charges   []ResolvedDiscountCharge

	TaxesOutputs  []TaxRow
	TaxesWithheld []TaxRow

	TotalTaxesOutputs  decimal.Decimal
	TotalTaxesWithheld decimal.Decimal
}

// Data computes the item's monetary breakdown. Rounding via r happens
// only at the q×price boundary; all downstream figures stay raw and
// are rounded (or padded) at their own boundaries.
func (li *LineItem) Data(r *money.Rounder) ItemData {
	data := ItemData{
		TotalAmountWithoutTax: r.Round(li.Quantity.Mul(li.UnitPrice), "Item/TotalAmountWithoutTax"),
	}

	discountTotal := decimal.Zero
	for _, dc := range li.discounts {
		row := resolve(dc, data.TotalAmountWithoutTax)
		data.Discounts = append(data.Discounts, row)
		discountTotal = discountTotal.Add(row.Amount)
	}
	chargeTotal := decimal.Zero
	for _, dc := range li.charges {
		row := resolve(dc, data.TotalAmountWithoutTax)
		data.Charges = append(data.Charges, row)
		chargeTotal = chargeTotal.Add(row.Amount)
	}
	data.GrossAmount = data.TotalAmountWithoutTax.Sub(discountTotal).Add(chargeTotal)

	for _, tax := range li.taxesOutputs {
		row := taxRow(tax, data.GrossAmount)
		data.TaxesOutputs = append(data.TaxesOutputs, row)
		data.TotalTaxesOutputs = data.TotalTaxesOutputs.Add(row.Amount).Add(row.SurchargeAmount)
	}
	for _, tax := range li.taxesWithheld {
		row := taxRow(tax, data.GrossAmount)
		data.TaxesWithheld = append(data.TaxesWithheld, row)
		data.TotalTaxesWithheld = data.TotalTaxesWithheld.Add(row.Amount).Add(row.SurchargeAmount)
	}

	return data
}

func resolve(dc DiscountCharge, base decimal.Decimal) ResolvedDiscountCharge {
	if dc.Rate != nil {
		return ResolvedDiscountCharge{
			Reason: dc.Reason,
			Rate:   dc.Rate,
			Amount: base.Mul(*dc.Rate).Div(hundred),
		}
	}
	return ResolvedDiscountCharge{Reason: dc.Reason, Amount: *dc.Amount}
}

func taxRow(tax Tax, base decimal.Decimal) TaxRow {
	row := TaxRow{
		Code:      tax.Code,
		Rate:      tax.Rate,
		Surcharge: tax.Surcharge,
		Base:      base,
		Amount:    base.Mul(tax.Rate).Div(hundred),
	}
	if !tax.Surcharge.IsZero() {
		row.SurchargeAmount = base.Mul(tax.Surcharge).Div(hundred)
	}
	return row
}
