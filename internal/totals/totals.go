// Package totals derives all monetary figures of an invoice from its
// line items and invoice-level discounts and charges.
//
// The computation is order-sensitive on purpose: raw per-item figures
// are summed first and rounded once at each aggregate boundary, and
// percentage-based general discounts and charges are applied to the
// already-rounded gross amount. The downstream consumers of these
// documents reject output whose printed numbers do not re-add to the
// printed total, so the two derived scalars are computed from rounded
// operands only.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Group is an order-preserving grouping of tax rows keyed by
// (tax type, rate, surcharge). Rows of the same type stay contiguous
// in first-seen type order; within a type, keys keep first-seen order.
// Two rows only merge when all three key components match.
type Group struct {
	types []model.TaxCode
	byType map[model.TaxCode]*typeRows
}

type typeRows struct {
	keys []string
	rows map[string]*model.TaxRow
}

func newGroup() *Group {
	return &Group{byType: make(map[model.TaxCode]*typeRows)}
}

func (g *Group) add(row model.TaxRow) {
	tr, ok := g.byType[row.Code]
	if !ok {
		tr = &typeRows{rows: make(map[string]*model.TaxRow)}
		g.byType[row.Code] = tr
		g.types = append(g.types, row.Code)
	}

	key := row.Rate.String() + ":" + row.Surcharge.String()
	acc, ok := tr.rows[key]
	if !ok {
		acc = &model.TaxRow{Code: row.Code, Rate: row.Rate, Surcharge: row.Surcharge}
		tr.rows[key] = acc
		tr.keys = append(tr.keys, key)
	}
	acc.Base = acc.Base.Add(row.Base)
	acc.Amount = acc.Amount.Add(row.Amount)
	acc.SurchargeAmount = acc.SurchargeAmount.Add(row.SurchargeAmount)
}

// Empty reports whether the grouping holds no rows.
func (g *Group) Empty() bool {
	return len(g.types) == 0
}

// Rows returns the aggregated rows in deterministic output order.
func (g *Group) Rows() []model.TaxRow {
	var rows []model.TaxRow
	for _, code := range g.types {
		tr := g.byType[code]
		for _, key := range tr.keys {
			rows = append(rows, *tr.rows[key])
		}
	}
	return rows
}

// Totals holds the aggregated monetary figures of one invoice. It is
// ephemeral: recomputed on every export, never persisted.
type Totals struct {
	// Items holds the per-line breakdowns, parallel to the invoice's
	// item order, so rendering never recomputes them.
	Items []model.ItemData

	TaxesOutputs  *Group
	TaxesWithheld *Group

	GeneralDiscounts []model.ResolvedDiscountCharge
	GeneralCharges   []model.ResolvedDiscountCharge

	GrossAmount            decimal.Decimal
	GrossAmountBeforeTaxes decimal.Decimal
	TotalTaxesOutputs      decimal.Decimal
	TotalTaxesWithheld     decimal.Decimal
	TotalGeneralDiscounts  decimal.Decimal
	TotalGeneralCharges    decimal.Decimal
	InvoiceAmount          decimal.Decimal
}

// Compute aggregates the invoice's totals. The seller and buyer must
// be set; in strict mode the first precision loss aborts with the
// rounder's error.
func Compute(inv *model.Invoice, r *money.Rounder) (*Totals, error) {
	if inv.Seller == nil {
		return nil, model.NewConfigError("seller", "a seller is required before totals can be computed")
	}
	if inv.Buyer == nil {
		return nil, model.NewConfigError("buyer", "a buyer is required before totals can be computed")
	}

	t := &Totals{
		TaxesOutputs:  newGroup(),
		TaxesWithheld: newGroup(),
	}

	grossSum := decimal.Zero
	outputsSum := decimal.Zero
	withheldSum := decimal.Zero
	for _, item := range inv.Items() {
		data := item.Data(r)
		t.Items = append(t.Items, data)
		grossSum = grossSum.Add(data.GrossAmount)
		outputsSum = outputsSum.Add(data.TotalTaxesOutputs)
		withheldSum = withheldSum.Add(data.TotalTaxesWithheld)

		for _, row := range data.TaxesOutputs {
			t.TaxesOutputs.add(row)
		}
		for _, row := range data.TaxesWithheld {
			t.TaxesWithheld.add(row)
		}
	}

	// The rounded gross amount is the basis for percentage-based
	// general discounts and charges. Intentional: applying rates to
	// the raw sum would change the emitted bytes.
	t.GrossAmount = r.Round(grossSum, "Invoice/GrossAmount")

	for _, dc := range inv.GeneralDiscounts() {
		row := resolveGeneral(dc, t.GrossAmount, r)
		t.GeneralDiscounts = append(t.GeneralDiscounts, row)
		t.TotalGeneralDiscounts = t.TotalGeneralDiscounts.Add(row.Amount)
	}
	for _, dc := range inv.GeneralCharges() {
		row := resolveGeneral(dc, t.GrossAmount, r)
		t.GeneralCharges = append(t.GeneralCharges, row)
		t.TotalGeneralCharges = t.TotalGeneralCharges.Add(row.Amount)
	}

	t.TotalTaxesOutputs = r.Round(outputsSum, "Invoice/TotalTaxOutputs")
	t.TotalTaxesWithheld = r.Round(withheldSum, "Invoice/TotalTaxesWithheld")
	t.TotalGeneralDiscounts = r.Round(t.TotalGeneralDiscounts, "Invoice/TotalGeneralDiscounts")
	t.TotalGeneralCharges = r.Round(t.TotalGeneralCharges, "Invoice/TotalGeneralSurcharges")

	// Derived from rounded operands only, so the rendered document's
	// arithmetic is self-consistent.
	t.GrossAmountBeforeTaxes = r.Round(
		t.GrossAmount.Sub(t.TotalGeneralDiscounts).Add(t.TotalGeneralCharges),
		"Invoice/TotalGrossAmountBeforeTaxes")
	t.InvoiceAmount = r.Round(
		t.GrossAmountBeforeTaxes.Add(t.TotalTaxesOutputs).Sub(t.TotalTaxesWithheld),
		"Invoice/InvoiceTotal")

	if err := r.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func resolveGeneral(dc model.DiscountCharge, gross decimal.Decimal, r *money.Rounder) model.ResolvedDiscountCharge {
	if dc.Rate != nil {
		return model.ResolvedDiscountCharge{
			Reason: dc.Reason,
			Rate:   dc.Rate,
			Amount: r.Round(gross.Mul(*dc.Rate).Div(hundred), "Discount/Amount"),
		}
	}
	return model.ResolvedDiscountCharge{
		Reason: dc.Reason,
		Amount: r.Round(*dc.Amount, "Discount/Amount"),
	}
}
