package facturae_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae/pkg/facturae"
)

func TestExport(t *testing.T) {
	inv := facturae.New()
	inv.SetNumber("FAC2026", "001")
	inv.IssueDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	inv.Seller = &facturae.Party{
		TaxNumber: "A00000000",
		Name:      "Empresa S.A.",
		Address:   "C/ Mayor, 1",
		PostCode:  "28001",
		Town:      "Madrid",
		Province:  "Madrid",
	}
	inv.Buyer = &facturae.Party{
		TaxNumber: "B11111111",
		Name:      "Cliente S.L.",
		Address:   "C/ Menor, 2",
		PostCode:  "08001",
		Town:      "Barcelona",
		Province:  "Barcelona",
	}

	item := &facturae.LineItem{
		Name:      "Consultoría",
		Quantity:  decimal.NewFromInt(5),
		UnitPrice: decimal.RequireFromString("100.00"),
	}
	item.AddTax(facturae.TaxIVA, decimal.NewFromInt(21), decimal.Zero)
	require.NoError(t, inv.AddItem(item))

	res, err := facturae.Export(inv)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.XML, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, res.XML, "<InvoiceTotal>605.00</InvoiceTotal>")
	assert.Equal(t, "605.00", res.Totals.InvoiceAmount.StringFixed(2))
	assert.Empty(t, res.Warnings)
}

func TestExport_RequiresParties(t *testing.T) {
	inv := facturae.NewWithSchema(facturae.Schema322)
	inv.SetNumber("FAC2026", "002")
	inv.IssueDate = time.Now()

	_, err := facturae.Export(inv)
	require.Error(t, err)

	var cerr *facturae.ConfigError
	assert.ErrorAs(t, err, &cerr)
}
