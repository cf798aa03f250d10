// Package facturae provides the public API for building, rendering and
// signing Spanish FacturaE electronic invoices.
//
// Example usage:
//
//	inv := facturae.New()
//	inv.SetNumber("FAC2026", "001")
//	inv.IssueDate = time.Now()
//	inv.Seller = &facturae.Party{TaxNumber: "A00000000", Name: "Empresa S.A.", ...}
//	inv.Buyer = &facturae.Party{...}
//
//	item := &facturae.LineItem{Name: "Servicio", Quantity: one, UnitPrice: price}
//	item.AddTax(facturae.TaxIVA, rate, decimal.Zero)
//	inv.AddItem(item)
//
//	res, err := facturae.Export(inv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("invoice.xml", []byte(res.XML), 0o644)
package facturae

import (
	"github.com/rezonia/facturae/internal/attachment"
	"github.com/rezonia/facturae/internal/export"
	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/money"
	"github.com/rezonia/facturae/internal/party"
	"github.com/rezonia/facturae/internal/totals"
)

// Re-export core types for the public API
type (
	Invoice              = model.Invoice
	LineItem             = model.LineItem
	Tax                  = model.Tax
	DiscountCharge       = model.DiscountCharge
	Extension            = model.Extension
	Party                = party.Party
	AdministrativeCentre = party.AdministrativeCentre
	File                 = attachment.File
	Exporter             = export.Exporter
	Result               = export.Result
	Signer               = export.Signer
	Totals               = totals.Totals
	Warning              = money.Warning
	SchemaVersion        = model.SchemaVersion
	TaxCode              = model.TaxCode
	PaymentMeans         = model.PaymentMeans
	Unit                 = model.Unit
)

// Re-export error types
type (
	ConfigError     = model.ConfigError
	ValidationError = model.ValidationError
	PrecisionError  = money.PrecisionError
)

// Re-export schema versions
const (
	Schema32  = model.Schema32
	Schema321 = model.Schema321
	Schema322 = model.Schema322
)

// Re-export the common tax codes; the full table lives in the
// internal model package.
const (
	TaxIVA  = model.TaxIVA
	TaxIGIC = model.TaxIGIC
	TaxIRPF = model.TaxIRPF
)

// Re-export common payment means
const (
	PaymentCash     = model.PaymentCash
	PaymentDebit    = model.PaymentDebit
	PaymentTransfer = model.PaymentTransfer
)

// Discount and charge constructors
var (
	ByRate   = model.ByRate
	ByAmount = model.ByAmount
)

// Attachment constructors
var (
	AttachmentFromPath  = attachment.FromPath
	AttachmentFromBytes = attachment.FromBytes
)

// New creates an empty invoice with the default schema version and
// currency.
func New() *Invoice {
	return model.New()
}

// NewWithSchema creates an empty invoice targeting a specific schema
// version.
func NewWithSchema(version SchemaVersion) *Invoice {
	return model.NewWithSchema(version)
}

// Export renders an invoice unsigned with default settings. Use an
// Exporter directly to sign or to tighten precision handling.
func Export(inv *Invoice) (*Result, error) {
	return (&Exporter{}).Export(inv)
}
