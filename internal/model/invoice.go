// Package model defines the FacturaE invoice aggregate: header data,
// parties, line items, discounts, attachments and extension hooks.
//
// An Invoice is built incrementally through its setters and adders, is
// read-only during export, and derives totals fresh on every export
// call. Concurrent mutation of a single invoice during an export is
// the caller's responsibility; separate invoice instances are
// independent.
package model

import (
	"regexp"
	"time"

	"github.com/rezonia/facturae/internal/attachment"
	"github.com/rezonia/facturae/internal/party"
)

// Attachment is a related document embedded in the invoice.
type Attachment struct {
	File        *attachment.File
	Description string
}

// Extension hooks into the export lifecycle. BeforeExport may mutate
// the invoice; BeforeSign and AfterSign may rewrite the XML text; the
// AdditionalData fragment is appended to the AdditionalData block.
// Hooks run in registration order, each output feeding the next.
type Extension interface {
	OnBeforeExport(inv *Invoice) error
	OnBeforeSign(xmlText string) (string, error)
	OnAfterSign(xmlText string) (string, error)
	AdditionalData() (string, error)
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// Invoice is the aggregate root of a FacturaE document.
type Invoice struct {
	Version  SchemaVersion
	Currency string
	Language string

	Serie       string
	Number      string
	IssueDate   time.Time
	DueDate     time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time

	PaymentMethod PaymentMeans
	PaymentIBAN   string
	PaymentBIC    string

	Description                  string
	ReceiverTransactionReference string
	FileReference                string
	ReceiverContractReference    string
	RelatedInvoice               string
	AdditionalInformation        string
	AssignmentClauses            string

	Seller   *party.Party
	Buyer    *party.Party
	Assignee *party.Party

	items         []*LineItem
	legalLiterals []string
	discounts     []DiscountCharge
	charges       []DiscountCharge
	attachments   []Attachment
	extensions    []Extension
}

// New creates an invoice on the default schema revision, in EUR and
// Spanish, matching the format's defaults.
func New() *Invoice {
	return NewWithSchema(DefaultSchema)
}

// NewWithSchema creates an invoice on a specific schema revision.
func NewWithSchema(version SchemaVersion) *Invoice {
	return &Invoice{
		Version:  version,
		Currency: "EUR",
		Language: "es",
	}
}

// SetNumber sets the serie and number identifying the invoice.
func (inv *Invoice) SetNumber(serie, number string) *Invoice {
	inv.Serie = serie
	inv.Number = number
	return inv
}

// SetBillingPeriod sets the invoicing period start and end dates.
func (inv *Invoice) SetBillingPeriod(start, end time.Time) *Invoice {
	inv.PeriodStart = start
	inv.PeriodEnd = end
	return inv
}

// SetPaymentMethod sets the payment method and optional bank account.
// The IBAN is stripped of separators; the BIC is padded to 11
// characters with 'X' as the format requires.
func (inv *Invoice) SetPaymentMethod(method PaymentMeans, iban, bic string) *Invoice {
	inv.PaymentMethod = method
	inv.PaymentIBAN = nonAlphanumeric.ReplaceAllString(iban, "")
	bic = nonAlphanumeric.ReplaceAllString(bic, "")
	if bic != "" {
		for len(bic) < 11 {
			bic += "X"
		}
	}
	inv.PaymentBIC = bic
	return inv
}

// AddItem appends a line item. Quantity must be positive; the unit
// price may be negative for credit notes.
func (inv *Invoice) AddItem(item *LineItem) error {
	if item.Name == "" {
		return NewValidationError("item.name", nil, "required", "line items need a description")
	}
	if !item.Quantity.IsPositive() {
		return NewValidationError("item.quantity", item.Quantity.String(), "positive", "quantity must be greater than zero")
	}
	inv.items = append(inv.items, item)
	return nil
}

// AddLegalLiteral appends a legal literal. Order is preserved in the
// rendered document.
func (inv *Invoice) AddLegalLiteral(text string) *Invoice {
	inv.legalLiterals = append(inv.legalLiterals, text)
	return inv
}

// AddGeneralDiscount appends an invoice-level discount.
func (inv *Invoice) AddGeneralDiscount(dc DiscountCharge) error {
	if err := dc.validate("invoice.discount"); err != nil {
		return err
	}
	inv.discounts = append(inv.discounts, dc)
	return nil
}

// AddGeneralCharge appends an invoice-level charge.
func (inv *Invoice) AddGeneralCharge(dc DiscountCharge) error {
	if err := dc.validate("invoice.charge"); err != nil {
		return err
	}
	inv.charges = append(inv.charges, dc)
	return nil
}

// AddAttachment appends a related document.
func (inv *Invoice) AddAttachment(file *attachment.File, description string) *Invoice {
	inv.attachments = append(inv.attachments, Attachment{File: file, Description: description})
	return inv
}

// RegisterExtension registers a lifecycle extension. Hooks fire in
// registration order.
func (inv *Invoice) RegisterExtension(ext Extension) *Invoice {
	inv.extensions = append(inv.extensions, ext)
	return inv
}

// Items returns the line items in input order.
func (inv *Invoice) Items() []*LineItem { return inv.items }

// LegalLiterals returns the legal literals in input order.
func (inv *Invoice) LegalLiterals() []string { return inv.legalLiterals }

// GeneralDiscounts returns the invoice-level discounts.
func (inv *Invoice) GeneralDiscounts() []DiscountCharge { return inv.discounts }

// GeneralCharges returns the invoice-level charges.
func (inv *Invoice) GeneralCharges() []DiscountCharge { return inv.charges }

// Attachments returns the attached documents.
func (inv *Invoice) Attachments() []Attachment { return inv.attachments }

// Extensions returns the registered extensions in registration order.
func (inv *Invoice) Extensions() []Extension { return inv.extensions }
