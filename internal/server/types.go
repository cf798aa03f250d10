package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae/internal/attachment"
	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/party"
)

// InvoiceRequest is the JSON description of an invoice, shared by the
// render/validate endpoints and the CLI export command.
type InvoiceRequest struct {
	SchemaVersion string `json:"schemaVersion,omitempty"`
	Serie         string `json:"serie"`
	Number        string `json:"number"`
	IssueDate     string `json:"issueDate"`
	DueDate       string `json:"dueDate,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Language      string `json:"language,omitempty"`
	Description   string `json:"description,omitempty"`

	PeriodStart string `json:"periodStart,omitempty"`
	PeriodEnd   string `json:"periodEnd,omitempty"`

	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentIBAN   string `json:"paymentIBAN,omitempty"`
	PaymentBIC    string `json:"paymentBIC,omitempty"`

	Seller *PartyRequest `json:"seller"`
	Buyer  *PartyRequest `json:"buyer"`

	Items            []ItemRequest           `json:"items"`
	GeneralDiscounts []DiscountChargeRequest `json:"generalDiscounts,omitempty"`
	GeneralCharges   []DiscountChargeRequest `json:"generalCharges,omitempty"`
	LegalLiterals    []string                `json:"legalLiterals,omitempty"`
	Attachments      []AttachmentRequest     `json:"attachments,omitempty"`

	RelatedInvoice        string `json:"relatedInvoice,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

// PartyRequest describes a seller or buyer.
type PartyRequest struct {
	Individual   bool   `json:"individual,omitempty"`
	TaxNumber    string `json:"taxNumber"`
	Name         string `json:"name"`
	FirstSurname string `json:"firstSurname,omitempty"`
	LastSurname  string `json:"lastSurname,omitempty"`
	Address      string `json:"address"`
	PostCode     string `json:"postCode"`
	Town         string `json:"town"`
	Province     string `json:"province"`
	CountryCode  string `json:"countryCode,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// ItemRequest describes an invoice line.
type ItemRequest struct {
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	ArticleCode   string                  `json:"articleCode,omitempty"`
	Quantity      decimal.Decimal         `json:"quantity"`
	UnitPrice     decimal.Decimal         `json:"unitPrice"`
	UnitOfMeasure string                  `json:"unitOfMeasure,omitempty"`
	Taxes         []TaxRequest            `json:"taxes"`
	WithheldTaxes []TaxRequest            `json:"withheldTaxes,omitempty"`
	Discounts     []DiscountChargeRequest `json:"discounts,omitempty"`
	Charges       []DiscountChargeRequest `json:"charges,omitempty"`
}

// TaxRequest describes one applied tax.
type TaxRequest struct {
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	Surcharge decimal.Decimal `json:"surcharge,omitempty"`
}

// DiscountChargeRequest describes a discount or charge; exactly one
// of rate and amount must be set.
type DiscountChargeRequest struct {
	Reason string           `json:"reason"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// AttachmentRequest carries an attached document as base64.
type AttachmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Data        []byte `json:"data"`
}

// RenderResponse wraps a rendered document.
type RenderResponse struct {
	XML      string   `json:"xml"`
	Total    string   `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidationResponse reports validation findings.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

const requestDateFormat = "2006-01-02"

// ToInvoice converts the request into a model invoice. Validation
// failures surface as the model's typed errors.
func (r *InvoiceRequest) ToInvoice() (*model.Invoice, error) {
	version := model.Schema321
	if r.SchemaVersion != "" {
		version = model.SchemaVersion(r.SchemaVersion)
	}

	inv := model.NewWithSchema(version)
	inv.SetNumber(r.Serie, r.Number)

	if r.Currency != "" {
		inv.Currency = r.Currency
	}
	if r.Language != "" {
		inv.Language = r.Language
	}
	inv.Description = r.Description
	inv.RelatedInvoice = r.RelatedInvoice
	inv.AdditionalInformation = r.AdditionalInformation

	var err error
	if inv.IssueDate, err = parseDate("issueDate", r.IssueDate, true); err != nil {
		return nil, err
	}
	if inv.DueDate, err = parseDate("dueDate", r.DueDate, false); err != nil {
		return nil, err
	}

	if r.PeriodStart != "" || r.PeriodEnd != "" {
		start, err := parseDate("periodStart", r.PeriodStart, true)
		if err != nil {
			return nil, err
		}
		end, err := parseDate("periodEnd", r.PeriodEnd, true)
		if err != nil {
			return nil, err
		}
		inv.SetBillingPeriod(start, end)
	}

	if r.PaymentMethod != "" {
		inv.SetPaymentMethod(model.PaymentMeans(r.PaymentMethod), r.PaymentIBAN, r.PaymentBIC)
	}

	if r.Seller != nil {
		inv.Seller = r.Seller.toParty()
	}
	if r.Buyer != nil {
		inv.Buyer = r.Buyer.toParty()
	}

	for i := range r.Items {
		item, err := r.Items[i].toItem()
		if err != nil {
			return nil, err
		}
		if err := inv.AddItem(item); err != nil {
			return nil, err
		}
	}

	for _, dc := range r.GeneralDiscounts {
		if err := inv.AddGeneralDiscount(dc.toDiscountCharge()); err != nil {
			return nil, err
		}
	}
	for _, dc := range r.GeneralCharges {
		if err := inv.AddGeneralCharge(dc.toDiscountCharge()); err != nil {
			return nil, err
		}
	}

	for _, text := range r.LegalLiterals {
		inv.AddLegalLiteral(text)
	}
	for _, att := range r.Attachments {
		inv.AddAttachment(attachment.FromBytes(att.Name, att.Data), att.Description)
	}

	return inv, nil
}

func (p *PartyRequest) toParty() *party.Party {
	return &party.Party{
		Individual:   p.Individual,
		TaxNumber:    p.TaxNumber,
		Name:         p.Name,
		FirstSurname: p.FirstSurname,
		LastSurname:  p.LastSurname,
		Address:      p.Address,
		PostCode:     p.PostCode,
		Town:         p.Town,
		Province:     p.Province,
		CountryCode:  p.CountryCode,
		Email:        p.Email,
		Phone:        p.Phone,
	}
}

func (i *ItemRequest) toItem() (*model.LineItem, error) {
	item := &model.LineItem{
		Name:          i.Name,
		Description:   i.Description,
		ArticleCode:   i.ArticleCode,
		Quantity:      i.Quantity,
		UnitPrice:     i.UnitPrice,
		UnitOfMeasure: model.Unit(i.UnitOfMeasure),
	}
	for _, tax := range i.Taxes {
		item.AddTax(model.TaxCode(tax.Code), tax.Rate, tax.Surcharge)
	}
	for _, tax := range i.WithheldTaxes {
		item.AddWithheldTax(model.TaxCode(tax.Code), tax.Rate)
	}
	for _, dc := range i.Discounts {
		if err := item.AddDiscount(dc.toDiscountCharge()); err != nil {
			return nil, err
		}
	}
	for _, dc := range i.Charges {
		if err := item.AddCharge(dc.toDiscountCharge()); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (d *DiscountChargeRequest) toDiscountCharge() model.DiscountCharge {
	return model.DiscountCharge{Reason: d.Reason, Rate: d.Rate, Amount: d.Amount}
}

func parseDate(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, model.NewConfigError(field, "a date in YYYY-MM-DD form is required")
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(requestDateFormat, value)
	if err != nil {
		return time.Time{}, model.NewConfigError(field, "invalid date "+value+", expected YYYY-MM-DD")
	}
	return t, nil
}
