// Package export assembles a FacturaE invoice into its XML document.
//
// The element order, optional-field inclusion rules and numeric
// formatting are a contract with the official validators: byte-level
// compatibility matters, so nothing here is left to taste. Totals and
// XML are recomputed on every export call; mutating the invoice
// between two calls is always reflected.
package export

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae/internal/extension"
	"github.com/rezonia/facturae/internal/model"
	"github.com/rezonia/facturae/internal/money"
	"github.com/rezonia/facturae/internal/totals"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
	dateFormat     = "2006-01-02"
)

// Signer produces a signed variant of the assembled document. It
// receives the full unsigned XML text and returns the same document
// with an embedded signature block.
type Signer interface {
	Sign(xmlText string) (string, error)
}

// Exporter renders invoices. The zero value produces unsigned
// documents with the default precision tolerance.
type Exporter struct {
	// Signer signs the assembled document; nil exports unsigned.
	Signer Signer
	// Strict escalates precision warnings to errors.
	Strict bool
	// Tolerance overrides the default precision-loss tolerance when
	// positive.
	Tolerance decimal.Decimal
}

// Result is a finished export: the document text plus the totals and
// precision warnings produced while computing it.
type Result struct {
	XML      string
	Totals   *totals.Totals
	Warnings []money.Warning
}

// Validate checks the invoice holds everything an export needs. It
// runs before any XML is produced so a failing invoice never yields
// partial output.
func Validate(inv *model.Invoice) error {
	if !inv.Version.Valid() {
		return model.NewConfigError("version", "unsupported schema version "+string(inv.Version))
	}
	if inv.Number == "" {
		return model.NewConfigError("number", "an invoice number is required")
	}
	if inv.Serie == "" {
		return model.NewConfigError("serie", "an invoice serie is required")
	}
	if inv.IssueDate.IsZero() {
		return model.NewConfigError("issueDate", "an issue date is required")
	}
	if inv.Seller == nil {
		return model.NewConfigError("seller", "a seller is required")
	}
	if inv.Buyer == nil {
		return model.NewConfigError("buyer", "a buyer is required")
	}
	return nil
}

// Export assembles, signs and returns the invoice document.
func (e *Exporter) Export(inv *model.Invoice) (*Result, error) {
	dispatcher := extension.NewDispatcher(inv.Extensions())
	if err := dispatcher.BeforeExport(inv); err != nil {
		return nil, err
	}
	if err := Validate(inv); err != nil {
		return nil, err
	}

	rounder := &money.Rounder{Tolerance: e.Tolerance, Strict: e.Strict}
	tot, err := totals.Compute(inv, rounder)
	if err != nil {
		return nil, err
	}

	fragments, err := dispatcher.AdditionalData()
	if err != nil {
		return nil, err
	}

	root, err := assemble(inv, tot, fragments)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.SetRoot(root)
	xmlText, err := doc.WriteToString()
	if err != nil {
		return nil, err
	}

	xmlText, err = dispatcher.BeforeSign(xmlText)
	if err != nil {
		return nil, err
	}
	if e.Signer != nil {
		xmlText, err = e.Signer.Sign(xmlText)
		if err != nil {
			return nil, err
		}
	}
	xmlText, err = dispatcher.AfterSign(xmlText)
	if err != nil {
		return nil, err
	}

	return &Result{
		XML:      xmlDeclaration + "\n" + xmlText,
		Totals:   tot,
		Warnings: rounder.Warnings(),
	}, nil
}

// ExportTo exports the invoice and writes it to w, returning the
// number of bytes written.
func (e *Exporter) ExportTo(inv *model.Invoice, w io.Writer) (int, error) {
	res, err := e.Export(inv)
	if err != nil {
		return 0, err
	}
	return w.Write([]byte(res.XML))
}

func assemble(inv *model.Invoice, tot *totals.Totals, fragments []string) (*etree.Element, error) {
	version := string(inv.Version)

	root := etree.NewElement("fe:Facturae")
	root.CreateAttr("xmlns:ds", model.DSigNamespace)
	root.CreateAttr("xmlns:fe", model.SchemaNamespaces[inv.Version])

	fileHeader := root.CreateElement("FileHeader")
	fileHeader.CreateElement("SchemaVersion").SetText(version)
	fileHeader.CreateElement("Modality").SetText("I")
	fileHeader.CreateElement("InvoiceIssuerType").SetText("EM")

	batch := fileHeader.CreateElement("Batch")
	batch.CreateElement("BatchIdentifier").SetText(inv.Seller.TaxNumber + inv.Number + inv.Serie)
	batch.CreateElement("InvoicesCount").SetText("1")
	for _, tag := range []string{"TotalInvoicesAmount", "TotalOutstandingAmount", "TotalExecutableAmount"} {
		batch.CreateElement(tag).CreateElement("TotalAmount").SetText(money.Amount(tot.InvoiceAmount, version))
	}
	batch.CreateElement("InvoiceCurrencyCode").SetText(inv.Currency)

	if inv.Assignee != nil {
		factoring := fileHeader.CreateElement("FactoringAssignmentData")
		assignee := factoring.CreateElement("Assignee")
		inv.Assignee.AppendXML(assignee, version)
		appendPaymentDetails(factoring, inv, tot, version)
		if inv.AssignmentClauses != "" {
			factoring.CreateElement("FactoringAssignmentClauses").SetText(inv.AssignmentClauses)
		}
	}

	parties := root.CreateElement("Parties")
	inv.Seller.AppendXML(parties.CreateElement("SellerParty"), version)
	inv.Buyer.AppendXML(parties.CreateElement("BuyerParty"), version)

	invoice := root.CreateElement("Invoices").CreateElement("Invoice")

	header := invoice.CreateElement("InvoiceHeader")
	header.CreateElement("InvoiceNumber").SetText(inv.Number)
	header.CreateElement("InvoiceSeriesCode").SetText(inv.Serie)
	header.CreateElement("InvoiceDocumentType").SetText("FC")
	header.CreateElement("InvoiceClass").SetText("OO")

	issue := invoice.CreateElement("InvoiceIssueData")
	issue.CreateElement("IssueDate").SetText(inv.IssueDate.Format(dateFormat))
	if !inv.PeriodStart.IsZero() {
		period := issue.CreateElement("InvoicingPeriod")
		period.CreateElement("StartDate").SetText(inv.PeriodStart.Format(dateFormat))
		period.CreateElement("EndDate").SetText(inv.PeriodEnd.Format(dateFormat))
	}
	issue.CreateElement("InvoiceCurrencyCode").SetText(inv.Currency)
	// Tax currency is kept equal to the invoice currency.
	issue.CreateElement("TaxCurrencyCode").SetText(inv.Currency)
	issue.CreateElement("LanguageName").SetText(inv.Language)
	appendOptional(issue,
		field{"InvoiceDescription", inv.Description},
		field{"ReceiverTransactionReference", inv.ReceiverTransactionReference},
		field{"FileReference", inv.FileReference},
		field{"ReceiverContractReference", inv.ReceiverContractReference},
	)

	appendTaxGroup(invoice, "TaxesOutputs", tot.TaxesOutputs.Rows(), version)
	appendTaxGroup(invoice, "TaxesWithheld", tot.TaxesWithheld.Rows(), version)

	appendInvoiceTotals(invoice, tot, version)

	items := invoice.CreateElement("Items")
	for i, item := range inv.Items() {
		appendInvoiceLine(items, item, tot.Items[i], version)
	}

	appendPaymentDetails(invoice, inv, tot, version)

	if literals := inv.LegalLiterals(); len(literals) > 0 {
		block := invoice.CreateElement("LegalLiterals")
		for _, text := range literals {
			block.CreateElement("LegalReference").SetText(text)
		}
	}

	if err := appendAdditionalData(invoice, inv, fragments); err != nil {
		return nil, err
	}

	return root, nil
}

type field struct {
	tag   string
	value string
}

func appendOptional(parent *etree.Element, fields ...field) {
	for _, f := range fields {
		if f.value != "" {
			parent.CreateElement(f.tag).SetText(f.value)
		}
	}
}

func appendTaxGroup(parent *etree.Element, tag string, rows []model.TaxRow, version string) {
	if len(rows) == 0 {
		return
	}
	group := parent.CreateElement(tag)
	for _, row := range rows {
		tax := group.CreateElement("Tax")
		tax.CreateElement("TaxTypeCode").SetText(string(row.Code))
		tax.CreateElement("TaxRate").SetText(money.Pad(row.Rate, "Tax/Rate", version))
		tax.CreateElement("TaxableBase").CreateElement("TotalAmount").SetText(money.Pad(row.Base, "Tax/Base", version))
		tax.CreateElement("TaxAmount").CreateElement("TotalAmount").SetText(money.Pad(row.Amount, "Tax/Amount", version))
		if !row.Surcharge.IsZero() {
			tax.CreateElement("EquivalenceSurcharge").SetText(money.Pad(row.Surcharge, "Tax/Surcharge", version))
			tax.CreateElement("EquivalenceSurchargeAmount").CreateElement("TotalAmount").
				SetText(money.Pad(row.SurchargeAmount, "Tax/SurchargeAmount", version))
		}
	}
}

func appendInvoiceTotals(invoice *etree.Element, tot *totals.Totals, version string) {
	block := invoice.CreateElement("InvoiceTotals")
	block.CreateElement("TotalGrossAmount").SetText(money.Amount(tot.GrossAmount, version))

	appendGeneralGroup(block, "GeneralDiscounts", "Discount", tot.GeneralDiscounts, version)
	appendGeneralGroup(block, "GeneralSurcharges", "Charge", tot.GeneralCharges, version)

	block.CreateElement("TotalGeneralDiscounts").SetText(money.Amount(tot.TotalGeneralDiscounts, version))
	block.CreateElement("TotalGeneralSurcharges").SetText(money.Amount(tot.TotalGeneralCharges, version))
	block.CreateElement("TotalGrossAmountBeforeTaxes").SetText(money.Amount(tot.GrossAmountBeforeTaxes, version))
	block.CreateElement("TotalTaxOutputs").SetText(money.Amount(tot.TotalTaxesOutputs, version))
	block.CreateElement("TotalTaxesWithheld").SetText(money.Amount(tot.TotalTaxesWithheld, version))
	block.CreateElement("InvoiceTotal").SetText(money.Amount(tot.InvoiceAmount, version))
	block.CreateElement("TotalOutstandingAmount").SetText(money.Amount(tot.InvoiceAmount, version))
	block.CreateElement("TotalExecutableAmount").SetText(money.Amount(tot.InvoiceAmount, version))
}

func appendGeneralGroup(parent *etree.Element, groupTag, rowTag string, rows []model.ResolvedDiscountCharge, version string) {
	if len(rows) == 0 {
		return
	}
	group := parent.CreateElement(groupTag)
	for _, row := range rows {
		elem := group.CreateElement(rowTag)
		elem.CreateElement(rowTag + "Reason").SetText(row.Reason)
		if row.Rate != nil {
			elem.CreateElement(rowTag + "Rate").SetText(money.Pad(*row.Rate, "Discount/Rate", version))
		}
		elem.CreateElement(rowTag + "Amount").SetText(money.Pad(row.Amount, "Discount/Amount", version))
	}
}

func appendInvoiceLine(items *etree.Element, item *model.LineItem, data model.ItemData, version string) {
	line := items.CreateElement("InvoiceLine")

	appendOptional(line,
		field{"IssuerContractReference", item.IssuerContractReference},
		field{"IssuerContractDate", item.IssuerContractDate},
		field{"IssuerTransactionReference", item.IssuerTransactionReference},
		field{"IssuerTransactionDate", item.IssuerTransactionDate},
		field{"ReceiverContractReference", item.ReceiverContractReference},
		field{"ReceiverContractDate", item.ReceiverContractDate},
		field{"ReceiverTransactionReference", item.ReceiverTransactionReference},
		field{"ReceiverTransactionDate", item.ReceiverTransactionDate},
		field{"FileReference", item.FileReference},
		field{"FileDate", item.FileDate},
		field{"SequenceNumber", item.SequenceNumber},
	)

	line.CreateElement("ItemDescription").SetText(item.Name)
	line.CreateElement("Quantity").SetText(money.Pad(item.Quantity, "Item/Quantity", version))
	line.CreateElement("UnitOfMeasure").SetText(string(item.Unit()))
	line.CreateElement("UnitPriceWithoutTax").SetText(money.Pad(item.UnitPrice, "Item/UnitPriceWithoutTax", version))
	line.CreateElement("TotalCost").SetText(money.Pad(data.TotalAmountWithoutTax, "Item/TotalAmountWithoutTax", version))

	appendGeneralGroup(line, "DiscountsAndRebates", "Discount", data.Discounts, version)
	appendGeneralGroup(line, "Charges", "Charge", data.Charges, version)

	line.CreateElement("GrossAmount").SetText(money.Pad(data.GrossAmount, "Item/GrossAmount", version))

	// Withheld before outputs inside items. The order is the inverse
	// of the invoice-level blocks and is mandated by the official
	// validators; do not "fix" it.
	appendTaxGroup(line, "TaxesWithheld", data.TaxesWithheld, version)
	appendTaxGroup(line, "TaxesOutputs", data.TaxesOutputs, version)

	appendOptional(line,
		field{"AdditionalLineItemInformation", item.Description},
		field{"ArticleCode", item.ArticleCode},
	)
}

func appendPaymentDetails(parent *etree.Element, inv *model.Invoice, tot *totals.Totals, version string) {
	if inv.PaymentMethod == "" {
		return
	}

	dueDate := inv.DueDate
	if dueDate.IsZero() {
		dueDate = inv.IssueDate
	}

	installment := parent.CreateElement("PaymentDetails").CreateElement("Installment")
	installment.CreateElement("InstallmentDueDate").SetText(dueDate.Format(dateFormat))
	installment.CreateElement("InstallmentAmount").SetText(money.Amount(tot.InvoiceAmount, version))
	installment.CreateElement("PaymentMeans").SetText(string(inv.PaymentMethod))

	if inv.PaymentIBAN != "" {
		accountTag := "AccountToBeCredited"
		if inv.PaymentMethod == model.PaymentDebit {
			accountTag = "AccountToBeDebited"
		}
		account := installment.CreateElement(accountTag)
		account.CreateElement("IBAN").SetText(inv.PaymentIBAN)
		if inv.PaymentBIC != "" {
			account.CreateElement("BIC").SetText(inv.PaymentBIC)
		}
	}
}

func appendAdditionalData(invoice *etree.Element, inv *model.Invoice, fragments []string) error {
	attachments := inv.Attachments()
	hasData := len(fragments) > 0 || len(attachments) > 0 ||
		inv.RelatedInvoice != "" || inv.AdditionalInformation != ""
	if !hasData {
		return nil
	}

	block := invoice.CreateElement("AdditionalData")
	if inv.RelatedInvoice != "" {
		block.CreateElement("RelatedInvoice").SetText(inv.RelatedInvoice)
	}

	if len(attachments) > 0 {
		docs := block.CreateElement("RelatedDocuments")
		for _, att := range attachments {
			elem := docs.CreateElement("Attachment")
			elem.CreateElement("AttachmentCompressionAlgorithm").SetText("NONE")
			elem.CreateElement("AttachmentFormat").SetText(formatLabel(att.File.MimeType()))
			elem.CreateElement("AttachmentEncoding").SetText("BASE64")
			elem.CreateElement("AttachmentDescription").SetText(att.Description)
			elem.CreateElement("AttachmentData").SetText(base64.StdEncoding.EncodeToString(att.File.Data()))
		}
	}

	if inv.AdditionalInformation != "" {
		block.CreateElement("InvoiceAdditionalInformation").SetText(inv.AdditionalInformation)
	}

	if len(fragments) > 0 {
		doc := etree.NewDocument()
		if err := doc.ReadFromString("<Extensions>" + strings.Join(fragments, "") + "</Extensions>"); err != nil {
			return model.NewConfigError("extensions", "extension produced malformed additional data: "+err.Error())
		}
		block.AddChild(doc.Root())
	}

	return nil
}

// formatLabel derives the attachment format label from a MIME type:
// the subtype with any parameters stripped, e.g. "application/pdf"
// becomes "pdf".
func formatLabel(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	mime = strings.TrimSpace(mime)
	if idx := strings.LastIndexByte(mime, '/'); idx >= 0 {
		mime = mime[idx+1:]
	}
	return mime
}
