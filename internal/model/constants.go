package model

// SchemaVersion is a supported FacturaE schema revision.
type SchemaVersion string

// Supported schema revisions.
const (
	Schema32  SchemaVersion = "3.2"
	Schema321 SchemaVersion = "3.2.1"
	Schema322 SchemaVersion = "3.2.2"
)

// DefaultSchema is the revision used when none is specified.
const DefaultSchema = Schema321

// SchemaNamespaces maps each schema revision to its invoice-body
// namespace URI. The URIs are mandated verbatim by the format.
var SchemaNamespaces = map[SchemaVersion]string{
	Schema32:  "http://www.facturae.es/Facturae/2009/v3.2/Facturae",
	Schema321: "http://www.facturae.es/Facturae/2014/v3.2.1/Facturae",
	Schema322: "http://www.facturae.gob.es/formato/Versiones/Facturaev3_2_2.xml",
}

// DSigNamespace is the XML digital signature namespace.
const DSigNamespace = "http://www.w3.org/2000/09/xmldsig#"

// Valid reports whether v is a supported schema revision.
func (v SchemaVersion) Valid() bool {
	_, ok := SchemaNamespaces[v]
	return ok
}

// PaymentMeans is a FacturaE payment method code.
type PaymentMeans string

// Payment method codes.
const (
	PaymentCash                   PaymentMeans = "01"
	PaymentDebit                  PaymentMeans = "02"
	PaymentReceipt                PaymentMeans = "03"
	PaymentTransfer               PaymentMeans = "04"
	PaymentAcceptedBillOfExchange PaymentMeans = "05"
	PaymentDocumentaryCredit      PaymentMeans = "06"
	PaymentContractAward          PaymentMeans = "07"
	PaymentBillOfExchange         PaymentMeans = "08"
	PaymentTransferableIOU        PaymentMeans = "09"
	PaymentIOU                    PaymentMeans = "10"
	PaymentCheque                 PaymentMeans = "11"
	PaymentReimbursement          PaymentMeans = "12"
	PaymentSpecial                PaymentMeans = "13"
	PaymentSetoff                 PaymentMeans = "14"
	PaymentPostgiro               PaymentMeans = "15"
	PaymentCertifiedCheque        PaymentMeans = "16"
	PaymentBankersDraft           PaymentMeans = "17"
	PaymentCashOnDelivery         PaymentMeans = "18"
	PaymentCard                   PaymentMeans = "19"
)

// TaxCode is a FacturaE tax type code.
type TaxCode string

// Tax type codes.
const (
	TaxIVA      TaxCode = "01"
	TaxIPSI     TaxCode = "02"
	TaxIGIC     TaxCode = "03"
	TaxIRPF     TaxCode = "04"
	TaxOther    TaxCode = "05"
	TaxITPAJD   TaxCode = "06"
	TaxIE       TaxCode = "07"
	TaxRA       TaxCode = "08"
	TaxIGTECM   TaxCode = "09"
	TaxIECDPCAC TaxCode = "10"
	TaxIIIMAB   TaxCode = "11"
	TaxICIO     TaxCode = "12"
	TaxIMVDN    TaxCode = "13"
	TaxIMSN     TaxCode = "14"
	TaxIMGSN    TaxCode = "15"
	TaxIMPN     TaxCode = "16"
	TaxREIVA    TaxCode = "17"
	TaxREIGIC   TaxCode = "18"
	TaxREIPSI   TaxCode = "19"
	TaxIPS      TaxCode = "20"
	TaxRLEA     TaxCode = "21"
	TaxIVPEE    TaxCode = "22"
	TaxIPCNG    TaxCode = "23"
	TaxIACNG    TaxCode = "24"
	TaxIDEC     TaxCode = "25"
	TaxILTCAC   TaxCode = "26"
	TaxIGFEI    TaxCode = "27"
	TaxIRNR     TaxCode = "28"
	TaxISS      TaxCode = "29"
)

// Unit is a FacturaE unit-of-measure code.
type Unit string

// Unit of measure codes.
const (
	UnitDefault     Unit = "01"
	UnitHours       Unit = "02"
	UnitKilograms   Unit = "03"
	UnitLiters      Unit = "04"
	UnitOther       Unit = "05"
	UnitBoxes       Unit = "06"
	UnitTrays       Unit = "07"
	UnitBarrels     Unit = "08"
	UnitJerricans   Unit = "09"
	UnitBags        Unit = "10"
	UnitCarboys     Unit = "11"
	UnitBottles     Unit = "12"
	UnitCanisters   Unit = "13"
	UnitTetraBriks  Unit = "14"
	UnitCentiliters Unit = "15"
	UnitCentimeters Unit = "16"
	UnitBins        Unit = "17"
	UnitDozens      Unit = "18"
	UnitCases       Unit = "19"
	UnitDemijohns   Unit = "20"
	UnitGrams       Unit = "21"
	UnitKilometers  Unit = "22"
	UnitCans        Unit = "23"
	UnitBunches     Unit = "24"
	UnitMeters      Unit = "25"
	UnitMillimeters Unit = "26"
	UnitSixPacks    Unit = "27"
	UnitPackages    Unit = "28"
	UnitPortions    Unit = "29"
	UnitRolls       Unit = "30"
	UnitEnvelopes   Unit = "31"
	UnitTubs        Unit = "32"
	UnitCubicMeters Unit = "33"
	UnitSeconds     Unit = "34"
	UnitWatts       Unit = "35"
	UnitKWh         Unit = "36"
)
