// Package party renders invoice parties (seller, buyer, assignee) as
// FacturaE XML fragments.
package party

import (
	"github.com/beevik/etree"
)

// AdministrativeCentre is an administrative centre of a party. Address
// fields left empty fall back to the owning party's address.
type AdministrativeCentre struct {
	Code         string
	Role         string
	Name         string
	FirstSurname string
	LastSurname  string
	Description  string

	Address     string
	PostCode    string
	Town        string
	Province    string
	CountryCode string
}

// Party is an entity that can act as the seller, buyer or assignee of
// an invoice. The zero value is a Spanish legal entity; set Individual
// for natural persons.
type Party struct {
	Individual bool
	TaxNumber  string
	Name       string

	// Individuals only
	FirstSurname string
	LastSurname  string

	// Legal entities only (registration data)
	Book                        string
	RegisterOfCompaniesLocation string
	Sheet                       string
	Folio                       string
	Section                     string
	Volume                      string

	Address     string
	PostCode    string
	Town        string
	Province    string
	CountryCode string // defaults to ESP

	Email         string
	Phone         string
	Fax           string
	Website       string
	ContactPeople string
	CnoCnae       string
	INETownCode   string

	Centres []AdministrativeCentre
}

func (p *Party) country() string {
	if p.CountryCode == "" {
		return "ESP"
	}
	return p.CountryCode
}

// AppendXML appends the party's FacturaE representation to parent.
// The schema version is accepted for forward compatibility; all
// currently supported revisions share the party layout.
func (p *Party) AppendXML(parent *etree.Element, version string) {
	_ = version

	taxID := parent.CreateElement("TaxIdentification")
	personType := "J"
	if p.Individual {
		personType = "F"
	}
	taxID.CreateElement("PersonTypeCode").SetText(personType)
	taxID.CreateElement("ResidenceTypeCode").SetText("R")
	taxID.CreateElement("TaxIdentificationNumber").SetText(p.TaxNumber)

	if len(p.Centres) > 0 {
		centres := parent.CreateElement("AdministrativeCentres")
		for _, c := range p.Centres {
			p.appendCentre(centres, c)
		}
	}

	if p.Individual {
		indiv := parent.CreateElement("Individual")
		indiv.CreateElement("Name").SetText(p.Name)
		indiv.CreateElement("FirstSurname").SetText(p.FirstSurname)
		indiv.CreateElement("SecondSurname").SetText(p.LastSurname)
		p.appendAddress(indiv, p.Address, p.PostCode, p.Town, p.Province, p.country())
		p.appendContactDetails(indiv)
		return
	}

	legal := parent.CreateElement("LegalEntity")
	legal.CreateElement("CorporateName").SetText(p.Name)
	p.appendRegistrationData(legal)
	p.appendAddress(legal, p.Address, p.PostCode, p.Town, p.Province, p.country())
	p.appendContactDetails(legal)
}

func (p *Party) appendRegistrationData(parent *etree.Element) {
	fields := []struct {
		tag   string
		value string
	}{
		{"Book", p.Book},
		{"RegisterOfCompaniesLocation", p.RegisterOfCompaniesLocation},
		{"Sheet", p.Sheet},
		{"Folio", p.Folio},
		{"Section", p.Section},
		{"Volume", p.Volume},
	}

	hasData := false
	for _, f := range fields {
		if f.value != "" {
			hasData = true
			break
		}
	}
	if !hasData {
		return
	}

	reg := parent.CreateElement("RegistrationData")
	for _, f := range fields {
		if f.value != "" {
			reg.CreateElement(f.tag).SetText(f.value)
		}
	}
}

func (p *Party) appendCentre(parent *etree.Element, c AdministrativeCentre) {
	centre := parent.CreateElement("AdministrativeCentre")
	centre.CreateElement("CentreCode").SetText(c.Code)
	centre.CreateElement("RoleTypeCode").SetText(c.Role)
	centre.CreateElement("Name").SetText(c.Name)
	if c.FirstSurname != "" {
		centre.CreateElement("FirstSurname").SetText(c.FirstSurname)
	}
	if c.LastSurname != "" {
		centre.CreateElement("SecondSurname").SetText(c.LastSurname)
	}

	// A centre with an incomplete address falls back to the party's.
	address, postCode, town, province := c.Address, c.PostCode, c.Town, c.Province
	country := c.CountryCode
	if address == "" || postCode == "" || town == "" || province == "" || country == "" {
		address, postCode, town, province = p.Address, p.PostCode, p.Town, p.Province
		country = p.country()
	}
	p.appendAddress(centre, address, postCode, town, province, country)

	if c.Description != "" {
		centre.CreateElement("CentreDescription").SetText(c.Description)
	}
}

func (p *Party) appendAddress(parent *etree.Element, address, postCode, town, province, country string) {
	if country == "ESP" {
		addr := parent.CreateElement("AddressInSpain")
		addr.CreateElement("Address").SetText(address)
		addr.CreateElement("PostCode").SetText(postCode)
		addr.CreateElement("Town").SetText(town)
		addr.CreateElement("Province").SetText(province)
		addr.CreateElement("CountryCode").SetText(country)
		return
	}

	addr := parent.CreateElement("OverseasAddress")
	addr.CreateElement("Address").SetText(address)
	addr.CreateElement("PostCodeAndTown").SetText(postCode + " " + town)
	addr.CreateElement("Province").SetText(province)
	addr.CreateElement("CountryCode").SetText(country)
}

func (p *Party) appendContactDetails(parent *etree.Element) {
	fields := []struct {
		tag   string
		value string
	}{
		{"Telephone", p.Phone},
		{"TeleFax", p.Fax},
		{"WebAddress", p.Website},
		{"ElectronicMail", p.Email},
		{"ContactPersons", p.ContactPeople},
		{"CnoCnae", p.CnoCnae},
		{"INETownCode", p.INETownCode},
	}

	hasDetails := false
	for _, f := range fields {
		if f.value != "" {
			hasDetails = true
			break
		}
	}
	if !hasDetails {
		return
	}

	details := parent.CreateElement("ContactDetails")
	for _, f := range fields {
		if f.value != "" {
			details.CreateElement(f.tag).SetText(f.value)
		}
	}
}
