package domain

// LeadSource tracks where leads originate and how well they convert.
// ConversionRate is a percentage with 2 decimal places; it is 0 when
// TotalLeads is 0.
type LeadSource struct {
	SourceID       string  `json:"sourceID"`
	Name           string  `json:"name"`
	TotalLeads     int     `json:"totalLeads"`
	ConvertedLeads int     `json:"convertedLeads"`
	ConversionRate float64 `json:"conversionRate"`
	IsActive       bool    `json:"isActive"`
	AuditFields
}

// Contact is an external contact-management record, as seen by the CRM.
type Contact struct {
	ContactID string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Tags      []string `json:"tags"`
}

// FullName joins the contact's name parts, tolerating missing ones.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// LoanTypeFromTags maps contact tags onto a loan program; CONVENTIONAL when
// no program tag is present.
func (c *Contact) LoanTypeFromTags() LoanType {
	for _, tag := range c.Tags {
		switch tag {
		case "FHA":
			return LoanFHA
		case "VA":
			return LoanVA
		case "USDA":
			return LoanUSDA
		case "Jumbo":
			return LoanJumbo
		}
	}
	return LoanConventional
}
