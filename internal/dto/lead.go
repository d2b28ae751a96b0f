package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// ContactResponse mirrors an upstream contact record.
type ContactResponse struct {
	ContactID string   `json:"contactID"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Address   string   `json:"address,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ToListContactResponse converts upstream contacts.
func ToListContactResponse(contacts []domain.Contact) []ContactResponse {
	res := make([]ContactResponse, len(contacts))
	for i, c := range contacts {
		res[i] = ContactResponse{
			ContactID: c.ContactID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			Address:   c.Address,
			Tags:      c.Tags,
		}
	}
	return res
}

// ImportLeadRequest names the optional source the lead is attributed to.
type ImportLeadRequest struct {
	Source string `json:"source"`
}

// CreateLeadSourceRequest defines the data needed to register a source.
type CreateLeadSourceRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateLeadSourceRequest defines the mutable source fields.
type UpdateLeadSourceRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

// LeadSourceResponse mirrors domain.LeadSource.
type LeadSourceResponse struct {
	SourceID       string    `json:"sourceID"`
	Name           string    `json:"name"`
	TotalLeads     int       `json:"totalLeads"`
	ConvertedLeads int       `json:"convertedLeads"`
	ConversionRate float64   `json:"conversionRate"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToLeadSourceResponse converts a domain.LeadSource to its wire
// representation.
func ToLeadSourceResponse(s *domain.LeadSource) LeadSourceResponse {
	return LeadSourceResponse{
		SourceID:       s.SourceID,
		Name:           s.Name,
		TotalLeads:     s.TotalLeads,
		ConvertedLeads: s.ConvertedLeads,
		ConversionRate: s.ConversionRate,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToListLeadSourceResponse converts a slice of lead sources.
func ToListLeadSourceResponse(sources []domain.LeadSource) []LeadSourceResponse {
	res := make([]LeadSourceResponse, len(sources))
	for i := range sources {
		res[i] = ToLeadSourceResponse(&sources[i])
	}
	return res
}
