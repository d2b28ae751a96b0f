package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateCommunicationRequest defines the data needed to log an interaction.
type CreateCommunicationRequest struct {
	Type      domain.CommunicationType `json:"type" binding:"required,oneof=EMAIL PHONE SMS MEETING NOTE"`
	Subject   string                   `json:"subject"`
	Message   string                   `json:"message" binding:"required"`
	Direction domain.CommDirection     `json:"direction" binding:"required,oneof=inbound outbound"`
	LoanID    *string                  `json:"loanID"`
}

// ToCommunication maps the request onto a domain communication.
func (r CreateCommunicationRequest) ToCommunication() domain.Communication {
	return domain.Communication{
		Type:      r.Type,
		Subject:   r.Subject,
		Message:   r.Message,
		Direction: r.Direction,
		LoanID:    r.LoanID,
	}
}

// UpdateCommunicationRequest defines the mutable communication fields.
type UpdateCommunicationRequest struct {
	Subject *string                   `json:"subject"`
	Content *string                   `json:"message"`
	Type    *domain.CommunicationType `json:"type" binding:"omitempty,oneof=EMAIL PHONE SMS MEETING NOTE"`
}

// ToCommunicationPatch maps the request onto the service patch.
func (r UpdateCommunicationRequest) ToCommunicationPatch() portssvc.CommunicationPatch {
	return portssvc.CommunicationPatch{
		Subject: r.Subject,
		Content: r.Content,
		Type:    r.Type,
	}
}

// CommunicationResponse mirrors domain.Communication.
type CommunicationResponse struct {
	CommunicationID string                   `json:"communicationID"`
	Type            domain.CommunicationType `json:"type"`
	Subject         string                   `json:"subject,omitempty"`
	Message         string                   `json:"message"`
	Direction       domain.CommDirection     `json:"direction"`
	UserID          string                   `json:"userID"`
	LoanID          *string                  `json:"loanID,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// ToCommunicationResponse converts a domain.Communication to its wire
// representation.
func ToCommunicationResponse(c *domain.Communication) CommunicationResponse {
	return CommunicationResponse{
		CommunicationID: c.CommunicationID,
		Type:            c.Type,
		Subject:         c.Subject,
		Message:         c.Message,
		Direction:       c.Direction,
		UserID:          c.UserID,
		LoanID:          c.LoanID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ToListCommunicationResponse converts a slice of communications.
func ToListCommunicationResponse(comms []domain.Communication) []CommunicationResponse {
	res := make([]CommunicationResponse, len(comms))
	for i := range comms {
		res[i] = ToCommunicationResponse(&comms[i])
	}
	return res
}

// ListCommunicationsParams defines query parameters for the communication
// log. Period bounds the stats window; empty means all time.
type ListCommunicationsParams struct {
	ListParams
	LoanID    string                   `form:"loanID"`
	Type      domain.CommunicationType `form:"type" binding:"omitempty,oneof=EMAIL PHONE SMS MEETING NOTE"`
	Direction domain.CommDirection     `form:"direction" binding:"omitempty,oneof=inbound outbound"`
	Period    string                   `form:"period" binding:"omitempty,oneof=7d 30d 90d 1y"`
}

// ToCommunicationFilter maps the query parameters onto the repository
// filter, resolving the period against now.
func (p ListCommunicationsParams) ToCommunicationFilter(now time.Time) portsrepo.CommunicationFilter {
	f := portsrepo.CommunicationFilter{
		LoanID:    p.LoanID,
		Type:      p.Type,
		Direction: p.Direction,
		Page:      portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
	switch p.Period {
	case "7d":
		since := now.AddDate(0, 0, -7)
		f.Since = &since
	case "30d":
		since := now.AddDate(0, 0, -30)
		f.Since = &since
	case "90d":
		since := now.AddDate(0, 0, -90)
		f.Since = &since
	case "1y":
		since := now.AddDate(0, 0, -365)
		f.Since = &since
	}
	return f
}
