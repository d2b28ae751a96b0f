package domain

// CommunicationType classifies a logged interaction.
type CommunicationType string

const (
	CommEmail   CommunicationType = "EMAIL"
	CommPhone   CommunicationType = "PHONE"
	CommSMS     CommunicationType = "SMS"
	CommMeeting CommunicationType = "MEETING"
	CommNote    CommunicationType = "NOTE"
)

func (t CommunicationType) IsValid() bool {
	switch t {
	case CommEmail, CommPhone, CommSMS, CommMeeting, CommNote:
		return true
	}
	return false
}

// CommDirection is inbound or outbound relative to the team.
type CommDirection string

const (
	DirectionInbound  CommDirection = "inbound"
	DirectionOutbound CommDirection = "outbound"
)

func (d CommDirection) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Communication is a logged interaction, optionally tied to a loan.
// It is always visible to its author; a loan officer additionally sees
// communications attached to their own loans.
type Communication struct {
	CommunicationID string            `json:"communicationID"`
	Type            CommunicationType `json:"type"`
	Subject         string            `json:"subject,omitempty"`
	Message         string            `json:"message"`
	Direction       CommDirection     `json:"direction"`
	UserID          string            `json:"userID"`
	LoanID          *string           `json:"loanID,omitempty"`
	AuditFields
}

// CommunicationStats aggregates logged interactions over a period.
type CommunicationStats struct {
	Total       int          `json:"total"`
	ByType      []GroupCount `json:"byType"`
	ByDirection []GroupCount `json:"byDirection"`
}
