package domain

import "time"

// DocumentStatus tracks a required artifact from request to approval.
type DocumentStatus string

const (
	DocumentRequired DocumentStatus = "REQUIRED"
	DocumentPending  DocumentStatus = "PENDING"
	DocumentReceived DocumentStatus = "RECEIVED"
	DocumentReviewed DocumentStatus = "REVIEWED"
	DocumentApproved DocumentStatus = "APPROVED"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentRequired, DocumentPending, DocumentReceived, DocumentReviewed, DocumentApproved:
		return true
	}
	return false
}

// Document is a required or submitted artifact for a loan. FilePath is the
// object-storage key and is set only after a successful upload, at which
// point Status becomes RECEIVED.
type Document struct {
	DocumentID string         `json:"documentID"`
	LoanID     string         `json:"loanID"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Status     DocumentStatus `json:"status"`
	DueDate    *time.Time     `json:"dueDate,omitempty"`
	FilePath   string         `json:"-"`
	FileName   string         `json:"fileName,omitempty"`
	UploadedAt *time.Time     `json:"uploadedAt,omitempty"`
	AuditFields
}
