package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateDocumentRequest defines the data needed to request a document.
type CreateDocumentRequest struct {
	LoanID  string                `json:"loanID" binding:"required"`
	Name    string                `json:"name" binding:"required"`
	Type    string                `json:"type"`
	Status  domain.DocumentStatus `json:"status" binding:"omitempty,oneof=REQUIRED PENDING RECEIVED REVIEWED APPROVED"`
	DueDate *time.Time            `json:"dueDate"`
}

// ToDocument maps the request onto a domain document.
func (r CreateDocumentRequest) ToDocument() domain.Document {
	return domain.Document{
		LoanID:  r.LoanID,
		Name:    r.Name,
		Type:    r.Type,
		Status:  r.Status,
		DueDate: r.DueDate,
	}
}

// UpdateDocumentRequest defines the mutable document fields.
type UpdateDocumentRequest struct {
	Name    *string                `json:"name"`
	Type    *string                `json:"type"`
	Status  *domain.DocumentStatus `json:"status" binding:"omitempty,oneof=REQUIRED PENDING RECEIVED REVIEWED APPROVED"`
	DueDate *time.Time             `json:"dueDate"`
}

// ToDocumentPatch maps the request onto the service patch.
func (r UpdateDocumentRequest) ToDocumentPatch() portssvc.DocumentPatch {
	return portssvc.DocumentPatch{
		Name:    r.Name,
		Type:    r.Type,
		Status:  r.Status,
		DueDate: r.DueDate,
	}
}

// DocumentResponse mirrors domain.Document.
type DocumentResponse struct {
	DocumentID string                `json:"documentID"`
	LoanID     string                `json:"loanID"`
	Name       string                `json:"name"`
	Type       string                `json:"type,omitempty"`
	Status     domain.DocumentStatus `json:"status"`
	DueDate    *time.Time            `json:"dueDate,omitempty"`
	FileName   string                `json:"fileName,omitempty"`
	UploadedAt *time.Time            `json:"uploadedAt,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// ToDocumentResponse converts a domain.Document to its wire representation.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		DocumentID: d.DocumentID,
		LoanID:     d.LoanID,
		Name:       d.Name,
		Type:       d.Type,
		Status:     d.Status,
		DueDate:    d.DueDate,
		FileName:   d.FileName,
		UploadedAt: d.UploadedAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// ToListDocumentResponse converts a slice of documents.
func ToListDocumentResponse(docs []domain.Document) []DocumentResponse {
	res := make([]DocumentResponse, len(docs))
	for i := range docs {
		res[i] = ToDocumentResponse(&docs[i])
	}
	return res
}

// ListDocumentsParams defines query parameters for listing documents.
type ListDocumentsParams struct {
	ListParams
	LoanID string                `form:"loanID"`
	Status domain.DocumentStatus `form:"status" binding:"omitempty,oneof=REQUIRED PENDING RECEIVED REVIEWED APPROVED"`
	Type   string                `form:"type"`
}

// ToDocumentFilter maps the query parameters onto the repository filter.
func (p ListDocumentsParams) ToDocumentFilter() portsrepo.DocumentFilter {
	return portsrepo.DocumentFilter{
		LoanID: p.LoanID,
		Status: p.Status,
		Type:   p.Type,
		Page:   portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
}
