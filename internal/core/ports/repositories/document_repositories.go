package repositories

import (
	"context"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
)

// DocumentRepository persists document metadata. File bytes live in object
// storage, keyed by the document's FilePath.
type DocumentRepository interface {
	SaveDocument(ctx context.Context, doc domain.Document) error
	FindDocumentByID(ctx context.Context, documentID string, scope access.Scope) (*domain.Document, error)
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]domain.Document, int, error)
	UpdateDocument(ctx context.Context, doc domain.Document) error
	DeleteDocument(ctx context.Context, documentID string) error
	CountDocumentsByStatus(ctx context.Context, scope access.Scope) ([]domain.GroupCount, error)
}
