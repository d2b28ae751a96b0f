package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/platform/storage"
)

type documentService struct {
	BaseService
	docRepo  portsrepo.DocumentRepository
	loanRepo portsrepo.LoanRepository
	store    storage.ObjectStore
	cfg      *config.Config
	now      func() time.Time
}

type DocumentServiceOption func(*documentService)

// WithDocumentClock overrides the service clock, for tests.
func WithDocumentClock(now func() time.Time) DocumentServiceOption {
	return func(s *documentService) { s.now = now }
}

// NewDocumentService creates the document metadata and upload service.
func NewDocumentService(docRepo portsrepo.DocumentRepository, loanRepo portsrepo.LoanRepository, store storage.ObjectStore, cfg *config.Config, opts ...DocumentServiceOption) portssvc.DocumentService {
	s := &documentService{docRepo: docRepo, loanRepo: loanRepo, store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.DocumentService = (*documentService)(nil)

func (s *documentService) CreateDocument(ctx context.Context, actor *domain.User, doc domain.Document) (*domain.Document, error) {
	if doc.Name == "" || doc.LoanID == "" {
		return nil, apperrors.ErrValidation
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentRequired
	}
	if !doc.Status.IsValid() {
		return nil, apperrors.ErrValidation
	}
	// The owning loan must be visible to the caller.
	if _, err := s.loanRepo.FindLoanByID(ctx, doc.LoanID, access.ScopeFor(actor, access.ResourceLoan)); err != nil {
		return nil, err
	}

	now := s.now()
	doc.DocumentID = uuid.NewString()
	doc.FilePath = ""
	doc.FileName = ""
	doc.UploadedAt = nil
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := s.docRepo.SaveDocument(ctx, doc); err != nil {
		s.LogError(ctx, err, "failed to create document")
		return nil, err
	}
	return &doc, nil
}

func (s *documentService) GetDocumentByID(ctx context.Context, actor *domain.User, documentID string) (*domain.Document, error) {
	return s.docRepo.FindDocumentByID(ctx, documentID, access.ScopeFor(actor, access.ResourceDocument))
}

func (s *documentService) ListDocuments(ctx context.Context, actor *domain.User, filter portsrepo.DocumentFilter) ([]domain.Document, int, error) {
	filter.Scope = access.ScopeFor(actor, access.ResourceDocument)
	return s.docRepo.FindDocuments(ctx, filter)
}

func (s *documentService) UpdateDocument(ctx context.Context, actor *domain.User, documentID string, patch portssvc.DocumentPatch) (*domain.Document, error) {
	doc, err := s.GetDocumentByID(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperrors.ErrValidation
		}
		doc.Name = *patch.Name
	}
	if patch.Type != nil {
		doc.Type = *patch.Type
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, apperrors.ErrValidation
		}
		doc.Status = *patch.Status
	}
	if patch.DueDate != nil {
		doc.DueDate = patch.DueDate
	}
	doc.UpdatedAt = s.now()

	if err := s.docRepo.UpdateDocument(ctx, *doc); err != nil {
		s.LogError(ctx, err, "failed to update document", "document_id", documentID)
		return nil, err
	}
	return doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, actor *domain.User, documentID string) error {
	doc, err := s.GetDocumentByID(ctx, actor, documentID)
	if err != nil {
		return err
	}
	if err := s.docRepo.DeleteDocument(ctx, documentID); err != nil {
		s.LogError(ctx, err, "failed to delete document", "document_id", documentID)
		return err
	}
	// The stored object is removed best-effort: a dangling object is
	// preferable to a dangling database row.
	if doc.FilePath != "" && s.store != nil {
		if err := s.store.Remove(ctx, doc.FilePath); err != nil {
			s.LogError(ctx, err, "failed to remove stored object", "document_id", documentID, "key", doc.FilePath)
		}
	}
	return nil
}

// allowedExtension checks the file name against the configured allow-list.
func (s *documentService) allowedExtension(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpeg", ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func (s *documentService) Upload(ctx context.Context, actor *domain.User, documentID, fileName string, size int64, r io.Reader) (*domain.Document, error) {
	doc, err := s.GetDocumentByID(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}
	if size <= 0 || size > s.cfg.MaxUploadBytes {
		return nil, apperrors.ErrValidation
	}
	if !s.allowedExtension(fileName) {
		return nil, apperrors.ErrValidation
	}
	if s.store == nil {
		return nil, apperrors.NewAppError(500, "document storage is not configured", nil)
	}

	key := fmt.Sprintf("loans/%s/%s%s", doc.LoanID, doc.DocumentID, strings.ToLower(filepath.Ext(fileName)))
	if err := s.store.Put(ctx, key, r, size, contentTypeFor(fileName)); err != nil {
		s.LogError(ctx, err, "failed to store uploaded file", "document_id", documentID)
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	now := s.now()
	doc.FilePath = key
	doc.FileName = fileName
	doc.UploadedAt = &now
	doc.Status = domain.DocumentReceived
	doc.UpdatedAt = now

	if err := s.docRepo.UpdateDocument(ctx, *doc); err != nil {
		s.LogError(ctx, err, "failed to record upload", "document_id", documentID)
		return nil, err
	}
	s.LogInfo(ctx, "document uploaded", "document_id", documentID, "key", key)
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, actor *domain.User, documentID string) (io.ReadCloser, *domain.Document, error) {
	doc, err := s.GetDocumentByID(ctx, actor, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath == "" {
		return nil, nil, apperrors.ErrNotFound
	}
	if s.store == nil {
		return nil, nil, apperrors.NewAppError(500, "document storage is not configured", nil)
	}
	rc, err := s.store.Get(ctx, doc.FilePath)
	if err != nil {
		s.LogError(ctx, err, "failed to fetch stored file", "document_id", documentID)
		return nil, nil, fmt.Errorf("failed to fetch stored file: %w", err)
	}
	return rc, doc, nil
}
