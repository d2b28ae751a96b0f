package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/platform/leadconnector"
	"github.com/harborlend/loancrm/internal/utils"
)

// defaultLeadAmount seeds imported loans before an officer quotes a real
// figure.
var defaultLeadAmount = decimal.NewFromInt(250000)

type leadService struct {
	BaseService
	contacts   leadconnector.ContactClient
	loanRepo   portsrepo.LoanRepository
	sourceRepo portsrepo.LeadSourceRepository
	now        func() time.Time
}

type LeadServiceOption func(*leadService)

// WithLeadClock overrides the service clock, for tests.
func WithLeadClock(now func() time.Time) LeadServiceOption {
	return func(s *leadService) { s.now = now }
}

// NewLeadService creates the lead import/sync service.
func NewLeadService(contacts leadconnector.ContactClient, loanRepo portsrepo.LoanRepository, sourceRepo portsrepo.LeadSourceRepository, opts ...LeadServiceOption) portssvc.LeadService {
	s := &leadService{contacts: contacts, loanRepo: loanRepo, sourceRepo: sourceRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LeadService = (*leadService)(nil)

func (s *leadService) ListExternalContacts(ctx context.Context, actor *domain.User, query string, limit int) ([]domain.Contact, int, error) {
	if !access.Can(actor, access.ActionRead, access.ResourceLead) {
		return nil, 0, apperrors.ErrForbidden
	}
	if query != "" {
		contacts, err := s.contacts.SearchContacts(ctx, query)
		if err != nil {
			return nil, 0, err
		}
		return contacts, len(contacts), nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.contacts.GetContacts(ctx, limit, 0)
}

// ImportLead pulls the contact from the upstream service and materialises it
// as a loan in "New Lead" with its initial stage entry and a next-day HIGH
// follow-up call, all in one local transaction. The upstream fetch happens
// first: an upstream failure never leaves partial local state.
func (s *leadService) ImportLead(ctx context.Context, actor *domain.User, contactID, sourceName string) (*domain.Loan, error) {
	if !access.Can(actor, access.ActionCreate, access.ResourceLead) {
		return nil, apperrors.ErrForbidden
	}

	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "failed to fetch contact", "contact_id", contactID)
		}
		return nil, err
	}

	now := s.now()
	loan := domain.Loan{
		LoanID:          uuid.NewString(),
		LoanNumber:      utils.GenerateLoanNumber(now),
		BorrowerName:    contact.FullName(),
		BorrowerEmail:   contact.Email,
		BorrowerPhone:   contact.Phone,
		PropertyAddress: contact.Address,
		LoanType:        contact.LoanTypeFromTags(),
		LoanAmount:      defaultLeadAmount,
		TargetCloseDate: now.AddDate(0, 0, 45),
		CurrentStage:    domain.StageNewLead,
		Status:          domain.LoanOnTrack,
		LoanOfficerID:   actor.UserID,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if loan.BorrowerName == "" {
		loan.BorrowerName = "Unknown Contact"
	}

	due := now.AddDate(0, 0, 1)
	followUp := domain.Task{
		TaskID:      uuid.NewString(),
		Title:       "Call " + loan.BorrowerName,
		Description: "Initial outreach for imported lead",
		Category:    "Call",
		Type:        "Call",
		Priority:    domain.PriorityHigh,
		Status:      domain.TaskPending,
		DueDate:     &due,
		UserID:      actor.UserID,
		LoanID:      &loan.LoanID,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.loanRepo.CreateLoanWithStage(ctx, loan, &followUp); err != nil {
		s.LogError(ctx, err, "failed to import lead", "contact_id", contactID)
		return nil, err
	}

	// Source attribution is best-effort bookkeeping, never fatal.
	if sourceName != "" {
		if src, err := s.sourceRepo.FindLeadSourceByName(ctx, sourceName); err == nil {
			if err := s.sourceRepo.IncrementLeadCounts(ctx, src.SourceID, 1, 0); err != nil {
				s.LogError(ctx, err, "failed to attribute lead source", "source", sourceName)
			}
		}
	}

	s.LogInfo(ctx, "lead imported", "contact_id", contactID, "loan_id", loan.LoanID)
	return &loan, nil
}

// SyncContact pushes the loan's borrower fields back to the contact service,
// updating the contact found by email or creating a fresh one.
func (s *leadService) SyncContact(ctx context.Context, actor *domain.User, loanID string) (*domain.Loan, error) {
	if !access.Can(actor, access.ActionCreate, access.ResourceLead) {
		return nil, apperrors.ErrForbidden
	}
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID, access.ScopeFor(actor, access.ResourceLoan))
	if err != nil {
		return nil, err
	}
	if loan.BorrowerEmail == "" {
		return nil, apperrors.ErrValidation
	}

	first, last := splitName(loan.BorrowerName)
	payload := domain.Contact{
		FirstName: first,
		LastName:  last,
		Email:     loan.BorrowerEmail,
		Phone:     loan.BorrowerPhone,
		Address:   loan.PropertyAddress,
		Tags:      []string{string(loan.LoanType)},
	}

	matches, err := s.contacts.SearchContacts(ctx, loan.BorrowerEmail)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		if _, err := s.contacts.UpdateContact(ctx, matches[0].ContactID, payload); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.contacts.CreateContact(ctx, payload); err != nil {
			return nil, err
		}
	}
	s.LogInfo(ctx, "contact synced", "loan_id", loanID)
	return loan, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *leadService) ListLeadSources(ctx context.Context, actor *domain.User, activeOnly bool) ([]domain.LeadSource, error) {
	if !access.Can(actor, access.ActionRead, access.ResourceLeadSource) {
		return nil, apperrors.ErrForbidden
	}
	return s.sourceRepo.FindLeadSources(ctx, activeOnly)
}

func (s *leadService) CreateLeadSource(ctx context.Context, actor *domain.User, name string) (*domain.LeadSource, error) {
	if !access.Can(actor, access.ActionCreate, access.ResourceLeadSource) {
		return nil, apperrors.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrValidation
	}

	now := s.now()
	src := domain.LeadSource{
		SourceID: uuid.NewString(),
		Name:     name,
		IsActive: true,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if err := s.sourceRepo.SaveLeadSource(ctx, src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *leadService) UpdateLeadSource(ctx context.Context, actor *domain.User, sourceID string, name *string, active *bool) (*domain.LeadSource, error) {
	if !access.Can(actor, access.ActionUpdate, access.ResourceLeadSource) {
		return nil, apperrors.ErrForbidden
	}
	src, err := s.sourceRepo.FindLeadSourceByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.ErrValidation
		}
		src.Name = trimmed
	}
	if active != nil {
		src.IsActive = *active
	}
	src.UpdatedAt = s.now()
	if err := s.sourceRepo.UpdateLeadSource(ctx, *src); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *leadService) DeleteLeadSource(ctx context.Context, actor *domain.User, sourceID string) error {
	if !access.Can(actor, access.ActionDelete, access.ResourceLeadSource) {
		return apperrors.ErrForbidden
	}
	return s.sourceRepo.DeleteLeadSource(ctx, sourceID)
}
