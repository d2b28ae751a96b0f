package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/utils"
)

type loanService struct {
	BaseService
	loanRepo portsrepo.LoanRepository
	now      func() time.Time
}

type LoanServiceOption func(*loanService)

// WithLoanClock overrides the service clock, for tests.
func WithLoanClock(now func() time.Time) LoanServiceOption {
	return func(s *loanService) { s.now = now }
}

// NewLoanService creates the loan pipeline service.
func NewLoanService(loanRepo portsrepo.LoanRepository, opts ...LoanServiceOption) portssvc.LoanService {
	s := &loanService{loanRepo: loanRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LoanService = (*loanService)(nil)

func (s *loanService) CreateLoan(ctx context.Context, actor *domain.User, input portssvc.CreateLoanInput) (*domain.Loan, error) {
	if !access.Can(actor, access.ActionCreate, access.ResourceLoan) {
		return nil, apperrors.ErrForbidden
	}
	if input.BorrowerName == "" || input.LoanAmount.IsNegative() || input.LoanAmount.IsZero() {
		return nil, apperrors.ErrValidation
	}
	if input.LoanType != "" && !input.LoanType.IsValid() {
		return nil, apperrors.ErrValidation
	}
	if input.LoanType == "" {
		input.LoanType = domain.LoanConventional
	}

	officerID := input.LoanOfficerID
	// Officers always own their own loans; assistants may file for an officer.
	if officerID == "" || actor.PrimaryRole == domain.RoleLO {
		officerID = actor.UserID
	}

	now := s.now()
	loan := domain.Loan{
		LoanID:          uuid.NewString(),
		LoanNumber:      utils.GenerateLoanNumber(now),
		BorrowerName:    input.BorrowerName,
		BorrowerEmail:   input.BorrowerEmail,
		BorrowerPhone:   input.BorrowerPhone,
		PropertyAddress: input.PropertyAddress,
		LoanType:        input.LoanType,
		LoanAmount:      input.LoanAmount,
		CurrentStage:    domain.StageNewLead,
		Status:          domain.LoanOnTrack,
		Progress:        0,
		TimeInStage:     0,
		LoanOfficerID:   officerID,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if input.TargetCloseDate != nil {
		loan.TargetCloseDate = *input.TargetCloseDate
	} else {
		loan.TargetCloseDate = now.AddDate(0, 0, 45)
	}

	if err := s.loanRepo.CreateLoanWithStage(ctx, loan, nil); err != nil {
		s.LogError(ctx, err, "failed to create loan")
		return nil, err
	}
	s.LogInfo(ctx, "loan created", "loan_id", loan.LoanID, "loan_number", loan.LoanNumber)
	return &loan, nil
}

func (s *loanService) GetLoanByID(ctx context.Context, actor *domain.User, loanID string) (*domain.Loan, error) {
	return s.loanRepo.FindLoanByID(ctx, loanID, access.ScopeFor(actor, access.ResourceLoan))
}

func (s *loanService) ListLoans(ctx context.Context, actor *domain.User, filter portsrepo.LoanFilter) ([]domain.Loan, int, error) {
	filter.Scope = access.ScopeFor(actor, access.ResourceLoan)
	return s.loanRepo.FindLoans(ctx, filter)
}

// UpdateLoan applies the patch; when the patch moves the loan to a different
// stage, the stage history advances atomically. Setting the same stage the
// loan is already in writes no history.
func (s *loanService) UpdateLoan(ctx context.Context, actor *domain.User, loanID string, patch portssvc.LoanPatch) (*domain.Loan, error) {
	if !access.Can(actor, access.ActionUpdate, access.ResourceLoan) {
		return nil, apperrors.ErrForbidden
	}
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID, access.ScopeFor(actor, access.ResourceLoan))
	if err != nil {
		return nil, err
	}

	if patch.BorrowerName != nil {
		loan.BorrowerName = *patch.BorrowerName
	}
	if patch.BorrowerEmail != nil {
		loan.BorrowerEmail = *patch.BorrowerEmail
	}
	if patch.BorrowerPhone != nil {
		loan.BorrowerPhone = *patch.BorrowerPhone
	}
	if patch.PropertyAddress != nil {
		loan.PropertyAddress = *patch.PropertyAddress
	}
	if patch.LoanType != nil {
		if !patch.LoanType.IsValid() {
			return nil, apperrors.ErrValidation
		}
		loan.LoanType = *patch.LoanType
	}
	if patch.LoanAmount != nil {
		if patch.LoanAmount.IsNegative() || patch.LoanAmount.IsZero() {
			return nil, apperrors.ErrValidation
		}
		loan.LoanAmount = *patch.LoanAmount
	}
	if patch.TargetCloseDate != nil {
		loan.TargetCloseDate = *patch.TargetCloseDate
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, apperrors.ErrValidation
		}
		loan.Status = *patch.Status
	}
	if patch.Progress != nil {
		if *patch.Progress < 0 || *patch.Progress > 100 {
			return nil, apperrors.ErrValidation
		}
		loan.Progress = *patch.Progress
	}

	stageChanged := false
	if patch.CurrentStage != nil && *patch.CurrentStage != loan.CurrentStage {
		if *patch.CurrentStage == "" {
			return nil, apperrors.ErrValidation
		}
		loan.CurrentStage = *patch.CurrentStage
		stageChanged = true
	}

	now := s.now()
	loan.UpdatedAt = now
	if stageChanged {
		loan.TimeInStage = 0
	}

	if err := s.loanRepo.UpdateLoan(ctx, *loan, stageChanged, now); err != nil {
		s.LogError(ctx, err, "failed to update loan", "loan_id", loanID)
		return nil, err
	}
	if stageChanged {
		s.LogInfo(ctx, "loan stage changed", "loan_id", loanID, "stage", loan.CurrentStage)
	}
	return loan, nil
}

func (s *loanService) DeleteLoan(ctx context.Context, actor *domain.User, loanID string) error {
	if !access.Can(actor, access.ActionDelete, access.ResourceLoan) {
		return apperrors.ErrForbidden
	}
	if _, err := s.loanRepo.FindLoanByID(ctx, loanID, access.ScopeFor(actor, access.ResourceLoan)); err != nil {
		return err
	}
	if err := s.loanRepo.DeleteLoanCascade(ctx, loanID); err != nil {
		s.LogError(ctx, err, "failed to delete loan", "loan_id", loanID)
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	s.LogInfo(ctx, "loan deleted", "loan_id", loanID)
	return nil
}

func (s *loanService) GetStageHistory(ctx context.Context, actor *domain.User, loanID string) ([]domain.StageHistoryEntry, error) {
	// Existence within scope first, so out-of-scope ids read as absent.
	if _, err := s.loanRepo.FindLoanByID(ctx, loanID, access.ScopeFor(actor, access.ResourceLoan)); err != nil {
		return nil, err
	}
	return s.loanRepo.FindStageHistory(ctx, loanID)
}

func (s *loanService) GetPipelineSummary(ctx context.Context, actor *domain.User, loanOfficerID string) ([]domain.PipelineStageSummary, error) {
	return s.loanRepo.GroupByStage(ctx, access.ScopeFor(actor, access.ResourceLoan), loanOfficerID)
}
