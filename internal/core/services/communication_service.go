package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

type communicationService struct {
	BaseService
	commRepo portsrepo.CommunicationRepository
	loanRepo portsrepo.LoanRepository
	now      func() time.Time
}

type CommunicationServiceOption func(*communicationService)

// WithCommunicationClock overrides the service clock, for tests.
func WithCommunicationClock(now func() time.Time) CommunicationServiceOption {
	return func(s *communicationService) { s.now = now }
}

// NewCommunicationService creates the communication log service.
func NewCommunicationService(commRepo portsrepo.CommunicationRepository, loanRepo portsrepo.LoanRepository, opts ...CommunicationServiceOption) portssvc.CommunicationService {
	s := &communicationService{commRepo: commRepo, loanRepo: loanRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.CommunicationService = (*communicationService)(nil)

func (s *communicationService) CreateCommunication(ctx context.Context, actor *domain.User, comm domain.Communication) (*domain.Communication, error) {
	if comm.Message == "" || !comm.Type.IsValid() || !comm.Direction.IsValid() {
		return nil, apperrors.ErrValidation
	}
	if comm.LoanID != nil {
		if _, err := s.loanRepo.FindLoanByID(ctx, *comm.LoanID, access.ScopeFor(actor, access.ResourceLoan)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	comm.CommunicationID = uuid.NewString()
	comm.UserID = actor.UserID
	comm.CreatedAt = now
	comm.UpdatedAt = now

	if err := s.commRepo.SaveCommunication(ctx, comm); err != nil {
		s.LogError(ctx, err, "failed to create communication")
		return nil, err
	}
	return &comm, nil
}

// visible applies the read scope to a single row: in scope means the actor
// authored it, or it hangs off one of their loans, or the scope is open.
func commVisible(scope access.Scope, comm *domain.Communication) bool {
	if scope.Unrestricted {
		return true
	}
	if scope.UserID != "" && comm.UserID == scope.UserID {
		return true
	}
	return false
}

func (s *communicationService) GetCommunicationByID(ctx context.Context, actor *domain.User, commID string) (*domain.Communication, error) {
	comm, err := s.commRepo.FindCommunicationByID(ctx, commID)
	if err != nil {
		return nil, err
	}
	scope := access.ScopeFor(actor, access.ResourceCommunication)
	if commVisible(scope, comm) {
		return comm, nil
	}
	// Officers also see communications on their own loans.
	if scope.LoanOfficerID != "" && comm.LoanID != nil {
		if _, err := s.loanRepo.FindLoanByID(ctx, *comm.LoanID, access.Scope{LoanOfficerID: scope.LoanOfficerID}); err == nil {
			return comm, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *communicationService) ListCommunications(ctx context.Context, actor *domain.User, filter portsrepo.CommunicationFilter) ([]domain.Communication, int, error) {
	filter.Scope = access.ScopeFor(actor, access.ResourceCommunication)
	return s.commRepo.FindCommunications(ctx, filter)
}

func (s *communicationService) UpdateCommunication(ctx context.Context, actor *domain.User, commID string, patch portssvc.CommunicationPatch) (*domain.Communication, error) {
	comm, err := s.GetCommunicationByID(ctx, actor, commID)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateOwned(actor, comm.UserID) {
		return nil, apperrors.ErrForbidden
	}

	if patch.Subject != nil {
		comm.Subject = *patch.Subject
	}
	if patch.Content != nil {
		if *patch.Content == "" {
			return nil, apperrors.ErrValidation
		}
		comm.Message = *patch.Content
	}
	if patch.Type != nil {
		if !patch.Type.IsValid() {
			return nil, apperrors.ErrValidation
		}
		comm.Type = *patch.Type
	}
	comm.UpdatedAt = s.now()

	if err := s.commRepo.UpdateCommunication(ctx, *comm); err != nil {
		s.LogError(ctx, err, "failed to update communication", "communication_id", commID)
		return nil, err
	}
	return comm, nil
}

func (s *communicationService) DeleteCommunication(ctx context.Context, actor *domain.User, commID string) error {
	comm, err := s.GetCommunicationByID(ctx, actor, commID)
	if err != nil {
		return err
	}
	if !access.CanMutateOwned(actor, comm.UserID) {
		return apperrors.ErrForbidden
	}
	return s.commRepo.DeleteCommunication(ctx, commID)
}

func (s *communicationService) GetCommunicationStats(ctx context.Context, actor *domain.User, filter portsrepo.CommunicationFilter) (*domain.CommunicationStats, error) {
	filter.Scope = access.ScopeFor(actor, access.ResourceCommunication)
	return s.commRepo.SummarizeCommunications(ctx, filter)
}
