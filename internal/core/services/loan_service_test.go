package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
)

// --- Mock LoanRepository ---
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) CreateLoanWithStage(ctx context.Context, loan domain.Loan, followUp *domain.Task) error {
	args := m.Called(ctx, loan, followUp)
	return args.Error(0)
}

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string, scope access.Scope) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindLoans(ctx context.Context, filter portsrepo.LoanFilter) ([]domain.Loan, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Loan), args.Int(1), args.Error(2)
}

func (m *MockLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan, stageChanged bool, now time.Time) error {
	args := m.Called(ctx, loan, stageChanged, now)
	return args.Error(0)
}

func (m *MockLoanRepository) DeleteLoanCascade(ctx context.Context, loanID string) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

func (m *MockLoanRepository) FindStageHistory(ctx context.Context, loanID string) ([]domain.StageHistoryEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StageHistoryEntry), args.Error(1)
}

func (m *MockLoanRepository) GroupByStage(ctx context.Context, scope access.Scope, loanOfficerID string) ([]domain.PipelineStageSummary, error) {
	args := m.Called(ctx, scope, loanOfficerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PipelineStageSummary), args.Error(1)
}

// --- test actors ---

func newOfficer() *domain.User {
	return &domain.User{
		UserID:      uuid.NewString(),
		Email:       "officer@example.com",
		Name:        "Test Officer",
		PrimaryRole: domain.RoleLO,
		Permissions: []domain.Role{domain.RoleLO},
		IsActive:    true,
	}
}

func newAdmin() *domain.User {
	return &domain.User{
		UserID:      uuid.NewString(),
		Email:       "admin@example.com",
		Name:        "Test Admin",
		PrimaryRole: domain.RoleAdmin,
		Permissions: []domain.Role{domain.RoleAdmin},
		IsActive:    true,
	}
}

func newPartner() *domain.User {
	return &domain.User{
		UserID:      uuid.NewString(),
		Email:       "partner@example.com",
		Name:        "Test Partner",
		PrimaryRole: domain.RoleProductionPartner,
		Permissions: []domain.Role{domain.RoleProductionPartner},
		IsActive:    true,
	}
}

// --- Test Suite ---
type LoanServiceTestSuite struct {
	suite.Suite
	mockRepo *MockLoanRepository
	service  portssvc.LoanService
	now      time.Time
}

func (suite *LoanServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockLoanRepository)
	suite.now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewLoanService(suite.mockRepo, services.WithLoanClock(func() time.Time { return suite.now }))
}

func (suite *LoanServiceTestSuite) TestCreateLoan_Success() {
	ctx := context.Background()
	officer := newOfficer()
	input := portssvc.CreateLoanInput{
		BorrowerName: "Jane Borrower",
		LoanAmount:   decimal.NewFromInt(300000),
	}

	suite.mockRepo.On("CreateLoanWithStage", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.BorrowerName == "Jane Borrower" &&
			l.LoanType == domain.LoanConventional &&
			l.CurrentStage == domain.StageNewLead &&
			l.Status == domain.LoanOnTrack &&
			l.LoanOfficerID == officer.UserID &&
			l.TimeInStage == 0
	}), (*domain.Task)(nil)).Return(nil).Once()

	loan, err := suite.service.CreateLoan(ctx, officer, input)

	suite.Require().NoError(err)
	suite.Require().NotNil(loan)
	suite.Regexp(`^LN-2026-\d{6}$`, loan.LoanNumber)
	suite.Equal(suite.now.AddDate(0, 0, 45), loan.TargetCloseDate)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestCreateLoan_OfficerAlwaysOwnsOwnLoans() {
	ctx := context.Background()
	officer := newOfficer()
	input := portssvc.CreateLoanInput{
		BorrowerName:  "Jane Borrower",
		LoanAmount:    decimal.NewFromInt(300000),
		LoanOfficerID: "someone-else",
	}

	suite.mockRepo.On("CreateLoanWithStage", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.LoanOfficerID == officer.UserID
	}), (*domain.Task)(nil)).Return(nil).Once()

	_, err := suite.service.CreateLoan(ctx, officer, input)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestCreateLoan_ZeroAmount() {
	ctx := context.Background()
	input := portssvc.CreateLoanInput{BorrowerName: "Jane Borrower"}

	loan, err := suite.service.CreateLoan(ctx, newOfficer(), input)

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateLoanWithStage")
}

func (suite *LoanServiceTestSuite) TestCreateLoan_ForbiddenForPartner() {
	ctx := context.Background()
	input := portssvc.CreateLoanInput{
		BorrowerName: "Jane Borrower",
		LoanAmount:   decimal.NewFromInt(300000),
	}

	loan, err := suite.service.CreateLoan(ctx, newPartner(), input)

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *LoanServiceTestSuite) TestUpdateLoan_StageTransition() {
	ctx := context.Background()
	officer := newOfficer()
	existing := &domain.Loan{
		LoanID:        uuid.NewString(),
		BorrowerName:  "Jane Borrower",
		LoanAmount:    decimal.NewFromInt(300000),
		CurrentStage:  domain.StageNewLead,
		Status:        domain.LoanOnTrack,
		TimeInStage:   4,
		LoanOfficerID: officer.UserID,
	}
	newStage := "Application"

	suite.mockRepo.On("FindLoanByID", ctx, existing.LoanID, access.Scope{LoanOfficerID: officer.UserID}).
		Return(existing, nil).Once()
	suite.mockRepo.On("UpdateLoan", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.CurrentStage == newStage && l.TimeInStage == 0
	}), true, suite.now).Return(nil).Once()

	loan, err := suite.service.UpdateLoan(ctx, officer, existing.LoanID, portssvc.LoanPatch{CurrentStage: &newStage})

	suite.Require().NoError(err)
	suite.Equal(newStage, loan.CurrentStage)
	suite.Equal(0, loan.TimeInStage)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestUpdateLoan_SameStageWritesNoHistory() {
	ctx := context.Background()
	officer := newOfficer()
	existing := &domain.Loan{
		LoanID:        uuid.NewString(),
		BorrowerName:  "Jane Borrower",
		LoanAmount:    decimal.NewFromInt(300000),
		CurrentStage:  domain.StageNewLead,
		Status:        domain.LoanOnTrack,
		TimeInStage:   4,
		LoanOfficerID: officer.UserID,
	}
	sameStage := domain.StageNewLead

	suite.mockRepo.On("FindLoanByID", ctx, existing.LoanID, access.Scope{LoanOfficerID: officer.UserID}).
		Return(existing, nil).Once()
	suite.mockRepo.On("UpdateLoan", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.CurrentStage == domain.StageNewLead && l.TimeInStage == 4
	}), false, suite.now).Return(nil).Once()

	loan, err := suite.service.UpdateLoan(ctx, officer, existing.LoanID, portssvc.LoanPatch{CurrentStage: &sameStage})

	suite.Require().NoError(err)
	suite.Equal(4, loan.TimeInStage)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestUpdateLoan_InvalidProgress() {
	ctx := context.Background()
	officer := newOfficer()
	existing := &domain.Loan{
		LoanID:        uuid.NewString(),
		CurrentStage:  domain.StageNewLead,
		LoanOfficerID: officer.UserID,
	}
	bad := 150

	suite.mockRepo.On("FindLoanByID", ctx, existing.LoanID, mock.Anything).Return(existing, nil).Once()

	loan, err := suite.service.UpdateLoan(ctx, officer, existing.LoanID, portssvc.LoanPatch{Progress: &bad})

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateLoan")
}

func (suite *LoanServiceTestSuite) TestUpdateLoan_OutOfScopeReadsAsAbsent() {
	ctx := context.Background()
	officer := newOfficer()
	loanID := uuid.NewString()

	suite.mockRepo.On("FindLoanByID", ctx, loanID, access.Scope{LoanOfficerID: officer.UserID}).
		Return(nil, apperrors.ErrNotFound).Once()

	loan, err := suite.service.UpdateLoan(ctx, officer, loanID, portssvc.LoanPatch{})

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LoanServiceTestSuite) TestDeleteLoan_OfficerForbidden() {
	ctx := context.Background()

	err := suite.service.DeleteLoan(ctx, newOfficer(), uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteLoanCascade")
}

func (suite *LoanServiceTestSuite) TestDeleteLoan_AdminSuccess() {
	ctx := context.Background()
	admin := newAdmin()
	loanID := uuid.NewString()

	suite.mockRepo.On("FindLoanByID", ctx, loanID, access.Scope{Unrestricted: true}).
		Return(&domain.Loan{LoanID: loanID}, nil).Once()
	suite.mockRepo.On("DeleteLoanCascade", ctx, loanID).Return(nil).Once()

	err := suite.service.DeleteLoan(ctx, admin, loanID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestLoanService(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}
