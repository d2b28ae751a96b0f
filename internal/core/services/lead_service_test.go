package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
)

// --- Mock ContactClient ---
type MockContactClient struct {
	mock.Mock
}

func (m *MockContactClient) GetContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactClient) GetContacts(ctx context.Context, limit, offset int) ([]domain.Contact, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Contact), args.Int(1), args.Error(2)
}

func (m *MockContactClient) SearchContacts(ctx context.Context, query string) ([]domain.Contact, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *MockContactClient) CreateContact(ctx context.Context, contact domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactClient) UpdateContact(ctx context.Context, contactID string, contact domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, contactID, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

// --- Mock LeadSourceRepository ---
type MockLeadSourceRepository struct {
	mock.Mock
}

func (m *MockLeadSourceRepository) SaveLeadSource(ctx context.Context, src domain.LeadSource) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockLeadSourceRepository) FindLeadSourceByID(ctx context.Context, sourceID string) (*domain.LeadSource, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeadSource), args.Error(1)
}

func (m *MockLeadSourceRepository) FindLeadSourceByName(ctx context.Context, name string) (*domain.LeadSource, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeadSource), args.Error(1)
}

func (m *MockLeadSourceRepository) FindLeadSources(ctx context.Context, activeOnly bool) ([]domain.LeadSource, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeadSource), args.Error(1)
}

func (m *MockLeadSourceRepository) UpdateLeadSource(ctx context.Context, src domain.LeadSource) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockLeadSourceRepository) IncrementLeadCounts(ctx context.Context, sourceID string, leads, converted int) error {
	args := m.Called(ctx, sourceID, leads, converted)
	return args.Error(0)
}

func (m *MockLeadSourceRepository) DeleteLeadSource(ctx context.Context, sourceID string) error {
	args := m.Called(ctx, sourceID)
	return args.Error(0)
}

// --- Test Suite ---
type LeadServiceTestSuite struct {
	suite.Suite
	mockContacts *MockContactClient
	mockLoans    *MockLoanRepository
	mockSources  *MockLeadSourceRepository
	service      portssvc.LeadService
	now          time.Time
}

func (suite *LeadServiceTestSuite) SetupTest() {
	suite.mockContacts = new(MockContactClient)
	suite.mockLoans = new(MockLoanRepository)
	suite.mockSources = new(MockLeadSourceRepository)
	suite.now = time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	suite.service = services.NewLeadService(suite.mockContacts, suite.mockLoans, suite.mockSources,
		services.WithLeadClock(func() time.Time { return suite.now }))
}

func (suite *LeadServiceTestSuite) TestImportLead_Success() {
	ctx := context.Background()
	officer := newOfficer()
	contact := &domain.Contact{
		ContactID: uuid.NewString(),
		FirstName: "Dana",
		LastName:  "Mills",
		Email:     "dana@example.com",
		Phone:     "555-0101",
		Tags:      []string{"FHA"},
	}
	nextDay := suite.now.AddDate(0, 0, 1)

	suite.mockContacts.On("GetContact", ctx, contact.ContactID).Return(contact, nil).Once()
	suite.mockLoans.On("CreateLoanWithStage", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.BorrowerName == "Dana Mills" &&
			l.BorrowerEmail == "dana@example.com" &&
			l.LoanType == domain.LoanFHA &&
			l.CurrentStage == domain.StageNewLead &&
			l.LoanOfficerID == officer.UserID
	}), mock.MatchedBy(func(t *domain.Task) bool {
		return t != nil &&
			t.Title == "Call Dana Mills" &&
			t.Priority == domain.PriorityHigh &&
			t.Status == domain.TaskPending &&
			t.DueDate != nil && t.DueDate.Equal(nextDay) &&
			t.UserID == officer.UserID
	})).Return(nil).Once()

	loan, err := suite.service.ImportLead(ctx, officer, contact.ContactID, "")

	suite.Require().NoError(err)
	suite.Regexp(`^LN-2026-\d{6}$`, loan.LoanNumber)
	suite.Equal("Dana Mills", loan.BorrowerName)
	suite.mockContacts.AssertExpectations(suite.T())
	suite.mockLoans.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestImportLead_AttributesSource() {
	ctx := context.Background()
	officer := newOfficer()
	contact := &domain.Contact{ContactID: uuid.NewString(), FirstName: "Dana", LastName: "Mills"}
	src := &domain.LeadSource{SourceID: uuid.NewString(), Name: "Zillow"}

	suite.mockContacts.On("GetContact", ctx, contact.ContactID).Return(contact, nil).Once()
	suite.mockLoans.On("CreateLoanWithStage", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockSources.On("FindLeadSourceByName", ctx, "Zillow").Return(src, nil).Once()
	suite.mockSources.On("IncrementLeadCounts", ctx, src.SourceID, 1, 0).Return(nil).Once()

	_, err := suite.service.ImportLead(ctx, officer, contact.ContactID, "Zillow")

	suite.Require().NoError(err)
	suite.mockSources.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestImportLead_UpstreamFailureWritesNothing() {
	ctx := context.Background()
	officer := newOfficer()
	contactID := uuid.NewString()

	suite.mockContacts.On("GetContact", ctx, contactID).Return(nil, apperrors.ErrUpstream).Once()

	loan, err := suite.service.ImportLead(ctx, officer, contactID, "Zillow")

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrUpstream)
	suite.mockLoans.AssertNotCalled(suite.T(), "CreateLoanWithStage")
	suite.mockSources.AssertNotCalled(suite.T(), "IncrementLeadCounts")
}

func (suite *LeadServiceTestSuite) TestImportLead_NamelessContact() {
	ctx := context.Background()
	officer := newOfficer()
	contact := &domain.Contact{ContactID: uuid.NewString(), Email: "mystery@example.com"}

	suite.mockContacts.On("GetContact", ctx, contact.ContactID).Return(contact, nil).Once()
	suite.mockLoans.On("CreateLoanWithStage", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.BorrowerName == "Unknown Contact"
	}), mock.Anything).Return(nil).Once()

	loan, err := suite.service.ImportLead(ctx, officer, contact.ContactID, "")

	suite.Require().NoError(err)
	suite.Equal("Unknown Contact", loan.BorrowerName)
	suite.mockLoans.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestImportLead_ForbiddenForPartner() {
	ctx := context.Background()

	loan, err := suite.service.ImportLead(ctx, newPartner(), uuid.NewString(), "")

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockContacts.AssertNotCalled(suite.T(), "GetContact")
}

func (suite *LeadServiceTestSuite) TestSyncContact_UpdatesExistingMatch() {
	ctx := context.Background()
	officer := newOfficer()
	loan := &domain.Loan{
		LoanID:        uuid.NewString(),
		BorrowerName:  "Dana Mills",
		BorrowerEmail: "dana@example.com",
		BorrowerPhone: "555-0101",
		LoanType:      domain.LoanFHA,
		LoanOfficerID: officer.UserID,
	}
	match := domain.Contact{ContactID: uuid.NewString(), Email: "dana@example.com"}

	suite.mockLoans.On("FindLoanByID", ctx, loan.LoanID, mock.Anything).Return(loan, nil).Once()
	suite.mockContacts.On("SearchContacts", ctx, "dana@example.com").Return([]domain.Contact{match}, nil).Once()
	suite.mockContacts.On("UpdateContact", ctx, match.ContactID, mock.MatchedBy(func(c domain.Contact) bool {
		return c.FirstName == "Dana" && c.LastName == "Mills" && c.Email == "dana@example.com"
	})).Return(&match, nil).Once()

	got, err := suite.service.SyncContact(ctx, officer, loan.LoanID)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), loan, got)
	suite.mockContacts.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestSyncContact_CreatesWhenNoMatch() {
	ctx := context.Background()
	officer := newOfficer()
	loan := &domain.Loan{
		LoanID:        uuid.NewString(),
		BorrowerName:  "Dana Mills",
		BorrowerEmail: "dana@example.com",
		LoanOfficerID: officer.UserID,
	}

	suite.mockLoans.On("FindLoanByID", ctx, loan.LoanID, mock.Anything).Return(loan, nil).Once()
	suite.mockContacts.On("SearchContacts", ctx, "dana@example.com").Return([]domain.Contact{}, nil).Once()
	suite.mockContacts.On("CreateContact", ctx, mock.Anything).Return(&domain.Contact{ContactID: uuid.NewString()}, nil).Once()

	_, err := suite.service.SyncContact(ctx, officer, loan.LoanID)

	suite.Require().NoError(err)
	suite.mockContacts.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestSyncContact_NoEmail() {
	ctx := context.Background()
	officer := newOfficer()
	loan := &domain.Loan{
		LoanID:        uuid.NewString(),
		BorrowerName:  "Dana Mills",
		LoanOfficerID: officer.UserID,
	}

	suite.mockLoans.On("FindLoanByID", ctx, loan.LoanID, mock.Anything).Return(loan, nil).Once()

	got, err := suite.service.SyncContact(ctx, officer, loan.LoanID)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockContacts.AssertNotCalled(suite.T(), "SearchContacts")
}

func (suite *LeadServiceTestSuite) TestListLeadSources_PartnerAllowed() {
	ctx := context.Background()
	sources := []domain.LeadSource{
		{SourceID: uuid.NewString(), Name: "Zillow", IsActive: true},
		{SourceID: uuid.NewString(), Name: "Referral", IsActive: true},
	}

	suite.mockSources.On("FindLeadSources", ctx, true).Return(sources, nil).Once()

	got, err := suite.service.ListLeadSources(ctx, newPartner(), true)

	suite.Require().NoError(err)
	suite.Len(got, 2)
	suite.mockSources.AssertExpectations(suite.T())
}

func (suite *LeadServiceTestSuite) TestListLeadSources_OfficerForbidden() {
	ctx := context.Background()

	got, err := suite.service.ListLeadSources(ctx, newOfficer(), false)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockSources.AssertNotCalled(suite.T(), "FindLeadSources", mock.Anything, mock.Anything)
}

func (suite *LeadServiceTestSuite) TestCreateLeadSource_AdminOnly() {
	ctx := context.Background()

	src, err := suite.service.CreateLeadSource(ctx, newOfficer(), "Zillow")

	suite.Require().Error(err)
	suite.Nil(src)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

// --- Run Suite ---
func TestLeadService(t *testing.T) {
	suite.Run(t, new(LeadServiceTestSuite))
}
