package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
	"github.com/harborlend/loancrm/internal/platform/config"
)

// --- Mock DocumentRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) SaveDocument(ctx context.Context, doc domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
func (m *MockDocumentRepository) FindDocumentByID(ctx context.Context, documentID string, scope access.Scope) (*domain.Document, error) {
	args := m.Called(ctx, documentID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentRepository) FindDocuments(ctx context.Context, filter portsrepo.DocumentFilter) ([]domain.Document, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Document), args.Int(1), args.Error(2)
}
func (m *MockDocumentRepository) UpdateDocument(ctx context.Context, doc domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
func (m *MockDocumentRepository) DeleteDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
func (m *MockDocumentRepository) CountDocumentsByStatus(ctx context.Context, scope access.Scope) ([]domain.GroupCount, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupCount), args.Error(1)
}

// --- Mock ObjectStore ---
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}
func (m *MockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Test Suite ---
type DocumentServiceTestSuite struct {
	suite.Suite
	mockDocs  *MockDocumentRepository
	mockLoans *MockLoanRepository
	mockStore *MockObjectStore
	service   portssvc.DocumentService
	ctx       context.Context
	now       time.Time
}

func (suite *DocumentServiceTestSuite) SetupTest() {
	suite.mockDocs = new(MockDocumentRepository)
	suite.mockLoans = new(MockLoanRepository)
	suite.mockStore = new(MockObjectStore)
	suite.ctx = context.Background()
	suite.now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	cfg := &config.Config{
		MaxUploadBytes:    1 << 20,
		AllowedExtensions: []string{".pdf", ".png", ".jpg"},
	}
	suite.service = services.NewDocumentService(
		suite.mockDocs, suite.mockLoans, suite.mockStore, cfg,
		services.WithDocumentClock(func() time.Time { return suite.now }),
	)
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_DefaultsAndClearsFileFields() {
	officer := newOfficer()
	loanID := uuid.NewString()

	suite.mockLoans.On("FindLoanByID", suite.ctx, loanID, access.Scope{LoanOfficerID: officer.UserID}).
		Return(&domain.Loan{LoanID: loanID, LoanOfficerID: officer.UserID}, nil).Once()
	suite.mockDocs.On("SaveDocument", suite.ctx, mock.MatchedBy(func(d domain.Document) bool {
		return d.Status == domain.DocumentRequired && d.FilePath == "" && d.FileName == "" && d.UploadedAt == nil
	})).Return(nil).Once()

	doc, err := suite.service.CreateDocument(suite.ctx, officer, domain.Document{
		LoanID:   loanID,
		Name:     "W-2",
		FilePath: "sneaky/preset/path",
	})
	suite.Require().NoError(err)
	suite.Equal(domain.DocumentRequired, doc.Status)
	suite.Empty(doc.FilePath)

	suite.mockDocs.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestCreateDocument_LoanOutOfScope() {
	officer := newOfficer()
	loanID := uuid.NewString()

	suite.mockLoans.On("FindLoanByID", suite.ctx, loanID, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateDocument(suite.ctx, officer, domain.Document{LoanID: loanID, Name: "W-2"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockDocs.AssertNotCalled(suite.T(), "SaveDocument", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) existingDoc() *domain.Document {
	return &domain.Document{
		DocumentID: uuid.NewString(),
		LoanID:     uuid.NewString(),
		Name:       "W-2",
		Status:     domain.DocumentRequired,
	}
}

func (suite *DocumentServiceTestSuite) TestUpload_MarksReceived() {
	officer := newOfficer()
	doc := suite.existingDoc()
	expectedKey := "loans/" + doc.LoanID + "/" + doc.DocumentID + ".pdf"

	suite.mockDocs.On("FindDocumentByID", suite.ctx, doc.DocumentID, mock.Anything).Return(doc, nil).Once()
	suite.mockStore.On("Put", suite.ctx, expectedKey, mock.Anything, int64(512), "application/pdf").
		Return(nil).Once()
	suite.mockDocs.On("UpdateDocument", suite.ctx, mock.MatchedBy(func(d domain.Document) bool {
		return d.Status == domain.DocumentReceived &&
			d.FilePath == expectedKey &&
			d.FileName == "w2-2025.PDF" &&
			d.UploadedAt != nil && d.UploadedAt.Equal(suite.now)
	})).Return(nil).Once()

	updated, err := suite.service.Upload(suite.ctx, officer, doc.DocumentID, "w2-2025.PDF", 512, strings.NewReader("data"))
	suite.Require().NoError(err)
	suite.Equal(domain.DocumentReceived, updated.Status)

	suite.mockStore.AssertExpectations(suite.T())
	suite.mockDocs.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestUpload_RejectsOversizedFile() {
	officer := newOfficer()
	doc := suite.existingDoc()

	suite.mockDocs.On("FindDocumentByID", suite.ctx, doc.DocumentID, mock.Anything).Return(doc, nil).Once()

	_, err := suite.service.Upload(suite.ctx, officer, doc.DocumentID, "w2.pdf", 2<<20, strings.NewReader("data"))
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStore.AssertNotCalled(suite.T(), "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestUpload_RejectsDisallowedExtension() {
	officer := newOfficer()
	doc := suite.existingDoc()

	suite.mockDocs.On("FindDocumentByID", suite.ctx, doc.DocumentID, mock.Anything).Return(doc, nil).Once()

	_, err := suite.service.Upload(suite.ctx, officer, doc.DocumentID, "malware.exe", 512, strings.NewReader("data"))
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStore.AssertNotCalled(suite.T(), "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestDownload_NotUploadedReadsAsAbsent() {
	officer := newOfficer()
	doc := suite.existingDoc()

	suite.mockDocs.On("FindDocumentByID", suite.ctx, doc.DocumentID, mock.Anything).Return(doc, nil).Once()

	_, _, err := suite.service.Download(suite.ctx, officer, doc.DocumentID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockStore.AssertNotCalled(suite.T(), "Get", mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestDelete_StorageFailureIsNotFatal() {
	officer := newOfficer()
	doc := suite.existingDoc()
	doc.FilePath = "loans/" + doc.LoanID + "/" + doc.DocumentID + ".pdf"

	suite.mockDocs.On("FindDocumentByID", suite.ctx, doc.DocumentID, mock.Anything).Return(doc, nil).Once()
	suite.mockDocs.On("DeleteDocument", suite.ctx, doc.DocumentID).Return(nil).Once()
	suite.mockStore.On("Remove", suite.ctx, doc.FilePath).Return(errors.New("bucket gone")).Once()

	err := suite.service.DeleteDocument(suite.ctx, officer, doc.DocumentID)
	suite.NoError(err)

	suite.mockStore.AssertExpectations(suite.T())
}

func TestDocumentService(t *testing.T) {
	suite.Run(t, new(DocumentServiceTestSuite))
}
