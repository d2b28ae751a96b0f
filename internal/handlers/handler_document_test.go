package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/handlers"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/utils"
)

// --- Mock DocumentService ---
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) CreateDocument(ctx context.Context, actor *domain.User, doc domain.Document) (*domain.Document, error) {
	args := m.Called(ctx, actor, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentService) GetDocumentByID(ctx context.Context, actor *domain.User, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, actor, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentService) ListDocuments(ctx context.Context, actor *domain.User, filter portsrepo.DocumentFilter) ([]domain.Document, int, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Document), args.Int(1), args.Error(2)
}
func (m *MockDocumentService) UpdateDocument(ctx context.Context, actor *domain.User, documentID string, patch portssvc.DocumentPatch) (*domain.Document, error) {
	args := m.Called(ctx, actor, documentID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentService) DeleteDocument(ctx context.Context, actor *domain.User, documentID string) error {
	args := m.Called(ctx, actor, documentID)
	return args.Error(0)
}
func (m *MockDocumentService) Upload(ctx context.Context, actor *domain.User, documentID, fileName string, size int64, r io.Reader) (*domain.Document, error) {
	args := m.Called(ctx, actor, documentID, fileName, size, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentService) Download(ctx context.Context, actor *domain.User, documentID string) (io.ReadCloser, *domain.Document, error) {
	args := m.Called(ctx, actor, documentID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*domain.Document), args.Error(2)
}

var _ portssvc.DocumentService = (*MockDocumentService)(nil)

// countingReader tracks how many body bytes the server actually drains.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// --- Test Suite ---
type DocumentHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockDocService *MockDocumentService
	mockUsers      *MockUserLoader
	jwtSecret      string
	actor          *domain.User
}

func (suite *DocumentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.actor = &domain.User{
		UserID:      uuid.NewString(),
		Email:       "officer@example.com",
		Name:        "Test Officer",
		PrimaryRole: domain.RoleLO,
		IsActive:    true,
	}

	suite.mockDocService = new(MockDocumentService)
	suite.mockUsers = new(MockUserLoader)

	// IsProduction keeps swagger routes out of the test router.
	cfg := &config.Config{
		JWTSecret:      suite.jwtSecret,
		IsProduction:   true,
		MaxUploadBytes: 1024,
	}
	services := &portssvc.ServiceContainer{Document: suite.mockDocService}
	handlers.RegisterRoutes(suite.router, cfg, services, suite.mockUsers)
}

// multipartUpload renders a single-file form body under the "file" field.
func (suite *DocumentHandlerTestSuite) multipartUpload(fileName string, payload []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	suite.Require().NoError(err)
	_, err = part.Write(payload)
	suite.Require().NoError(err)
	suite.Require().NoError(w.Close())
	return &buf, w.FormDataContentType()
}

// uploadRequest builds an authed upload request whose body reads through the
// counter, so tests can see how much the server consumed.
func (suite *DocumentHandlerTestSuite) uploadRequest(documentID string, body *bytes.Buffer, contentType string) (*http.Request, *countingReader) {
	counter := &countingReader{r: body}
	req, err := http.NewRequest(http.MethodPost, "/api/v1/documents/"+documentID+"/upload", counter)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", contentType)

	token, err := utils.GenerateJWT(suite.actor.UserID, suite.jwtSecret, time.Hour, "loancrm-test")
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	suite.mockUsers.On("FindUserByID", mock.Anything, suite.actor.UserID).Return(suite.actor, nil).Once()
	return req, counter
}

func (suite *DocumentHandlerTestSuite) TestUpload_WithinLimit() {
	documentID := uuid.NewString()
	uploadedAt := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	updated := &domain.Document{
		DocumentID: documentID,
		LoanID:     uuid.NewString(),
		Name:       "W-2",
		Status:     domain.DocumentReceived,
		FileName:   "w2-2025.pdf",
		UploadedAt: &uploadedAt,
	}
	payload := bytes.Repeat([]byte("a"), 200)

	suite.mockDocService.On("Upload",
		mock.Anything, suite.actor, documentID, "w2-2025.pdf", int64(len(payload)), mock.Anything,
	).Return(updated, nil).Once()

	body, contentType := suite.multipartUpload("w2-2025.pdf", payload)
	req, _ := suite.uploadRequest(documentID, body, contentType)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockDocService.AssertExpectations(suite.T())
}

func (suite *DocumentHandlerTestSuite) TestUpload_OversizeBodyNotDrained() {
	documentID := uuid.NewString()
	// 8 MiB against a 1 KiB cap, sent without a Content-Length so the
	// cap cannot be enforced from the header alone.
	body, contentType := suite.multipartUpload("huge.pdf", bytes.Repeat([]byte("a"), 8<<20))

	req, counter := suite.uploadRequest(documentID, body, contentType)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusRequestEntityTooLarge, w.Code)
	// The capped reader stops the parse just past the limit instead of
	// buffering the whole request.
	suite.Less(counter.n, int64(64<<10))
	suite.mockDocService.AssertNotCalled(suite.T(), "Upload",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentHandlerTestSuite) TestUpload_OversizeContentLengthRejectedUnread() {
	documentID := uuid.NewString()
	body, contentType := suite.multipartUpload("huge.pdf", bytes.Repeat([]byte("a"), 8<<20))
	declared := int64(body.Len())

	req, counter := suite.uploadRequest(documentID, body, contentType)
	req.ContentLength = declared
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusRequestEntityTooLarge, w.Code)
	suite.Zero(counter.n)
	suite.mockDocService.AssertNotCalled(suite.T(), "Upload",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentHandlerTestSuite) TestUpload_MissingFileField() {
	documentID := uuid.NewString()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	suite.Require().NoError(w.WriteField("note", "no file here"))
	suite.Require().NoError(w.Close())

	req, _ := suite.uploadRequest(documentID, &buf, w.FormDataContentType())
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.mockDocService.AssertNotCalled(suite.T(), "Upload",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler(t *testing.T) {
	suite.Run(t, new(DocumentHandlerTestSuite))
}
