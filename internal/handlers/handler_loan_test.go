package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
	"github.com/harborlend/loancrm/internal/handlers"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/utils"
)

// --- Mock LoanService ---
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, actor *domain.User, input portssvc.CreateLoanInput) (*domain.Loan, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) GetLoanByID(ctx context.Context, actor *domain.User, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, actor, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) ListLoans(ctx context.Context, actor *domain.User, filter portsrepo.LoanFilter) ([]domain.Loan, int, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Loan), args.Int(1), args.Error(2)
}
func (m *MockLoanService) UpdateLoan(ctx context.Context, actor *domain.User, loanID string, patch portssvc.LoanPatch) (*domain.Loan, error) {
	args := m.Called(ctx, actor, loanID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) DeleteLoan(ctx context.Context, actor *domain.User, loanID string) error {
	args := m.Called(ctx, actor, loanID)
	return args.Error(0)
}
func (m *MockLoanService) GetStageHistory(ctx context.Context, actor *domain.User, loanID string) ([]domain.StageHistoryEntry, error) {
	args := m.Called(ctx, actor, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StageHistoryEntry), args.Error(1)
}
func (m *MockLoanService) GetPipelineSummary(ctx context.Context, actor *domain.User, loanOfficerID string) ([]domain.PipelineStageSummary, error) {
	args := m.Called(ctx, actor, loanOfficerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PipelineStageSummary), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LoanService = (*MockLoanService)(nil)

// --- Mock UserLoader ---
type MockUserLoader struct {
	mock.Mock
}

func (m *MockUserLoader) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Test Suite ---
type LoanHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockLoanService *MockLoanService
	mockUsers       *MockUserLoader
	jwtSecret       string
	actor           *domain.User
}

func (suite *LoanHandlerTestSuite) generateTestToken(userID string) string {
	token, err := utils.GenerateJWT(userID, suite.jwtSecret, time.Hour, "loancrm-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *LoanHandlerTestSuite) SetupTest() {
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

	suite.mockLoanService = new(MockLoanService)
	suite.mockUsers = new(MockUserLoader)

	// IsProduction keeps swagger routes out of the test router.
	cfg := &config.Config{JWTSecret: suite.jwtSecret, IsProduction: true}
	services := &portssvc.ServiceContainer{Loan: suite.mockLoanService}
	handlers.RegisterRoutes(suite.router, cfg, services, suite.mockUsers)
}

// authedRequest builds a request carrying the actor's bearer token.
func (suite *LoanHandlerTestSuite) authedRequest(method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.actor.UserID))
	req.Header.Set("Content-Type", "application/json")

	suite.mockUsers.On("FindUserByID", mock.Anything, suite.actor.UserID).Return(suite.actor, nil).Once()
	return req
}

func (suite *LoanHandlerTestSuite) TestCreateLoan_Success() {
	loanID := uuid.NewString()
	created := &domain.Loan{
		LoanID:        loanID,
		LoanNumber:    "LN-2026-000042",
		BorrowerName:  "Dana Mills",
		LoanType:      domain.LoanConventional,
		LoanAmount:    decimal.NewFromInt(250000),
		CurrentStage:  domain.StageNewLead,
		Status:        domain.LoanOnTrack,
		LoanOfficerID: suite.actor.UserID,
	}

	suite.mockLoanService.On("CreateLoan",
		mock.Anything,
		suite.actor,
		mock.MatchedBy(func(in portssvc.CreateLoanInput) bool {
			return in.BorrowerName == "Dana Mills" && in.LoanAmount.Equal(decimal.NewFromInt(250000))
		}),
	).Return(created, nil).Once()

	body := gin.H{"borrowerName": "Dana Mills", "loanAmount": 250000}
	req := suite.authedRequest(http.MethodPost, "/api/v1/loans", body)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.LoanResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(loanID, resp.LoanID)
	suite.Equal("LN-2026-000042", resp.LoanNumber)
	suite.Equal("250000.00", resp.LoanAmount)
	suite.Equal(domain.StageNewLead, resp.CurrentStage)

	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestCreateLoan_MissingBorrowerName() {
	body := gin.H{"loanAmount": 250000}
	req := suite.authedRequest(http.MethodPost, "/api/v1/loans", body)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "CreateLoan", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LoanHandlerTestSuite) TestGetLoan_NotFound() {
	loanID := uuid.NewString()
	suite.mockLoanService.On("GetLoanByID", mock.Anything, suite.actor, loanID).
		Return(nil, apperrors.ErrNotFound).Once()

	req := suite.authedRequest(http.MethodGet, "/api/v1/loans/"+loanID, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)

	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Not found", resp["error"])
}

func (suite *LoanHandlerTestSuite) TestListLoans_PaginationEnvelope() {
	loans := []domain.Loan{
		{LoanID: uuid.NewString(), LoanNumber: "LN-2026-000001", LoanAmount: decimal.NewFromInt(100000)},
		{LoanID: uuid.NewString(), LoanNumber: "LN-2026-000002", LoanAmount: decimal.NewFromInt(200000)},
	}

	suite.mockLoanService.On("ListLoans",
		mock.Anything,
		suite.actor,
		mock.MatchedBy(func(f portsrepo.LoanFilter) bool {
			return f.Page.Limit == 2 && f.Page.Offset == 2
		}),
	).Return(loans, 5, nil).Once()

	req := suite.authedRequest(http.MethodGet, "/api/v1/loans?page=2&limit=2", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data       []dto.LoanResponse `json:"data"`
		Pagination dto.Pagination     `json:"pagination"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Data, 2)
	suite.Equal(5, resp.Pagination.Total)
	suite.Equal(2, resp.Pagination.Page)
	suite.Equal(3, resp.Pagination.TotalPages)
}

func (suite *LoanHandlerTestSuite) TestDeleteLoan_Forbidden() {
	loanID := uuid.NewString()
	suite.mockLoanService.On("DeleteLoan", mock.Anything, suite.actor, loanID).
		Return(apperrors.ErrForbidden).Once()

	req := suite.authedRequest(http.MethodDelete, "/api/v1/loans/"+loanID, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *LoanHandlerTestSuite) TestListLoans_NoToken() {
	req, err := http.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	suite.Require().NoError(err)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "ListLoans", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LoanHandlerTestSuite) TestListLoans_InactiveAccount() {
	inactive := &domain.User{
		UserID:      uuid.NewString(),
		PrimaryRole: domain.RoleLO,
		IsActive:    false,
	}
	suite.mockUsers.On("FindUserByID", mock.Anything, inactive.UserID).Return(inactive, nil).Once()

	req, err := http.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(inactive.UserID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
}

func TestLoanHandler(t *testing.T) {
	suite.Run(t, new(LoanHandlerTestSuite))
}
