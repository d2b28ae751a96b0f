package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
	"github.com/harborlend/loancrm/internal/platform/cache"
)

// --- Mock DashboardRepository ---
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) LoanTotals(ctx context.Context, scope access.Scope) (*portsrepo.LoanTotals, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.LoanTotals), args.Error(1)
}
func (m *MockDashboardRepository) SummarizePipeline(ctx context.Context, scope access.Scope) ([]domain.StageStatusSummary, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StageStatusSummary), args.Error(1)
}
func (m *MockDashboardRepository) SummarizeLoansByStage(ctx context.Context, scope access.Scope) ([]domain.PipelineStageSummary, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PipelineStageSummary), args.Error(1)
}
func (m *MockDashboardRepository) SummarizeLoansByType(ctx context.Context, scope access.Scope) ([]domain.LoanTypeSummary, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanTypeSummary), args.Error(1)
}
func (m *MockDashboardRepository) ClosedLoanStats(ctx context.Context, scope access.Scope, since time.Time) (*portsrepo.ClosedLoanStats, error) {
	args := m.Called(ctx, scope, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.ClosedLoanStats), args.Error(1)
}
func (m *MockDashboardRepository) MonthToDateStats(ctx context.Context, scope access.Scope, userID string, monthStart time.Time) (*portsrepo.MonthToDateStats, error) {
	args := m.Called(ctx, scope, userID, monthStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.MonthToDateStats), args.Error(1)
}
func (m *MockDashboardRepository) StageConversionCounts(ctx context.Context, scope access.Scope, since time.Time) ([]domain.GroupCount, error) {
	args := m.Called(ctx, scope, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupCount), args.Error(1)
}
func (m *MockDashboardRepository) TaskCompletionRate(ctx context.Context, userID string, since time.Time) (int, int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Int(1), args.Error(2)
}
func (m *MockDashboardRepository) CommunicationVolume(ctx context.Context, scope access.Scope, userID string, since time.Time) (int, error) {
	args := m.Called(ctx, scope, userID, since)
	return args.Int(0), args.Error(1)
}
func (m *MockDashboardRepository) DailyTaskActivity(ctx context.Context, userID string, since time.Time) ([]domain.DailyCount, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyCount), args.Error(1)
}
func (m *MockDashboardRepository) MonthlyTrends(ctx context.Context, scope access.Scope, months int) ([]domain.MonthlyLoanTrend, error) {
	args := m.Called(ctx, scope, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyLoanTrend), args.Error(1)
}
func (m *MockDashboardRepository) FindOverdueTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}
func (m *MockDashboardRepository) FindUpcomingTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}
func (m *MockDashboardRepository) FindRecentCommunications(ctx context.Context, scope access.Scope, userID string, limit int) ([]domain.Communication, error) {
	args := m.Called(ctx, scope, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Communication), args.Error(1)
}

var _ portsrepo.DashboardRepository = (*MockDashboardRepository)(nil)

// --- Test Suite ---
type DashboardServiceTestSuite struct {
	suite.Suite
	mockRepo *MockDashboardRepository
	server   *miniredis.Miniredis
	service  portssvc.DashboardService
	ctx      context.Context
	now      time.Time
}

func (suite *DashboardServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockDashboardRepository)
	suite.ctx = context.Background()
	suite.now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	server, err := miniredis.Run()
	suite.Require().NoError(err)
	suite.server = server
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	suite.service = services.NewDashboardService(
		suite.mockRepo,
		services.WithDashboardCache(cache.NewWithClient(client, time.Minute)),
		services.WithDashboardClock(func() time.Time { return suite.now }),
	)
}

func (suite *DashboardServiceTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *DashboardServiceTestSuite) expectOverviewQueries(officer *domain.User) {
	scope := access.Scope{LoanOfficerID: officer.UserID}
	suite.mockRepo.On("LoanTotals", suite.ctx, scope).
		Return(&portsrepo.LoanTotals{Total: 12, Active: 9, Closed: 3, TotalVolume: decimal.NewFromInt(3_600_000)}, nil).Once()
	suite.mockRepo.On("SummarizePipeline", suite.ctx, scope).
		Return([]domain.StageStatusSummary{}, nil).Once()
	suite.mockRepo.On("FindOverdueTasks", suite.ctx, officer.UserID, suite.now, 10).
		Return([]domain.Task{}, nil).Once()
	suite.mockRepo.On("FindUpcomingTasks", suite.ctx, officer.UserID, suite.now, 10).
		Return([]domain.Task{}, nil).Once()
	suite.mockRepo.On("FindRecentCommunications", suite.ctx, mock.Anything, officer.UserID, 10).
		Return([]domain.Communication{}, nil).Once()
	suite.mockRepo.On("MonthToDateStats", suite.ctx, scope, officer.UserID, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)).
		Return(&portsrepo.MonthToDateStats{LoansCreated: 2, TasksCompleted: 5}, nil).Once()
}

func (suite *DashboardServiceTestSuite) TestGetOverview_SecondCallServedFromCache() {
	officer := newOfficer()
	suite.expectOverviewQueries(officer)

	first, err := suite.service.GetOverview(suite.ctx, officer)
	suite.Require().NoError(err)
	suite.Equal(12, first.TotalLoans)
	suite.True(first.TotalVolume.Equal(decimal.NewFromInt(3_600_000)))

	// Every repo expectation is Once; a second round trip would fail them.
	second, err := suite.service.GetOverview(suite.ctx, officer)
	suite.Require().NoError(err)
	suite.Equal(12, second.TotalLoans)
	suite.Equal(2, second.MonthToDate.LoansCreated)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *DashboardServiceTestSuite) TestGetOverview_CacheKeyIsPerUser() {
	officer := newOfficer()
	suite.expectOverviewQueries(officer)
	_, err := suite.service.GetOverview(suite.ctx, officer)
	suite.Require().NoError(err)

	// A different caller must not see the first caller's aggregates.
	other := newOfficer()
	suite.expectOverviewQueries(other)
	_, err = suite.service.GetOverview(suite.ctx, other)
	suite.Require().NoError(err)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *DashboardServiceTestSuite) TestGetPerformance_RatesRounded() {
	officer := newOfficer()
	since := suite.now.AddDate(0, 0, -30)
	scope := access.Scope{LoanOfficerID: officer.UserID}

	suite.mockRepo.On("ClosedLoanStats", suite.ctx, scope, since).
		Return(&portsrepo.ClosedLoanStats{Count: 4, TotalVolume: decimal.NewFromInt(1_200_000), AvgDaysToClose: 41.6667}, nil).Once()
	suite.mockRepo.On("StageConversionCounts", suite.ctx, scope, since).
		Return([]domain.GroupCount{{Key: "Processing", Count: 6}}, nil).Once()
	suite.mockRepo.On("TaskCompletionRate", suite.ctx, officer.UserID, since).
		Return(2, 3, nil).Once()
	suite.mockRepo.On("CommunicationVolume", suite.ctx, mock.Anything, officer.UserID, since).
		Return(17, nil).Once()

	perf, err := suite.service.GetPerformance(suite.ctx, officer, "30d")
	suite.Require().NoError(err)
	suite.Equal(4, perf.ClosedLoans)
	suite.Equal(66.67, perf.TaskCompletionRate)
	suite.Equal(41.67, perf.AvgDaysToClose)
	suite.Equal(17, perf.CommunicationVolume)
}

func (suite *DashboardServiceTestSuite) TestGetPerformance_ZeroDenominator() {
	officer := newOfficer()
	since := suite.now.AddDate(0, 0, -7)
	scope := access.Scope{LoanOfficerID: officer.UserID}

	suite.mockRepo.On("ClosedLoanStats", suite.ctx, scope, since).
		Return(&portsrepo.ClosedLoanStats{}, nil).Once()
	suite.mockRepo.On("StageConversionCounts", suite.ctx, scope, since).
		Return([]domain.GroupCount{}, nil).Once()
	suite.mockRepo.On("TaskCompletionRate", suite.ctx, officer.UserID, since).
		Return(0, 0, nil).Once()
	suite.mockRepo.On("CommunicationVolume", suite.ctx, mock.Anything, officer.UserID, since).
		Return(0, nil).Once()

	perf, err := suite.service.GetPerformance(suite.ctx, officer, "7d")
	suite.Require().NoError(err)
	suite.Zero(perf.TaskCompletionRate)
}

func (suite *DashboardServiceTestSuite) TestGetPerformance_UnknownPeriod() {
	officer := newOfficer()
	_, err := suite.service.GetPerformance(suite.ctx, officer, "2w")
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "ClosedLoanStats", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DashboardServiceTestSuite) TestGetAnalytics_SecondCallServedFromCache() {
	officer := newOfficer()
	scope := access.Scope{LoanOfficerID: officer.UserID}
	since := suite.now.AddDate(0, 0, -30)

	suite.mockRepo.On("DailyTaskActivity", suite.ctx, officer.UserID, since).
		Return([]domain.DailyCount{{Date: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), Count: 3}}, nil).Once()
	suite.mockRepo.On("SummarizeLoansByStage", suite.ctx, scope).
		Return([]domain.PipelineStageSummary{}, nil).Once()
	suite.mockRepo.On("SummarizeLoansByType", suite.ctx, scope).
		Return([]domain.LoanTypeSummary{}, nil).Once()
	suite.mockRepo.On("MonthlyTrends", suite.ctx, scope, 12).
		Return([]domain.MonthlyLoanTrend{}, nil).Once()

	first, err := suite.service.GetAnalytics(suite.ctx, officer)
	suite.Require().NoError(err)
	suite.Len(first.DailyTaskActivity, 1)

	second, err := suite.service.GetAnalytics(suite.ctx, officer)
	suite.Require().NoError(err)
	suite.Equal(first.DailyTaskActivity, second.DailyTaskActivity)

	suite.mockRepo.AssertExpectations(suite.T())
}

func TestDashboardService(t *testing.T) {
	suite.Run(t, new(DashboardServiceTestSuite))
}
