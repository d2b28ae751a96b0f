package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/platform/cache"
)

// topListLimit caps the task and communication excerpts on the overview.
const topListLimit = 10

type dashboardService struct {
	BaseService
	dashRepo portsrepo.DashboardRepository
	cache    *cache.Cache
	now      func() time.Time
}

type DashboardServiceOption func(*dashboardService)

// WithDashboardClock overrides the service clock, for tests.
func WithDashboardClock(now func() time.Time) DashboardServiceOption {
	return func(s *dashboardService) { s.now = now }
}

// WithDashboardCache enables the short-lived Redis read cache for the
// overview and analytics payloads.
func WithDashboardCache(c *cache.Cache) DashboardServiceOption {
	return func(s *dashboardService) { s.cache = c }
}

// NewDashboardService creates the reporting service.
func NewDashboardService(dashRepo portsrepo.DashboardRepository, opts ...DashboardServiceOption) portssvc.DashboardService {
	s := &dashboardService{dashRepo: dashRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.DashboardService = (*dashboardService)(nil)

// periodToDays maps a reporting period token to its day count.
func periodToDays(period string) (int, error) {
	switch period {
	case "", "30d":
		return 30, nil
	case "7d":
		return 7, nil
	case "90d":
		return 90, nil
	case "1y":
		return 365, nil
	}
	return 0, apperrors.ErrValidation
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *dashboardService) GetOverview(ctx context.Context, actor *domain.User) (*portssvc.DashboardOverview, error) {
	cacheKey := fmt.Sprintf("dashboard:overview:%s", actor.UserID)
	var cached portssvc.DashboardOverview
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	scope := access.ScopeFor(actor, access.ResourceLoan)
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals, err := s.dashRepo.LoanTotals(ctx, scope)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.dashRepo.SummarizePipeline(ctx, scope)
	if err != nil {
		return nil, err
	}
	overdue, err := s.dashRepo.FindOverdueTasks(ctx, actor.UserID, now, topListLimit)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.dashRepo.FindUpcomingTasks(ctx, actor.UserID, now, topListLimit)
	if err != nil {
		return nil, err
	}
	commScope := access.ScopeFor(actor, access.ResourceCommunication)
	recent, err := s.dashRepo.FindRecentCommunications(ctx, commScope, actor.UserID, topListLimit)
	if err != nil {
		return nil, err
	}
	mtd, err := s.dashRepo.MonthToDateStats(ctx, scope, actor.UserID, monthStart)
	if err != nil {
		return nil, err
	}

	overview := &portssvc.DashboardOverview{
		TotalLoans:           totals.Total,
		ActiveLoans:          totals.Active,
		ClosedLoans:          totals.Closed,
		TotalVolume:          totals.TotalVolume,
		Pipeline:             pipeline,
		OverdueTasks:         overdue,
		UpcomingTasks:        upcoming,
		RecentCommunications: recent,
		MonthToDate: portssvc.MonthToDate{
			LoansCreated:          mtd.LoansCreated,
			TasksCompleted:        mtd.TasksCompleted,
			CommunicationsSent:    mtd.CommunicationsSent,
			AppointmentsScheduled: mtd.AppointmentsScheduled,
		},
	}
	if err := s.cache.SetJSON(ctx, cacheKey, overview); err != nil {
		s.LogDebug(ctx, "overview cache write failed", "error", err.Error())
	}
	return overview, nil
}

func (s *dashboardService) GetPerformance(ctx context.Context, actor *domain.User, period string) (*portssvc.DashboardPerformance, error) {
	days, err := periodToDays(period)
	if err != nil {
		return nil, err
	}
	scope := access.ScopeFor(actor, access.ResourceLoan)
	since := s.now().AddDate(0, 0, -days)

	closed, err := s.dashRepo.ClosedLoanStats(ctx, scope, since)
	if err != nil {
		return nil, err
	}
	conversions, err := s.dashRepo.StageConversionCounts(ctx, scope, since)
	if err != nil {
		return nil, err
	}
	completed, total, err := s.dashRepo.TaskCompletionRate(ctx, actor.UserID, since)
	if err != nil {
		return nil, err
	}
	commScope := access.ScopeFor(actor, access.ResourceCommunication)
	volume, err := s.dashRepo.CommunicationVolume(ctx, commScope, actor.UserID, since)
	if err != nil {
		return nil, err
	}

	completionRate := 0.0
	if total > 0 {
		completionRate = round2(float64(completed) / float64(total) * 100)
	}
	return &portssvc.DashboardPerformance{
		Period:              period,
		ClosedLoans:         closed.Count,
		ClosedVolume:        closed.TotalVolume,
		AvgDaysToClose:      round2(closed.AvgDaysToClose),
		StageConversions:    conversions,
		TaskCompletionRate:  completionRate,
		CommunicationVolume: volume,
	}, nil
}

func (s *dashboardService) GetAnalytics(ctx context.Context, actor *domain.User) (*portssvc.DashboardAnalytics, error) {
	cacheKey := fmt.Sprintf("dashboard:analytics:%s", actor.UserID)
	var cached portssvc.DashboardAnalytics
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	scope := access.ScopeFor(actor, access.ResourceLoan)
	since := s.now().AddDate(0, 0, -30)

	daily, err := s.dashRepo.DailyTaskActivity(ctx, actor.UserID, since)
	if err != nil {
		return nil, err
	}
	stages, err := s.dashRepo.SummarizeLoansByStage(ctx, scope)
	if err != nil {
		return nil, err
	}
	byType, err := s.dashRepo.SummarizeLoansByType(ctx, scope)
	if err != nil {
		return nil, err
	}
	trends, err := s.dashRepo.MonthlyTrends(ctx, scope, 12)
	if err != nil {
		return nil, err
	}

	analytics := &portssvc.DashboardAnalytics{
		DailyTaskActivity: daily,
		StageDistribution: stages,
		LoanTypeBreakdown: byType,
		MonthlyTrends:     trends,
	}
	if err := s.cache.SetJSON(ctx, cacheKey, analytics); err != nil {
		s.LogDebug(ctx, "analytics cache write failed", "error", err.Error())
	}
	return analytics, nil
}
