package services_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
)

// --- Mock NotificationRepository ---
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) SaveNotifications(ctx context.Context, ns []domain.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *MockNotificationRepository) FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) FindNotifications(ctx context.Context, filter portsrepo.NotificationFilter) ([]domain.Notification, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) DeleteNotification(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) SummarizeNotifications(ctx context.Context, userID string) (*domain.NotificationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationSummary), args.Error(1)
}

// fakeUserDirectory resolves broadcast recipients from an in-memory user
// fixture, honouring the repository contract: only active accounts, narrowed
// by explicit ids or role membership when given.
type fakeUserDirectory struct {
	MockUserRepository
	users []domain.User
}

func (f *fakeUserDirectory) FindActiveUserIDs(_ context.Context, userIDs []string, roles []domain.Role) ([]string, error) {
	ids := []string{}
	for i := range f.users {
		u := &f.users[i]
		if !u.IsActive {
			continue
		}
		switch {
		case len(userIDs) > 0:
			if !slices.Contains(userIDs, u.UserID) {
				continue
			}
		case len(roles) > 0:
			if !u.HasRole(roles...) {
				continue
			}
		}
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

// --- Test Suite ---
type NotificationServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockNotificationRepository
	mockUsers *MockUserRepository
	service   portssvc.NotificationService
	now       time.Time
}

func (suite *NotificationServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockNotificationRepository)
	suite.mockUsers = new(MockUserRepository)
	suite.now = time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC)
	suite.service = services.NewNotificationService(suite.mockRepo, suite.mockUsers,
		services.WithNotificationClock(func() time.Time { return suite.now }))
}

func (suite *NotificationServiceTestSuite) TestCreateNotification_ForSelf() {
	ctx := context.Background()
	officer := newOfficer()

	suite.mockRepo.On("SaveNotification", ctx, mock.MatchedBy(func(n domain.Notification) bool {
		return n.UserID == officer.UserID && n.Type == domain.NotifyInfo && !n.IsRead
	})).Return(nil).Once()

	n, err := suite.service.CreateNotification(ctx, officer, domain.Notification{
		Title:   "Rate lock expiring",
		Message: "Lock on LN-2026-000123 expires tomorrow",
	})

	suite.Require().NoError(err)
	suite.NotEmpty(n.NotificationID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *NotificationServiceTestSuite) TestCreateNotification_ForOthersNeedsAdmin() {
	ctx := context.Background()
	officer := newOfficer()

	n, err := suite.service.CreateNotification(ctx, officer, domain.Notification{
		UserID:  uuid.NewString(),
		Title:   "Heads up",
		Message: "Someone else's alert",
	})

	suite.Require().Error(err)
	suite.Nil(n)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveNotification")
}

func (suite *NotificationServiceTestSuite) TestBroadcast_ByRole() {
	ctx := context.Background()
	admin := newAdmin()
	recipients := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}

	suite.mockUsers.On("FindActiveUserIDs", ctx, []string(nil), []domain.Role{domain.RoleLO}).
		Return(recipients, nil).Once()
	suite.mockRepo.On("SaveNotifications", ctx, mock.MatchedBy(func(ns []domain.Notification) bool {
		if len(ns) != len(recipients) {
			return false
		}
		for i, n := range ns {
			if n.UserID != recipients[i] || n.Title != "Maintenance window" || n.IsRead {
				return false
			}
		}
		return true
	})).Return(nil).Once()

	count, err := suite.service.Broadcast(ctx, admin, portssvc.BroadcastInput{
		Roles:   []domain.Role{domain.RoleLO},
		Title:   "Maintenance window",
		Message: "The CRM is down Saturday 02:00-03:00 UTC",
	})

	suite.Require().NoError(err)
	suite.Equal(3, count)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockUsers.AssertExpectations(suite.T())
}

func (suite *NotificationServiceTestSuite) TestBroadcast_SkipsInactiveAccounts() {
	ctx := context.Background()
	admin := newAdmin()

	directory := &fakeUserDirectory{}
	activeIDs := map[string]bool{}
	for i := 0; i < 5; i++ {
		officer := newOfficer()
		activeIDs[officer.UserID] = true
		directory.users = append(directory.users, *officer)
	}
	for i := 0; i < 2; i++ {
		deactivated := newOfficer()
		deactivated.IsActive = false
		directory.users = append(directory.users, *deactivated)
	}

	service := services.NewNotificationService(suite.mockRepo, directory,
		services.WithNotificationClock(func() time.Time { return suite.now }))

	suite.mockRepo.On("SaveNotifications", ctx, mock.MatchedBy(func(ns []domain.Notification) bool {
		if len(ns) != 5 {
			return false
		}
		for _, n := range ns {
			if !activeIDs[n.UserID] {
				return false
			}
		}
		return true
	})).Return(nil).Once()

	count, err := service.Broadcast(ctx, admin, portssvc.BroadcastInput{
		Roles:   []domain.Role{domain.RoleLO},
		Title:   "Maintenance window",
		Message: "The CRM is down Saturday 02:00-03:00 UTC",
	})

	suite.Require().NoError(err)
	suite.Equal(5, count)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *NotificationServiceTestSuite) TestBroadcast_NonAdminForbidden() {
	ctx := context.Background()

	count, err := suite.service.Broadcast(ctx, newOfficer(), portssvc.BroadcastInput{
		Title:   "Maintenance window",
		Message: "Down Saturday",
	})

	suite.Require().Error(err)
	suite.Zero(count)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockUsers.AssertNotCalled(suite.T(), "FindActiveUserIDs")
}

func (suite *NotificationServiceTestSuite) TestBroadcast_UserIDsAndRolesAreExclusive() {
	ctx := context.Background()
	admin := newAdmin()

	count, err := suite.service.Broadcast(ctx, admin, portssvc.BroadcastInput{
		UserIDs: []string{uuid.NewString()},
		Roles:   []domain.Role{domain.RoleLO},
		Title:   "Maintenance window",
		Message: "Down Saturday",
	})

	suite.Require().Error(err)
	suite.Zero(count)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *NotificationServiceTestSuite) TestBroadcast_NoActiveRecipients() {
	ctx := context.Background()
	admin := newAdmin()

	suite.mockUsers.On("FindActiveUserIDs", ctx, []string(nil), []domain.Role{domain.RoleLOA}).
		Return([]string{}, nil).Once()

	count, err := suite.service.Broadcast(ctx, admin, portssvc.BroadcastInput{
		Roles:   []domain.Role{domain.RoleLOA},
		Title:   "Maintenance window",
		Message: "Down Saturday",
	})

	suite.Require().NoError(err)
	suite.Zero(count)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveNotifications")
}

func (suite *NotificationServiceTestSuite) TestMarkRead_OtherUserReadsAsAbsent() {
	ctx := context.Background()
	officer := newOfficer()
	existing := &domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         uuid.NewString(),
		Title:          "Private",
		Message:        "Not yours",
	}

	suite.mockRepo.On("FindNotificationByID", ctx, existing.NotificationID).Return(existing, nil).Once()

	n, err := suite.service.MarkRead(ctx, officer, existing.NotificationID)

	suite.Require().Error(err)
	suite.Nil(n)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "MarkRead")
}

func (suite *NotificationServiceTestSuite) TestClearRead_ReturnsCount() {
	ctx := context.Background()
	officer := newOfficer()

	suite.mockRepo.On("DeleteRead", ctx, officer.UserID).Return(7, nil).Once()

	count, err := suite.service.ClearRead(ctx, officer)

	suite.Require().NoError(err)
	suite.Equal(7, count)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
