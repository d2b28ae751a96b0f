package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

// AuthService handles registration, login and token verification.
type AuthService interface {
	Register(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

// UserService manages user accounts.
type UserService interface {
	GetUserByID(ctx context.Context, actor *domain.User, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, actor *domain.User, filter portsrepo.UserFilter) ([]domain.User, int, error)
	UpdateUser(ctx context.Context, actor *domain.User, userID string, patch UserPatch) (*domain.User, error)
	SetUserStatus(ctx context.Context, actor *domain.User, userID string, active bool) (*domain.User, error)
	SetUserPermissions(ctx context.Context, actor *domain.User, userID string, permissions []domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.User, userID string) error
}

// UserPatch carries the mutable user fields; nil means unchanged.
type UserPatch struct {
	Name        *string
	Email       *string
	PrimaryRole *domain.Role
}

// LoanService manages loans and their pipeline stage history.
type LoanService interface {
	CreateLoan(ctx context.Context, actor *domain.User, input CreateLoanInput) (*domain.Loan, error)
	GetLoanByID(ctx context.Context, actor *domain.User, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, actor *domain.User, filter portsrepo.LoanFilter) ([]domain.Loan, int, error)
	UpdateLoan(ctx context.Context, actor *domain.User, loanID string, patch LoanPatch) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, actor *domain.User, loanID string) error
	GetStageHistory(ctx context.Context, actor *domain.User, loanID string) ([]domain.StageHistoryEntry, error)
	GetPipelineSummary(ctx context.Context, actor *domain.User, loanOfficerID string) ([]domain.PipelineStageSummary, error)
}

// CreateLoanInput carries the fields needed to open a loan.
type CreateLoanInput struct {
	BorrowerName    string
	BorrowerEmail   string
	BorrowerPhone   string
	PropertyAddress string
	LoanType        domain.LoanType
	LoanAmount      decimal.Decimal
	TargetCloseDate *time.Time
	LoanOfficerID   string
}

// LoanPatch carries mutable loan fields; nil means unchanged.
type LoanPatch struct {
	BorrowerName    *string
	BorrowerEmail   *string
	BorrowerPhone   *string
	PropertyAddress *string
	LoanType        *domain.LoanType
	LoanAmount      *decimal.Decimal
	TargetCloseDate *time.Time
	CurrentStage    *string
	Status          *domain.LoanStatus
	Progress        *int
}

// TaskService manages tasks.
type TaskService interface {
	CreateTask(ctx context.Context, actor *domain.User, task domain.Task) (*domain.Task, error)
	GetTaskByID(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, actor *domain.User, filter portsrepo.TaskFilter) ([]domain.Task, int, error)
	UpdateTask(ctx context.Context, actor *domain.User, taskID string, patch TaskPatch) (*domain.Task, error)
	// CompleteTask marks the task COMPLETED and stamps completedAt.
	CompleteTask(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error)
	DeleteTask(ctx context.Context, actor *domain.User, taskID string) error
	GetTaskSummary(ctx context.Context, actor *domain.User) (*domain.TaskSummary, error)
	GetTaskStats(ctx context.Context, actor *domain.User) (byStatus, byPriority []domain.GroupCount, err error)
}

// TaskPatch carries mutable task fields; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	Status      *domain.TaskStatus
	DueDate     *time.Time
	LoanID      *string
}

// DocumentService manages document metadata and uploaded files.
type DocumentService interface {
	CreateDocument(ctx context.Context, actor *domain.User, doc domain.Document) (*domain.Document, error)
	GetDocumentByID(ctx context.Context, actor *domain.User, documentID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, actor *domain.User, filter portsrepo.DocumentFilter) ([]domain.Document, int, error)
	UpdateDocument(ctx context.Context, actor *domain.User, documentID string, patch DocumentPatch) (*domain.Document, error)
	DeleteDocument(ctx context.Context, actor *domain.User, documentID string) error
	// Upload stores the file bytes and marks the document RECEIVED.
	Upload(ctx context.Context, actor *domain.User, documentID, fileName string, size int64, r io.Reader) (*domain.Document, error)
	// Download streams the stored file; callers must close the reader.
	Download(ctx context.Context, actor *domain.User, documentID string) (io.ReadCloser, *domain.Document, error)
}

// DocumentPatch carries mutable document fields; nil means unchanged.
type DocumentPatch struct {
	Name    *string
	Type    *string
	Status  *domain.DocumentStatus
	DueDate *time.Time
}

// CommunicationService manages the communication log.
type CommunicationService interface {
	CreateCommunication(ctx context.Context, actor *domain.User, comm domain.Communication) (*domain.Communication, error)
	GetCommunicationByID(ctx context.Context, actor *domain.User, commID string) (*domain.Communication, error)
	ListCommunications(ctx context.Context, actor *domain.User, filter portsrepo.CommunicationFilter) ([]domain.Communication, int, error)
	UpdateCommunication(ctx context.Context, actor *domain.User, commID string, patch CommunicationPatch) (*domain.Communication, error)
	DeleteCommunication(ctx context.Context, actor *domain.User, commID string) error
	GetCommunicationStats(ctx context.Context, actor *domain.User, filter portsrepo.CommunicationFilter) (*domain.CommunicationStats, error)
}

// CommunicationPatch carries mutable communication fields; nil means unchanged.
type CommunicationPatch struct {
	Subject *string
	Content *string
	Type    *domain.CommunicationType
}

// NotificationService manages notifications, including broadcast fan-out.
type NotificationService interface {
	CreateNotification(ctx context.Context, actor *domain.User, n domain.Notification) (*domain.Notification, error)
	// Broadcast creates one notification per resolved recipient. Exactly one
	// of userIDs / roles may be set; when both are empty the notification
	// goes to every active user. Inactive users are always skipped.
	Broadcast(ctx context.Context, actor *domain.User, input BroadcastInput) (int, error)
	ListNotifications(ctx context.Context, actor *domain.User, filter portsrepo.NotificationFilter) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, actor *domain.User, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, actor *domain.User) (int, error)
	DeleteNotification(ctx context.Context, actor *domain.User, notificationID string) error
	ClearRead(ctx context.Context, actor *domain.User) (int, error)
	GetNotificationSummary(ctx context.Context, actor *domain.User) (*domain.NotificationSummary, error)
}

// BroadcastInput names the recipients and payload of a broadcast.
type BroadcastInput struct {
	UserIDs []string
	Roles   []domain.Role
	Title   string
	Message string
	Type    domain.NotificationType
}

// AppointmentService manages appointments with conflict detection.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, actor *domain.User, appt domain.Appointment) (*domain.Appointment, error)
	GetAppointmentByID(ctx context.Context, actor *domain.User, apptID string) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, actor *domain.User, filter portsrepo.AppointmentFilter) ([]domain.Appointment, int, error)
	UpdateAppointment(ctx context.Context, actor *domain.User, apptID string, patch AppointmentPatch) (*domain.Appointment, error)
	DeleteAppointment(ctx context.Context, actor *domain.User, apptID string) error
	// GetCalendar returns the month's appointments grouped by day-of-month
	// key "YYYY-MM-DD".
	GetCalendar(ctx context.Context, actor *domain.User, year int, month time.Month) (map[string][]domain.Appointment, error)
	GetToday(ctx context.Context, actor *domain.User) ([]domain.Appointment, error)
	GetUpcoming(ctx context.Context, actor *domain.User, limit int) ([]domain.Appointment, error)
	GetCategories(ctx context.Context, actor *domain.User) ([]string, error)
}

// AppointmentPatch carries mutable appointment fields; nil means unchanged.
type AppointmentPatch struct {
	Title       *string
	Description *string
	Category    *string
	Color       *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// LeadService manages lead sources and the lead import flow.
type LeadService interface {
	// ListExternalContacts proxies the upstream contact service.
	ListExternalContacts(ctx context.Context, actor *domain.User, query string, limit int) ([]domain.Contact, int, error)
	ImportLead(ctx context.Context, actor *domain.User, contactID, sourceName string) (*domain.Loan, error)
	SyncContact(ctx context.Context, actor *domain.User, loanID string) (*domain.Loan, error)
	ListLeadSources(ctx context.Context, actor *domain.User, activeOnly bool) ([]domain.LeadSource, error)
	CreateLeadSource(ctx context.Context, actor *domain.User, name string) (*domain.LeadSource, error)
	UpdateLeadSource(ctx context.Context, actor *domain.User, sourceID string, name *string, active *bool) (*domain.LeadSource, error)
	DeleteLeadSource(ctx context.Context, actor *domain.User, sourceID string) error
}

// DashboardService serves the aggregated reporting endpoints. Overview and
// analytics payloads may be served from a short-lived cache.
type DashboardService interface {
	GetOverview(ctx context.Context, actor *domain.User) (*DashboardOverview, error)
	GetPerformance(ctx context.Context, actor *domain.User, period string) (*DashboardPerformance, error)
	GetAnalytics(ctx context.Context, actor *domain.User) (*DashboardAnalytics, error)
}

// DashboardOverview is the aggregate payload behind GET /dashboard/overview.
type DashboardOverview struct {
	TotalLoans           int                         `json:"totalLoans"`
	ActiveLoans          int                         `json:"activeLoans"`
	ClosedLoans          int                         `json:"closedLoans"`
	TotalVolume          decimal.Decimal             `json:"totalVolume"`
	Pipeline             []domain.StageStatusSummary `json:"pipeline"`
	OverdueTasks         []domain.Task               `json:"overdueTasks"`
	UpcomingTasks        []domain.Task               `json:"upcomingTasks"`
	RecentCommunications []domain.Communication      `json:"recentCommunications"`
	MonthToDate          MonthToDate                 `json:"monthToDate"`
}

// MonthToDate counts this calendar month's activity.
type MonthToDate struct {
	LoansCreated          int `json:"loansCreated"`
	TasksCompleted        int `json:"tasksCompleted"`
	CommunicationsSent    int `json:"communicationsSent"`
	AppointmentsScheduled int `json:"appointmentsScheduled"`
}

// DashboardPerformance is the payload behind GET /dashboard/performance.
type DashboardPerformance struct {
	Period              string              `json:"period"`
	ClosedLoans         int                 `json:"closedLoans"`
	ClosedVolume        decimal.Decimal     `json:"closedVolume"`
	AvgDaysToClose      float64             `json:"avgDaysToClose"`
	StageConversions    []domain.GroupCount `json:"stageConversions"`
	TaskCompletionRate  float64             `json:"taskCompletionRate"`
	CommunicationVolume int                 `json:"communicationVolume"`
}

// DashboardAnalytics is the payload behind GET /dashboard/analytics.
type DashboardAnalytics struct {
	DailyTaskActivity []domain.DailyCount           `json:"dailyTaskActivity"`
	StageDistribution []domain.PipelineStageSummary `json:"stageDistribution"`
	LoanTypeBreakdown []domain.LoanTypeSummary      `json:"loanTypeBreakdown"`
	MonthlyTrends     []domain.MonthlyLoanTrend     `json:"monthlyTrends"`
}
