package repositories

// RepositoryProvider bundles every repository implementation for injection
// into the service layer.
type RepositoryProvider struct {
	UserRepo          UserRepository
	LoanRepo          LoanRepository
	TaskRepo          TaskRepository
	DocumentRepo      DocumentRepository
	CommunicationRepo CommunicationRepository
	NotificationRepo  NotificationRepository
	AppointmentRepo   AppointmentRepository
	LeadSourceRepo    LeadSourceRepository
	DashboardRepo     DashboardRepository
}
