package services

// ServiceContainer bundles every service facade for injection into the
// handler layer.
type ServiceContainer struct {
	Auth          AuthService
	User          UserService
	Loan          LoanService
	Task          TaskService
	Document      DocumentService
	Communication CommunicationService
	Notification  NotificationService
	Appointment   AppointmentService
	Lead          LeadService
	Dashboard     DashboardService
}
