package services

import (
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/platform/cache"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/platform/leadconnector"
	"github.com/harborlend/loancrm/internal/platform/storage"
)

// NewServiceContainer wires repositories and platform clients into the full
// set of service facades. The cache, object store and contact client may be
// nil when the corresponding backend is not configured.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	dashCache *cache.Cache,
	store storage.ObjectStore,
	contacts leadconnector.ContactClient,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{
		Auth:          NewAuthService(cfg, repos.UserRepo),
		User:          NewUserService(repos.UserRepo),
		Loan:          NewLoanService(repos.LoanRepo),
		Task:          NewTaskService(repos.TaskRepo),
		Document:      NewDocumentService(repos.DocumentRepo, repos.LoanRepo, store, cfg),
		Communication: NewCommunicationService(repos.CommunicationRepo, repos.LoanRepo),
		Notification:  NewNotificationService(repos.NotificationRepo, repos.UserRepo),
		Appointment:   NewAppointmentService(repos.AppointmentRepo),
		Dashboard:     NewDashboardService(repos.DashboardRepo, WithDashboardCache(dashCache)),
	}
	// A nil contact client means the upstream connector is not configured;
	// the lead service stays unset and its routes are never mounted.
	if contacts != nil {
		container.Lead = NewLeadService(contacts, repos.LoanRepo, repos.LeadSourceRepo)
	}
	return container
}
