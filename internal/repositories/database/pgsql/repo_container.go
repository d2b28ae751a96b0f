package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:          newPgxUserRepository(dbPool),
		LoanRepo:          newPgxLoanRepository(dbPool),
		TaskRepo:          newPgxTaskRepository(dbPool),
		DocumentRepo:      newPgxDocumentRepository(dbPool),
		CommunicationRepo: newPgxCommunicationRepository(dbPool),
		NotificationRepo:  newPgxNotificationRepository(dbPool),
		AppointmentRepo:   newPgxAppointmentRepository(dbPool),
		LeadSourceRepo:    newPgxLeadSourceRepository(dbPool),
		DashboardRepo:     newDashboardRepository(dbPool),
	}
}
