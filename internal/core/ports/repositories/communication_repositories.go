package repositories

import (
	"context"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// CommunicationRepository persists logged communications.
type CommunicationRepository interface {
	SaveCommunication(ctx context.Context, comm domain.Communication) error
	FindCommunicationByID(ctx context.Context, commID string) (*domain.Communication, error)
	FindCommunications(ctx context.Context, filter CommunicationFilter) ([]domain.Communication, int, error)
	UpdateCommunication(ctx context.Context, comm domain.Communication) error
	DeleteCommunication(ctx context.Context, commID string) error
	SummarizeCommunications(ctx context.Context, filter CommunicationFilter) (*domain.CommunicationStats, error)
}
