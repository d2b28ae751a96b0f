package repositories

import (
	"context"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// LeadSourceRepository persists lead sources and their conversion counters.
type LeadSourceRepository interface {
	SaveLeadSource(ctx context.Context, src domain.LeadSource) error
	FindLeadSourceByID(ctx context.Context, sourceID string) (*domain.LeadSource, error)
	FindLeadSourceByName(ctx context.Context, name string) (*domain.LeadSource, error)
	FindLeadSources(ctx context.Context, activeOnly bool) ([]domain.LeadSource, error)
	UpdateLeadSource(ctx context.Context, src domain.LeadSource) error
	IncrementLeadCounts(ctx context.Context, sourceID string, leads, converted int) error
	DeleteLeadSource(ctx context.Context, sourceID string) error
}
