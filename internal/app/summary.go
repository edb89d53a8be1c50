package app

import (
	"context"
	"time"

	"github.com/festivo/backstop/internal/adapters/upstream"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/repository"
)

// The dashboard aggregate is derived from everything else, so it gets
// the shortest TTL and is additionally evicted by every mutation rule.
const summaryTTL = 30 * time.Second

type SummaryRepository struct {
	layer   *repository.Layer
	backend upstream.Backend
}

func NewSummaryRepository(layer *repository.Layer, backend upstream.Backend) *SummaryRepository {
	return &SummaryRepository{
		layer:   layer,
		backend: backend,
	}
}

func (r *SummaryRepository) Get(ctx context.Context, tenant string) (domain.Summary, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Summary{}, err
	}

	return repository.Fetch(ctx, r.layer, repository.FetchRequest[domain.Summary]{
		Tenant:       tenant,
		ResourceType: domain.ResourceSummary,
		Qualifier:    keys.QueryQualifier(nil),
		TTL:          summaryTTL,
		Transport: func(ctx context.Context) (domain.Summary, error) {
			return r.backend.GetSummary(ctx, tenant)
		},
	})
}
