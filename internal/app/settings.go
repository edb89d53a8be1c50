package app

import (
	"context"
	"time"

	"github.com/festivo/backstop/internal/adapters/upstream"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/repository"
)

const settingsTTL = 10 * time.Minute

// SettingsRepository serves the tenant's singleton settings resource.
type SettingsRepository struct {
	layer   *repository.Layer
	backend upstream.Backend
}

func NewSettingsRepository(layer *repository.Layer, backend upstream.Backend) *SettingsRepository {
	return &SettingsRepository{
		layer:   layer,
		backend: backend,
	}
}

func (r *SettingsRepository) Get(ctx context.Context, tenant string) (domain.Settings, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Settings{}, err
	}

	return repository.Fetch(ctx, r.layer, repository.FetchRequest[domain.Settings]{
		Tenant:       tenant,
		ResourceType: domain.ResourceSettings,
		Qualifier:    keys.QueryQualifier(nil),
		TTL:          settingsTTL,
		Transport: func(ctx context.Context) (domain.Settings, error) {
			return r.backend.GetSettings(ctx, tenant)
		},
	})
}

func (r *SettingsRepository) Update(ctx context.Context, tenant string, patch domain.SettingsPatch) (domain.Settings, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Settings{}, err
	}

	return repository.Mutate(ctx, r.layer, repository.Mutation[domain.Settings]{
		Tenant:       tenant,
		ResourceType: domain.ResourceSettings,
		Kind:         invalidation.Updated,
		// The settings resource is a singleton; the tenant id doubles
		// as the resource id.
		ResourceID: tenant,
		Transport: func(ctx context.Context) (domain.Settings, error) {
			return r.backend.UpdateSettings(ctx, tenant, patch)
		},
	})
}
