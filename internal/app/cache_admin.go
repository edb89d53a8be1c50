package app

import (
	"context"

	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/repository"
)

// CacheAdmin exposes the administrative cache operations, with the same
// tenant canonicalization as the resource repositories.
type CacheAdmin struct {
	layer *repository.Layer
}

func NewCacheAdmin(layer *repository.Layer) *CacheAdmin {
	return &CacheAdmin{layer: layer}
}

// InvalidateAll clears everything the tenant has in the cache. Used on
// logout and tenant switch.
func (a *CacheAdmin) InvalidateAll(ctx context.Context, tenant string) (int, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return 0, err
	}
	return a.layer.InvalidateAll(ctx, tenant), nil
}
