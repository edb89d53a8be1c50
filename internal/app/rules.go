package app

import (
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/repository"
)

// RegisterInvalidationRules installs the rule set for every resource
// type. Call once at startup, before serving traffic.
//
// The rules are deliberately conservative: any guest, vendor or
// settings mutation also evicts the tenant's summary caches, since the
// dashboard aggregate is derived from all three. Evicting too much
// costs one refetch; evicting too little serves stale totals.
func RegisterInvalidationRules(layer *repository.Layer) {
	rules := layer.Rules()

	rules.Register(domain.ResourceGuests, invalidation.Rule{
		Patterns: func(tenant, resourceID string) []string {
			return []string{
				keys.ResourcePrefix(tenant, domain.ResourceGuests),
				keys.ResourcePrefix(tenant, domain.ResourceSummary),
			}
		},
	})

	rules.Register(domain.ResourceVendors, invalidation.Rule{
		Patterns: func(tenant, resourceID string) []string {
			return []string{
				keys.ResourcePrefix(tenant, domain.ResourceVendors),
				keys.ResourcePrefix(tenant, domain.ResourceSummary),
			}
		},
	})

	rules.Register(domain.ResourceSettings, invalidation.Rule{
		Patterns: func(tenant, resourceID string) []string {
			return []string{
				keys.ResourcePrefix(tenant, domain.ResourceSettings),
				keys.ResourcePrefix(tenant, domain.ResourceSummary),
			}
		},
	})
}
