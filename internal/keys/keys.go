// Package keys builds cache keys. Keys have the form
// <tenant>/<resource>/<qualifier>, with the tenant segment first so that
// every tenant-scoped eviction can be expressed as a prefix match.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// NormalizeTenantID parses a tenant UUID in any accepted spelling and
// returns the canonical dashed lowercase form. All key construction goes
// through this, so differently formatted spellings of the same tenant
// collapse into a single key family.
func NormalizeTenantID(tenantID string) (string, error) {
	parsed, err := uuid.Parse(tenantID)
	if err != nil {
		return "", fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
	}
	return parsed.String(), nil
}

// ForQuery builds the cache key for a read of the given resource type.
// The tenant must already be normalized.
func ForQuery(tenant, resourceType, qualifier string) string {
	return tenant + "/" + resourceType + "/" + qualifier
}

// TenantPrefix matches every key owned by the tenant.
func TenantPrefix(tenant string) string {
	return tenant + "/"
}

// ResourcePrefix matches every cached query for one resource type.
func ResourcePrefix(tenant, resourceType string) string {
	return tenant + "/" + resourceType + "/"
}

// QueryQualifier renders query parameters as a stable string. Keys are
// sorted, so equal parameter sets always produce the same qualifier
// regardless of map iteration order. An empty set means the unfiltered
// query.
func QueryQualifier(params map[string]string) string {
	if len(params) == 0 {
		return "all"
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var qualifier strings.Builder
	for i, name := range names {
		if i > 0 {
			qualifier.WriteByte('&')
		}
		qualifier.WriteString(name)
		qualifier.WriteByte('=')
		qualifier.WriteString(params[name])
	}
	return qualifier.String()
}
