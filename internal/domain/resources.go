package domain

// Resource types as they appear in cache keys and invalidation events.
const (
	ResourceGuests   = "guests"
	ResourceVendors  = "vendors"
	ResourceSettings = "settings"
	ResourceSummary  = "summary"
)
