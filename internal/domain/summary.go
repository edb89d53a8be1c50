package domain

import "time"

// Summary is the read-only dashboard aggregate the backend derives from
// a tenant's guests, vendors and settings. It is the most invalidation
// sensitive value in the cache: any mutation in the tenant can change
// it.
type Summary struct {
	GuestCount     int
	ConfirmedCount int
	DeclinedCount  int
	PendingCount   int
	ExpectedHeads  int
	VendorCount    int
	BookedVendors  int
	QuotedCents    int64
	GeneratedAt    time.Time
}
