package domain

import "time"

type VendorCategory string

const (
	VendorCatering     VendorCategory = "catering"
	VendorVenue        VendorCategory = "venue"
	VendorPhotography  VendorCategory = "photography"
	VendorEntertainers VendorCategory = "entertainment"
	VendorFlorist      VendorCategory = "florist"
)

// Vendor is a supplier a tenant is considering or has booked.
type Vendor struct {
	ID         string
	Name       string
	Category   VendorCategory
	QuoteCents int64
	Booked     bool
	UpdatedAt  time.Time
}

// VendorFilter narrows a vendor list read. The zero value means the
// full list.
type VendorFilter struct {
	Category VendorCategory
}

// VendorDraft is the payload for creating a vendor.
type VendorDraft struct {
	Name       string
	Category   VendorCategory
	QuoteCents int64
}

// Booking toggles a vendor's booked state.
type Booking struct {
	Booked bool
}
