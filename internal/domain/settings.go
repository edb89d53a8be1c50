package domain

import "time"

// Settings is the per-tenant event configuration. There is exactly one
// per tenant.
type Settings struct {
	EventName  string
	EventDate  time.Time
	VenueName  string
	GuestLimit int
	Currency   string
	UpdatedAt  time.Time
}

// SettingsPatch updates the tenant's settings. Nil fields are left
// unchanged.
type SettingsPatch struct {
	EventName  *string
	EventDate  *time.Time
	VenueName  *string
	GuestLimit *int
	Currency   *string
}
