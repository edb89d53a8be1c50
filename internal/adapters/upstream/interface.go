// Package upstream talks to the remote backend: one REST client with a
// single status-classification choke point, a circuit breaker and a
// client-side politeness limiter. It is the network transport the
// repository layer retries.
package upstream

import (
	"context"
	"net/http"

	"github.com/festivo/backstop/internal/domain"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Backend is everything the resource repositories need from the remote
// API. Tenant identifiers must already be canonical.
type Backend interface {
	ListGuests(ctx context.Context, tenant string, filter domain.GuestFilter) ([]domain.Guest, error)
	CreateGuest(ctx context.Context, tenant string, draft domain.GuestDraft) (domain.Guest, error)
	UpdateGuest(ctx context.Context, tenant, guestID string, patch domain.GuestPatch) (domain.Guest, error)
	DeleteGuest(ctx context.Context, tenant, guestID string) error

	ListVendors(ctx context.Context, tenant string, filter domain.VendorFilter) ([]domain.Vendor, error)
	CreateVendor(ctx context.Context, tenant string, draft domain.VendorDraft) (domain.Vendor, error)
	BookVendor(ctx context.Context, tenant, vendorID string, booking domain.Booking) (domain.Vendor, error)

	GetSettings(ctx context.Context, tenant string) (domain.Settings, error)
	UpdateSettings(ctx context.Context, tenant string, patch domain.SettingsPatch) (domain.Settings, error)

	GetSummary(ctx context.Context, tenant string) (domain.Summary, error)
}
