package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/festivo/backstop/internal/adapters/cache"
	"github.com/festivo/backstop/internal/adapters/upstream"
	"github.com/festivo/backstop/internal/app"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/repository"
	"github.com/festivo/backstop/internal/retry"
)

const (
	tenantA = "aaaaaaaa-0000-0000-0000-000000000000"
	tenantB = "bbbbbbbb-0000-0000-0000-000000000000"
)

// mockBackend counts calls per operation and returns canned values.
type mockBackend struct {
	t *testing.T

	mu    sync.Mutex
	calls map[string]int

	guests   []domain.Guest
	vendors  []domain.Vendor
	settings domain.Settings
	summary  domain.Summary
	err      error
}

func newMockBackend(t *testing.T) *mockBackend {
	return &mockBackend{
		t:     t,
		calls: make(map[string]int),
	}
}

func (m *mockBackend) record(operation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[operation]++
	return m.err
}

func (m *mockBackend) callCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[operation]
}

func (m *mockBackend) ListGuests(_ context.Context, tenant string, filter domain.GuestFilter) ([]domain.Guest, error) {
	if err := m.record("ListGuests"); err != nil {
		return nil, err
	}
	return m.guests, nil
}

func (m *mockBackend) CreateGuest(_ context.Context, tenant string, draft domain.GuestDraft) (domain.Guest, error) {
	if err := m.record("CreateGuest"); err != nil {
		return domain.Guest{}, err
	}
	return domain.Guest{ID: "guest-new", Name: draft.Name, RSVP: domain.RSVPPending}, nil
}

func (m *mockBackend) UpdateGuest(_ context.Context, tenant, guestID string, patch domain.GuestPatch) (domain.Guest, error) {
	if err := m.record("UpdateGuest"); err != nil {
		return domain.Guest{}, err
	}
	return domain.Guest{ID: guestID}, nil
}

func (m *mockBackend) DeleteGuest(_ context.Context, tenant, guestID string) error {
	return m.record("DeleteGuest")
}

func (m *mockBackend) ListVendors(_ context.Context, tenant string, filter domain.VendorFilter) ([]domain.Vendor, error) {
	if err := m.record("ListVendors"); err != nil {
		return nil, err
	}
	return m.vendors, nil
}

func (m *mockBackend) CreateVendor(_ context.Context, tenant string, draft domain.VendorDraft) (domain.Vendor, error) {
	if err := m.record("CreateVendor"); err != nil {
		return domain.Vendor{}, err
	}
	return domain.Vendor{ID: "vendor-new", Name: draft.Name, Category: draft.Category}, nil
}

func (m *mockBackend) BookVendor(_ context.Context, tenant, vendorID string, booking domain.Booking) (domain.Vendor, error) {
	if err := m.record("BookVendor"); err != nil {
		return domain.Vendor{}, err
	}
	return domain.Vendor{ID: vendorID, Booked: booking.Booked}, nil
}

func (m *mockBackend) GetSettings(_ context.Context, tenant string) (domain.Settings, error) {
	if err := m.record("GetSettings"); err != nil {
		return domain.Settings{}, err
	}
	return m.settings, nil
}

func (m *mockBackend) UpdateSettings(_ context.Context, tenant string, patch domain.SettingsPatch) (domain.Settings, error) {
	if err := m.record("UpdateSettings"); err != nil {
		return domain.Settings{}, err
	}
	return m.settings, nil
}

func (m *mockBackend) GetSummary(_ context.Context, tenant string) (domain.Summary, error) {
	if err := m.record("GetSummary"); err != nil {
		return domain.Summary{}, err
	}
	return m.summary, nil
}

var _ upstream.Backend = (*mockBackend)(nil)

type testApp struct {
	backend *mockBackend
	layer   *repository.Layer
	now     *time.Time

	guests   *app.GuestRepository
	vendors  *app.VendorRepository
	settings *app.SettingsRepository
	summary  *app.SummaryRepository
	admin    *app.CacheAdmin
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	store := cache.NewMemoryStore(func() time.Time { return now })
	executor := retry.NewExecutor(time.Now, time.After, nil)
	immediate := retry.Policy{MaxAttempts: 1}
	layer := repository.New(store, executor, immediate, immediate, nil)
	app.RegisterInvalidationRules(layer)

	backend := newMockBackend(t)

	return &testApp{
		backend: backend,
		layer:   layer,
		now:     &now,

		guests:   app.NewGuestRepository(layer, backend),
		vendors:  app.NewVendorRepository(layer, backend),
		settings: app.NewSettingsRepository(layer, backend),
		summary:  app.NewSummaryRepository(layer, backend),
		admin:    app.NewCacheAdmin(layer),
	}
}

func requireCallCount(t *testing.T, backend *mockBackend, operation string, want int) {
	t.Helper()
	require.Equal(t, want, backend.callCount(operation), "unexpected call count for %s", operation)
}
