package upstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/festivo/backstop/internal/config"
	"github.com/festivo/backstop/internal/domain"
)

// mockedBackend serves canned data from memory so the service can run
// in development without backend credentials. Mutations behave like the
// real API, including not-found errors.
type mockedBackend struct {
	mu       sync.Mutex
	guests   map[string][]domain.Guest
	vendors  map[string][]domain.Vendor
	settings map[string]domain.Settings
}

func newMockedBackend() *mockedBackend {
	return &mockedBackend{
		guests:   make(map[string][]domain.Guest),
		vendors:  make(map[string][]domain.Vendor),
		settings: make(map[string]domain.Settings),
	}
}

func (m *mockedBackend) ListGuests(_ context.Context, tenant string, filter domain.GuestFilter) ([]domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	guests := make([]domain.Guest, 0, len(m.guests[tenant]))
	for _, guest := range m.guests[tenant] {
		if filter.RSVP != "" && guest.RSVP != filter.RSVP {
			continue
		}
		guests = append(guests, guest)
	}
	return guests, nil
}

func (m *mockedBackend) CreateGuest(_ context.Context, tenant string, draft domain.GuestDraft) (domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	guest := domain.Guest{
		ID:           uuid.New().String(),
		Name:         draft.Name,
		Email:        draft.Email,
		RSVP:         domain.RSVPPending,
		PlusOnes:     draft.PlusOnes,
		DietaryNotes: draft.DietaryNotes,
		UpdatedAt:    time.Now(),
	}
	m.guests[tenant] = append(m.guests[tenant], guest)
	return guest, nil
}

func (m *mockedBackend) UpdateGuest(_ context.Context, tenant, guestID string, patch domain.GuestPatch) (domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, guest := range m.guests[tenant] {
		if guest.ID != guestID {
			continue
		}
		if patch.Name != nil {
			guest.Name = *patch.Name
		}
		if patch.Email != nil {
			guest.Email = *patch.Email
		}
		if patch.RSVP != nil {
			guest.RSVP = *patch.RSVP
		}
		if patch.PlusOnes != nil {
			guest.PlusOnes = *patch.PlusOnes
		}
		if patch.DietaryNotes != nil {
			guest.DietaryNotes = *patch.DietaryNotes
		}
		guest.UpdatedAt = time.Now()
		m.guests[tenant][i] = guest
		return guest, nil
	}
	return domain.Guest{}, domain.ErrNotFound
}

func (m *mockedBackend) DeleteGuest(_ context.Context, tenant, guestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, guest := range m.guests[tenant] {
		if guest.ID == guestID {
			m.guests[tenant] = append(m.guests[tenant][:i], m.guests[tenant][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockedBackend) ListVendors(_ context.Context, tenant string, filter domain.VendorFilter) ([]domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vendors := make([]domain.Vendor, 0, len(m.vendors[tenant]))
	for _, vendor := range m.vendors[tenant] {
		if filter.Category != "" && vendor.Category != filter.Category {
			continue
		}
		vendors = append(vendors, vendor)
	}
	return vendors, nil
}

func (m *mockedBackend) CreateVendor(_ context.Context, tenant string, draft domain.VendorDraft) (domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vendor := domain.Vendor{
		ID:         uuid.New().String(),
		Name:       draft.Name,
		Category:   draft.Category,
		QuoteCents: draft.QuoteCents,
		UpdatedAt:  time.Now(),
	}
	m.vendors[tenant] = append(m.vendors[tenant], vendor)
	return vendor, nil
}

func (m *mockedBackend) BookVendor(_ context.Context, tenant, vendorID string, booking domain.Booking) (domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, vendor := range m.vendors[tenant] {
		if vendor.ID != vendorID {
			continue
		}
		vendor.Booked = booking.Booked
		vendor.UpdatedAt = time.Now()
		m.vendors[tenant][i] = vendor
		return vendor, nil
	}
	return domain.Vendor{}, domain.ErrNotFound
}

func (m *mockedBackend) GetSettings(_ context.Context, tenant string) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings, ok := m.settings[tenant]
	if !ok {
		return domain.Settings{
			EventName:  "Untitled event",
			GuestLimit: 100,
			Currency:   "EUR",
			UpdatedAt:  time.Now(),
		}, nil
	}
	return settings, nil
}

func (m *mockedBackend) UpdateSettings(ctx context.Context, tenant string, patch domain.SettingsPatch) (domain.Settings, error) {
	current, _ := m.GetSettings(ctx, tenant)

	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.EventName != nil {
		current.EventName = *patch.EventName
	}
	if patch.EventDate != nil {
		current.EventDate = *patch.EventDate
	}
	if patch.VenueName != nil {
		current.VenueName = *patch.VenueName
	}
	if patch.GuestLimit != nil {
		current.GuestLimit = *patch.GuestLimit
	}
	if patch.Currency != nil {
		current.Currency = *patch.Currency
	}
	current.UpdatedAt = time.Now()
	m.settings[tenant] = current
	return current, nil
}

func (m *mockedBackend) GetSummary(_ context.Context, tenant string) (domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := domain.Summary{GeneratedAt: time.Now()}
	for _, guest := range m.guests[tenant] {
		summary.GuestCount++
		switch guest.RSVP {
		case domain.RSVPConfirmed:
			summary.ConfirmedCount++
			summary.ExpectedHeads += 1 + guest.PlusOnes
		case domain.RSVPDeclined:
			summary.DeclinedCount++
		default:
			summary.PendingCount++
		}
	}
	for _, vendor := range m.vendors[tenant] {
		summary.VendorCount++
		if vendor.Booked {
			summary.BookedVendors++
			summary.QuotedCents += vendor.QuoteCents
		}
	}
	return summary, nil
}

var _ Backend = (*mockedBackend)(nil)

// NewClientOrMock returns the real client when backend credentials are
// configured, and the in-memory mock in development.
func NewClientOrMock(config config.Config, httpClient HttpClient) (Backend, error) {
	if config.UpstreamAPIKey() != "" {
		return NewClient(httpClient, config.UpstreamBaseURL(), config.UpstreamAPIKey())
	}
	if config.IsDevelopment() {
		return newMockedBackend(), nil
	}
	return nil, fmt.Errorf("missing upstream API key in non-development environment")
}
