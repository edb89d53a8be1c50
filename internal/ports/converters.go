package ports

import (
	"fmt"
	"time"

	"github.com/festivo/backstop/internal/domain"
)

type guestResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	RSVP         string    `json:"rsvp"`
	PlusOnes     int       `json:"plusOnes"`
	DietaryNotes string    `json:"dietaryNotes,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type guestListResponse struct {
	Guests []guestResponse `json:"guests"`
}

func guestToResponse(guest domain.Guest) guestResponse {
	return guestResponse{
		ID:           guest.ID,
		Name:         guest.Name,
		Email:        guest.Email,
		RSVP:         string(guest.RSVP),
		PlusOnes:     guest.PlusOnes,
		DietaryNotes: guest.DietaryNotes,
		UpdatedAt:    guest.UpdatedAt,
	}
}

func guestsToListResponse(guests []domain.Guest) guestListResponse {
	response := guestListResponse{
		Guests: make([]guestResponse, 0, len(guests)),
	}
	for _, guest := range guests {
		response.Guests = append(response.Guests, guestToResponse(guest))
	}
	return response
}

type createGuestRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PlusOnes     int    `json:"plusOnes"`
	DietaryNotes string `json:"dietaryNotes"`
}

func (request createGuestRequest) toDraft() (domain.GuestDraft, error) {
	if request.Name == "" {
		return domain.GuestDraft{}, fmt.Errorf("%w: guest name is required", domain.ErrInvalidRequest)
	}
	if request.PlusOnes < 0 {
		return domain.GuestDraft{}, fmt.Errorf("%w: plusOnes must be non-negative", domain.ErrInvalidRequest)
	}
	return domain.GuestDraft{
		Name:         request.Name,
		Email:        request.Email,
		PlusOnes:     request.PlusOnes,
		DietaryNotes: request.DietaryNotes,
	}, nil
}

type updateGuestRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	RSVP         *string `json:"rsvp"`
	PlusOnes     *int    `json:"plusOnes"`
	DietaryNotes *string `json:"dietaryNotes"`
}

func (request updateGuestRequest) toPatch() (domain.GuestPatch, error) {
	patch := domain.GuestPatch{
		Name:         request.Name,
		Email:        request.Email,
		PlusOnes:     request.PlusOnes,
		DietaryNotes: request.DietaryNotes,
	}
	if request.RSVP != nil {
		rsvp, err := parseRSVPStatus(*request.RSVP)
		if err != nil {
			return domain.GuestPatch{}, err
		}
		patch.RSVP = &rsvp
	}
	if request.PlusOnes != nil && *request.PlusOnes < 0 {
		return domain.GuestPatch{}, fmt.Errorf("%w: plusOnes must be non-negative", domain.ErrInvalidRequest)
	}
	return patch, nil
}

func parseRSVPStatus(raw string) (domain.RSVPStatus, error) {
	switch status := domain.RSVPStatus(raw); status {
	case domain.RSVPPending, domain.RSVPConfirmed, domain.RSVPDeclined:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown rsvp status %q", domain.ErrInvalidRequest, raw)
	}
}

type vendorResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	QuoteCents int64     `json:"quoteCents"`
	Booked     bool      `json:"booked"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type vendorListResponse struct {
	Vendors []vendorResponse `json:"vendors"`
}

func vendorToResponse(vendor domain.Vendor) vendorResponse {
	return vendorResponse{
		ID:         vendor.ID,
		Name:       vendor.Name,
		Category:   string(vendor.Category),
		QuoteCents: vendor.QuoteCents,
		Booked:     vendor.Booked,
		UpdatedAt:  vendor.UpdatedAt,
	}
}

func vendorsToListResponse(vendors []domain.Vendor) vendorListResponse {
	response := vendorListResponse{
		Vendors: make([]vendorResponse, 0, len(vendors)),
	}
	for _, vendor := range vendors {
		response.Vendors = append(response.Vendors, vendorToResponse(vendor))
	}
	return response
}

type createVendorRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	QuoteCents int64  `json:"quoteCents"`
}

func (request createVendorRequest) toDraft() (domain.VendorDraft, error) {
	if request.Name == "" {
		return domain.VendorDraft{}, fmt.Errorf("%w: vendor name is required", domain.ErrInvalidRequest)
	}
	category, err := parseVendorCategory(request.Category)
	if err != nil {
		return domain.VendorDraft{}, err
	}
	if request.QuoteCents < 0 {
		return domain.VendorDraft{}, fmt.Errorf("%w: quoteCents must be non-negative", domain.ErrInvalidRequest)
	}
	return domain.VendorDraft{
		Name:       request.Name,
		Category:   category,
		QuoteCents: request.QuoteCents,
	}, nil
}

func parseVendorCategory(raw string) (domain.VendorCategory, error) {
	switch category := domain.VendorCategory(raw); category {
	case domain.VendorCatering, domain.VendorVenue, domain.VendorPhotography, domain.VendorEntertainers, domain.VendorFlorist:
		return category, nil
	default:
		return "", fmt.Errorf("%w: unknown vendor category %q", domain.ErrInvalidRequest, raw)
	}
}

type bookVendorRequest struct {
	Booked bool `json:"booked"`
}

type settingsResponse struct {
	EventName  string    `json:"eventName"`
	EventDate  time.Time `json:"eventDate"`
	VenueName  string    `json:"venueName,omitempty"`
	GuestLimit int       `json:"guestLimit"`
	Currency   string    `json:"currency"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func settingsToResponse(settings domain.Settings) settingsResponse {
	return settingsResponse{
		EventName:  settings.EventName,
		EventDate:  settings.EventDate,
		VenueName:  settings.VenueName,
		GuestLimit: settings.GuestLimit,
		Currency:   settings.Currency,
		UpdatedAt:  settings.UpdatedAt,
	}
}

type updateSettingsRequest struct {
	EventName  *string    `json:"eventName"`
	EventDate  *time.Time `json:"eventDate"`
	VenueName  *string    `json:"venueName"`
	GuestLimit *int       `json:"guestLimit"`
	Currency   *string    `json:"currency"`
}

func (request updateSettingsRequest) toPatch() (domain.SettingsPatch, error) {
	if request.GuestLimit != nil && *request.GuestLimit < 0 {
		return domain.SettingsPatch{}, fmt.Errorf("%w: guestLimit must be non-negative", domain.ErrInvalidRequest)
	}
	return domain.SettingsPatch{
		EventName:  request.EventName,
		EventDate:  request.EventDate,
		VenueName:  request.VenueName,
		GuestLimit: request.GuestLimit,
		Currency:   request.Currency,
	}, nil
}

type summaryResponse struct {
	GuestCount     int       `json:"guestCount"`
	ConfirmedCount int       `json:"confirmedCount"`
	DeclinedCount  int       `json:"declinedCount"`
	PendingCount   int       `json:"pendingCount"`
	ExpectedHeads  int       `json:"expectedHeads"`
	VendorCount    int       `json:"vendorCount"`
	BookedVendors  int       `json:"bookedVendors"`
	QuotedCents    int64     `json:"quotedCents"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

func summaryToResponse(summary domain.Summary) summaryResponse {
	return summaryResponse{
		GuestCount:     summary.GuestCount,
		ConfirmedCount: summary.ConfirmedCount,
		DeclinedCount:  summary.DeclinedCount,
		PendingCount:   summary.PendingCount,
		ExpectedHeads:  summary.ExpectedHeads,
		VendorCount:    summary.VendorCount,
		BookedVendors:  summary.BookedVendors,
		QuotedCents:    summary.QuotedCents,
		GeneratedAt:    summary.GeneratedAt,
	}
}

type invalidateCacheResponse struct {
	Evicted int `json:"evicted"`
}
