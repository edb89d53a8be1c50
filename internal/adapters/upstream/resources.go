package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/reporting"
)

// Wire DTOs. The backend's JSON never leaks past this file; everything
// above it works with domain types.

type guestDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RSVP         string    `json:"rsvp"`
	PlusOnes     int       `json:"plusOnes"`
	DietaryNotes string    `json:"dietaryNotes,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (dto guestDTO) toDomain() domain.Guest {
	return domain.Guest{
		ID:           dto.ID,
		Name:         dto.Name,
		Email:        dto.Email,
		RSVP:         domain.RSVPStatus(dto.RSVP),
		PlusOnes:     dto.PlusOnes,
		DietaryNotes: dto.DietaryNotes,
		UpdatedAt:    dto.UpdatedAt,
	}
}

type guestDraftDTO struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PlusOnes     int    `json:"plusOnes"`
	DietaryNotes string `json:"dietaryNotes,omitempty"`
}

type guestPatchDTO struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	RSVP         *string `json:"rsvp,omitempty"`
	PlusOnes     *int    `json:"plusOnes,omitempty"`
	DietaryNotes *string `json:"dietaryNotes,omitempty"`
}

type vendorDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	QuoteCents int64     `json:"quoteCents"`
	Booked     bool      `json:"booked"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (dto vendorDTO) toDomain() domain.Vendor {
	return domain.Vendor{
		ID:         dto.ID,
		Name:       dto.Name,
		Category:   domain.VendorCategory(dto.Category),
		QuoteCents: dto.QuoteCents,
		Booked:     dto.Booked,
		UpdatedAt:  dto.UpdatedAt,
	}
}

type settingsDTO struct {
	EventName  string    `json:"eventName"`
	EventDate  time.Time `json:"eventDate"`
	VenueName  string    `json:"venueName"`
	GuestLimit int       `json:"guestLimit"`
	Currency   string    `json:"currency"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (dto settingsDTO) toDomain() domain.Settings {
	return domain.Settings{
		EventName:  dto.EventName,
		EventDate:  dto.EventDate,
		VenueName:  dto.VenueName,
		GuestLimit: dto.GuestLimit,
		Currency:   dto.Currency,
		UpdatedAt:  dto.UpdatedAt,
	}
}

type summaryDTO struct {
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

func decodeResponse[T any](ctx context.Context, data []byte) (T, error) {
	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		err := fmt.Errorf("failed to decode upstream response: %w", err)
		reporting.Report(ctx, err, map[string]string{"data": string(data)})
		return decoded, err
	}
	return decoded, nil
}

func rsvpToString(status domain.RSVPStatus) *string {
	if status == "" {
		return nil
	}
	value := string(status)
	return &value
}

func (c *Client) ListGuests(ctx context.Context, tenant string, filter domain.GuestFilter) ([]domain.Guest, error) {
	query := url.Values{}
	if filter.RSVP != "" {
		query.Set("rsvp", string(filter.RSVP))
	}

	data, err := c.do(ctx, http.MethodGet, "tenants/"+tenant+"/guests", query, nil)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeResponse[[]guestDTO](ctx, data)
	if err != nil {
		return nil, err
	}

	guests := make([]domain.Guest, 0, len(dtos))
	for _, dto := range dtos {
		guests = append(guests, dto.toDomain())
	}
	return guests, nil
}

func (c *Client) CreateGuest(ctx context.Context, tenant string, draft domain.GuestDraft) (domain.Guest, error) {
	body := guestDraftDTO{
		Name:         draft.Name,
		Email:        draft.Email,
		PlusOnes:     draft.PlusOnes,
		DietaryNotes: draft.DietaryNotes,
	}

	data, err := c.do(ctx, http.MethodPost, "tenants/"+tenant+"/guests", nil, body)
	if err != nil {
		return domain.Guest{}, err
	}

	dto, err := decodeResponse[guestDTO](ctx, data)
	if err != nil {
		return domain.Guest{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) UpdateGuest(ctx context.Context, tenant, guestID string, patch domain.GuestPatch) (domain.Guest, error) {
	body := guestPatchDTO{
		Name:         patch.Name,
		Email:        patch.Email,
		RSVP:         nil,
		PlusOnes:     patch.PlusOnes,
		DietaryNotes: patch.DietaryNotes,
	}
	if patch.RSVP != nil {
		body.RSVP = rsvpToString(*patch.RSVP)
	}

	data, err := c.do(ctx, http.MethodPatch, "tenants/"+tenant+"/guests/"+guestID, nil, body)
	if err != nil {
		return domain.Guest{}, err
	}

	dto, err := decodeResponse[guestDTO](ctx, data)
	if err != nil {
		return domain.Guest{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) DeleteGuest(ctx context.Context, tenant, guestID string) error {
	_, err := c.do(ctx, http.MethodDelete, "tenants/"+tenant+"/guests/"+guestID, nil, nil)
	return err
}

func (c *Client) ListVendors(ctx context.Context, tenant string, filter domain.VendorFilter) ([]domain.Vendor, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", string(filter.Category))
	}

	data, err := c.do(ctx, http.MethodGet, "tenants/"+tenant+"/vendors", query, nil)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeResponse[[]vendorDTO](ctx, data)
	if err != nil {
		return nil, err
	}

	vendors := make([]domain.Vendor, 0, len(dtos))
	for _, dto := range dtos {
		vendors = append(vendors, dto.toDomain())
	}
	return vendors, nil
}

func (c *Client) CreateVendor(ctx context.Context, tenant string, draft domain.VendorDraft) (domain.Vendor, error) {
	body := vendorDTO{
		Name:       draft.Name,
		Category:   string(draft.Category),
		QuoteCents: draft.QuoteCents,
	}

	data, err := c.do(ctx, http.MethodPost, "tenants/"+tenant+"/vendors", nil, body)
	if err != nil {
		return domain.Vendor{}, err
	}

	dto, err := decodeResponse[vendorDTO](ctx, data)
	if err != nil {
		return domain.Vendor{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) BookVendor(ctx context.Context, tenant, vendorID string, booking domain.Booking) (domain.Vendor, error) {
	body := struct {
		Booked bool `json:"booked"`
	}{Booked: booking.Booked}

	data, err := c.do(ctx, http.MethodPatch, "tenants/"+tenant+"/vendors/"+vendorID+"/booking", nil, body)
	if err != nil {
		return domain.Vendor{}, err
	}

	dto, err := decodeResponse[vendorDTO](ctx, data)
	if err != nil {
		return domain.Vendor{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetSettings(ctx context.Context, tenant string) (domain.Settings, error) {
	data, err := c.do(ctx, http.MethodGet, "tenants/"+tenant+"/settings", nil, nil)
	if err != nil {
		return domain.Settings{}, err
	}

	dto, err := decodeResponse[settingsDTO](ctx, data)
	if err != nil {
		return domain.Settings{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) UpdateSettings(ctx context.Context, tenant string, patch domain.SettingsPatch) (domain.Settings, error) {
	body := struct {
		EventName  *string    `json:"eventName,omitempty"`
		EventDate  *time.Time `json:"eventDate,omitempty"`
		VenueName  *string    `json:"venueName,omitempty"`
		GuestLimit *int       `json:"guestLimit,omitempty"`
		Currency   *string    `json:"currency,omitempty"`
	}{
		EventName:  patch.EventName,
		EventDate:  patch.EventDate,
		VenueName:  patch.VenueName,
		GuestLimit: patch.GuestLimit,
		Currency:   patch.Currency,
	}

	data, err := c.do(ctx, http.MethodPut, "tenants/"+tenant+"/settings", nil, body)
	if err != nil {
		return domain.Settings{}, err
	}

	dto, err := decodeResponse[settingsDTO](ctx, data)
	if err != nil {
		return domain.Settings{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetSummary(ctx context.Context, tenant string) (domain.Summary, error) {
	data, err := c.do(ctx, http.MethodGet, "tenants/"+tenant+"/summary", nil, nil)
	if err != nil {
		return domain.Summary{}, err
	}

	dto, err := decodeResponse[summaryDTO](ctx, data)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{
		GuestCount:     dto.GuestCount,
		ConfirmedCount: dto.ConfirmedCount,
		DeclinedCount:  dto.DeclinedCount,
		PendingCount:   dto.PendingCount,
		ExpectedHeads:  dto.ExpectedHeads,
		VendorCount:    dto.VendorCount,
		BookedVendors:  dto.BookedVendors,
		QuotedCents:    dto.QuotedCents,
		GeneratedAt:    dto.GeneratedAt,
	}, nil
}
