package domain

import "time"

type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPConfirmed RSVPStatus = "confirmed"
	RSVPDeclined  RSVPStatus = "declined"
)

// Guest is one entry on a tenant's guest list.
type Guest struct {
	ID           string
	Name         string
	Email        string
	RSVP         RSVPStatus
	PlusOnes     int
	DietaryNotes string
	UpdatedAt    time.Time
}

// GuestFilter narrows a guest list read. The zero value means the full
// list.
type GuestFilter struct {
	RSVP RSVPStatus
}

// GuestDraft is the payload for creating a guest.
type GuestDraft struct {
	Name         string
	Email        string
	PlusOnes     int
	DietaryNotes string
}

// GuestPatch updates a guest. Nil fields are left unchanged.
type GuestPatch struct {
	Name         *string
	Email        *string
	RSVP         *RSVPStatus
	PlusOnes     *int
	DietaryNotes *string
}
