// Package app wires the repository layer and the upstream backend into
// the typed per-resource repositories callers use.
package app

import (
	"context"
	"time"

	"github.com/festivo/backstop/internal/adapters/upstream"
	"github.com/festivo/backstop/internal/domain"
	"github.com/festivo/backstop/internal/invalidation"
	"github.com/festivo/backstop/internal/keys"
	"github.com/festivo/backstop/internal/repository"
)

const guestListTTL = 1 * time.Minute

type GuestRepository struct {
	layer   *repository.Layer
	backend upstream.Backend
}

func NewGuestRepository(layer *repository.Layer, backend upstream.Backend) *GuestRepository {
	return &GuestRepository{
		layer:   layer,
		backend: backend,
	}
}

func guestQualifier(filter domain.GuestFilter) string {
	params := map[string]string{}
	if filter.RSVP != "" {
		params["rsvp"] = string(filter.RSVP)
	}
	return keys.QueryQualifier(params)
}

func (r *GuestRepository) List(ctx context.Context, tenant string, filter domain.GuestFilter) ([]domain.Guest, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return nil, err
	}

	return repository.Fetch(ctx, r.layer, repository.FetchRequest[[]domain.Guest]{
		Tenant:       tenant,
		ResourceType: domain.ResourceGuests,
		Qualifier:    guestQualifier(filter),
		TTL:          guestListTTL,
		Transport: func(ctx context.Context) ([]domain.Guest, error) {
			return r.backend.ListGuests(ctx, tenant, filter)
		},
	})
}

func (r *GuestRepository) Create(ctx context.Context, tenant string, draft domain.GuestDraft) (domain.Guest, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Guest{}, err
	}

	return repository.Mutate(ctx, r.layer, repository.Mutation[domain.Guest]{
		Tenant:       tenant,
		ResourceType: domain.ResourceGuests,
		Kind:         invalidation.Created,
		ResourceIDFromResult: func(guest domain.Guest) string {
			return guest.ID
		},
		Transport: func(ctx context.Context) (domain.Guest, error) {
			return r.backend.CreateGuest(ctx, tenant, draft)
		},
	})
}

func (r *GuestRepository) Update(ctx context.Context, tenant, guestID string, patch domain.GuestPatch) (domain.Guest, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Guest{}, err
	}

	return repository.Mutate(ctx, r.layer, repository.Mutation[domain.Guest]{
		Tenant:       tenant,
		ResourceType: domain.ResourceGuests,
		Kind:         invalidation.Updated,
		ResourceID:   guestID,
		Transport: func(ctx context.Context) (domain.Guest, error) {
			return r.backend.UpdateGuest(ctx, tenant, guestID, patch)
		},
	})
}

func (r *GuestRepository) Delete(ctx context.Context, tenant, guestID string) error {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return err
	}

	_, err = repository.Mutate(ctx, r.layer, repository.Mutation[string]{
		Tenant:       tenant,
		ResourceType: domain.ResourceGuests,
		Kind:         invalidation.Deleted,
		ResourceID:   guestID,
		Transport: func(ctx context.Context) (string, error) {
			if err := r.backend.DeleteGuest(ctx, tenant, guestID); err != nil {
				return "", err
			}
			return guestID, nil
		},
	})
	return err
}
