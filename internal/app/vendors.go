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

// Vendor lists change rarely compared to guest RSVPs.
const vendorListTTL = 5 * time.Minute

type VendorRepository struct {
	layer   *repository.Layer
	backend upstream.Backend
}

func NewVendorRepository(layer *repository.Layer, backend upstream.Backend) *VendorRepository {
	return &VendorRepository{
		layer:   layer,
		backend: backend,
	}
}

func vendorQualifier(filter domain.VendorFilter) string {
	params := map[string]string{}
	if filter.Category != "" {
		params["category"] = string(filter.Category)
	}
	return keys.QueryQualifier(params)
}

func (r *VendorRepository) List(ctx context.Context, tenant string, filter domain.VendorFilter) ([]domain.Vendor, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return nil, err
	}

	return repository.Fetch(ctx, r.layer, repository.FetchRequest[[]domain.Vendor]{
		Tenant:       tenant,
		ResourceType: domain.ResourceVendors,
		Qualifier:    vendorQualifier(filter),
		TTL:          vendorListTTL,
		Transport: func(ctx context.Context) ([]domain.Vendor, error) {
			return r.backend.ListVendors(ctx, tenant, filter)
		},
	})
}

func (r *VendorRepository) Create(ctx context.Context, tenant string, draft domain.VendorDraft) (domain.Vendor, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Vendor{}, err
	}

	return repository.Mutate(ctx, r.layer, repository.Mutation[domain.Vendor]{
		Tenant:       tenant,
		ResourceType: domain.ResourceVendors,
		Kind:         invalidation.Created,
		ResourceIDFromResult: func(vendor domain.Vendor) string {
			return vendor.ID
		},
		Transport: func(ctx context.Context) (domain.Vendor, error) {
			return r.backend.CreateVendor(ctx, tenant, draft)
		},
	})
}

func (r *VendorRepository) Book(ctx context.Context, tenant, vendorID string, booking domain.Booking) (domain.Vendor, error) {
	tenant, err := keys.NormalizeTenantID(tenant)
	if err != nil {
		return domain.Vendor{}, err
	}

	return repository.Mutate(ctx, r.layer, repository.Mutation[domain.Vendor]{
		Tenant:       tenant,
		ResourceType: domain.ResourceVendors,
		Kind:         invalidation.Updated,
		ResourceID:   vendorID,
		Transport: func(ctx context.Context) (domain.Vendor, error) {
			return r.backend.BookVendor(ctx, tenant, vendorID, booking)
		},
	})
}
