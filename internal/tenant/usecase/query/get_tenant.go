package query

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
)

// FrontendConfigHandler builds the public storefront projection.
type FrontendConfigHandler struct {
	phones *domain.PhoneFormatter
}

func NewFrontendConfigHandler(phones *domain.PhoneFormatter) *FrontendConfigHandler {
	return &FrontendConfigHandler{phones: phones}
}

func (h *FrontendConfigHandler) Handle(t *domain.Tenant) domain.FrontendConfig {
	return domain.ToFrontendConfig(t, h.phones)
}

// ListTenantsHandler pages through all tenants.
type ListTenantsHandler struct {
	repo domain.TenantRepository
}

func NewListTenantsHandler(repo domain.TenantRepository) *ListTenantsHandler {
	return &ListTenantsHandler{repo: repo}
}

func (h *ListTenantsHandler) Handle(ctx context.Context, limit, offset int) ([]domain.Tenant, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	tenants, total, err := h.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, total, nil
}
