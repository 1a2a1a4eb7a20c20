package query

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/customer/domain"
)

type GetPartnerHandler struct {
	repo domain.PartnerRepository
}

func NewGetPartnerHandler(repo domain.PartnerRepository) *GetPartnerHandler {
	return &GetPartnerHandler{repo: repo}
}

func (h *GetPartnerHandler) Handle(ctx context.Context, tenantID, id uint) (*domain.Partner, error) {
	return h.repo.FindByID(ctx, tenantID, id)
}

type ListPartnersResult struct {
	Customers []domain.Partner `json:"customers"`
	Total     int64            `json:"total"`
}

type ListPartnersHandler struct {
	repo domain.PartnerRepository
}

func NewListPartnersHandler(repo domain.PartnerRepository) *ListPartnersHandler {
	return &ListPartnersHandler{repo: repo}
}

func (h *ListPartnersHandler) Handle(ctx context.Context, tenantID uint, f domain.PartnerFilter) (*ListPartnersResult, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	partners, total, err := h.repo.List(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if partners == nil {
		partners = []domain.Partner{}
	}
	return &ListPartnersResult{Customers: partners, Total: total}, nil
}
