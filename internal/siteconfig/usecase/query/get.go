package query

import (
	"context"

	"github.com/tair/tenant-commerce/internal/siteconfig/domain"
)

type GetConfigHandler struct {
	repo domain.Repository
}

func NewGetConfigHandler(repo domain.Repository) *GetConfigHandler {
	return &GetConfigHandler{repo: repo}
}

// Handle returns every recognized option, stored or default.
func (h *GetConfigHandler) Handle(ctx context.Context, tenantID uint) (map[string]interface{}, error) {
	params, err := h.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return domain.Resolve(params), nil
}
