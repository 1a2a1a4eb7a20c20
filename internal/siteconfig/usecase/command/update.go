package command

import (
	"context"
	"fmt"
	"sort"

	"github.com/tair/tenant-commerce/internal/siteconfig/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

type UpdateConfigHandler struct {
	repo domain.Repository
}

func NewUpdateConfigHandler(repo domain.Repository) *UpdateConfigHandler {
	return &UpdateConfigHandler{repo: repo}
}

// Handle validates every value before writing any. Unknown keys are rejected.
func (h *UpdateConfigHandler) Handle(ctx context.Context, tenantID uint, values map[string]interface{}) (map[string]interface{}, error) {
	if len(values) == 0 {
		return nil, apperr.Validationf("values", "nothing to update")
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]domain.Param, 0, len(keys))
	for _, k := range keys {
		opt, ok := domain.Lookup(k)
		if !ok {
			return nil, apperr.Validationf(k, "unknown site-config option %q", k)
		}
		raw, err := opt.Encode(values[k])
		if err != nil {
			return nil, err
		}
		params = append(params, domain.Param{TenantID: tenantID, Key: k, Value: raw})
	}
	if err := h.repo.Upsert(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to store site config: %w", err)
	}
	stored, err := h.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return domain.Resolve(stored), nil
}
