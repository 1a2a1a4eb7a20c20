package query

import (
	"context"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

var errVariantMismatch = apperr.Validationf("variant_id", "variant does not belong to the product")

type GetImageHandler struct {
	repo domain.ImageRepository
}

func NewGetImageHandler(repo domain.ImageRepository) *GetImageHandler {
	return &GetImageHandler{repo: repo}
}

// Handle returns the image with its bytes.
func (h *GetImageHandler) Handle(ctx context.Context, tenantID, id uint) (*domain.Image, error) {
	return h.repo.FindImage(ctx, tenantID, id)
}
