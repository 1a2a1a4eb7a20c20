package query

import (
	"context"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
)

type ListVariantsResult struct {
	ProductID      uint          `json:"product_id"`
	AttributeLines []LineView    `json:"attribute_lines"`
	Variants       []VariantView `json:"variants"`
}

type ListVariantsHandler struct {
	repo      domain.Repository
	assembler *Assembler
}

func NewListVariantsHandler(repo domain.Repository, assembler *Assembler) *ListVariantsHandler {
	return &ListVariantsHandler{repo: repo, assembler: assembler}
}

func (h *ListVariantsHandler) Handle(ctx context.Context, tenantID, productID uint) (*ListVariantsResult, error) {
	p, err := h.repo.FindProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	d, err := h.assembler.Detail(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ListVariantsResult{ProductID: p.ID, AttributeLines: d.AttributeLines, Variants: d.Variants}, nil
}
