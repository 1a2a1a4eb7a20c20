package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type SetAttributeLineCommand struct {
	TenantID    uint
	ProductID   uint
	AttributeID uint
	ValueIDs    []uint
	Sequence    *int
}

type AttributeLineResult struct {
	Line       *domain.AttributeLine `json:"line,omitempty"`
	Regenerate *RegenerateResult     `json:"variants"`
}

// AttributeLineHandler edits a product's attribute lines. Every change
// regenerates the variants in the same transaction.
type AttributeLineHandler struct {
	repo   domain.Repository
	tx     database.Transactor
	engine *VariantEngine
}

func NewAttributeLineHandler(repo domain.Repository, tx database.Transactor, engine *VariantEngine) *AttributeLineHandler {
	return &AttributeLineHandler{repo: repo, tx: tx, engine: engine}
}

// Set creates the line for (product, attribute) or replaces its values.
func (h *AttributeLineHandler) Set(ctx context.Context, cmd SetAttributeLineCommand) (*AttributeLineResult, error) {
	if len(cmd.ValueIDs) == 0 {
		return nil, apperr.Validationf("value_ids", "an attribute line needs at least one value")
	}
	p, err := h.repo.FindProduct(ctx, cmd.TenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	attr, err := h.repo.FindAttribute(ctx, cmd.TenantID, cmd.AttributeID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uint]bool, len(attr.Values))
	for _, v := range attr.Values {
		allowed[v.ID] = true
	}
	wanted := make(map[uint]bool, len(cmd.ValueIDs))
	for _, id := range cmd.ValueIDs {
		if !allowed[id] {
			return nil, apperr.Validationf("value_ids", "value %d does not belong to attribute %s", id, attr.Name)
		}
		wanted[id] = true
	}

	res := &AttributeLineResult{}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		line, err := h.findLine(ctx, p.ID, attr.ID)
		if err != nil {
			return err
		}
		if line == nil {
			line = &domain.AttributeLine{ProductID: p.ID, AttributeID: attr.ID, Sequence: attr.Sequence}
		}
		if cmd.Sequence != nil {
			line.Sequence = *cmd.Sequence
		}
		if err := h.repo.SaveLine(ctx, line); err != nil {
			return err
		}
		res.Line = line

		ptavs, err := h.repo.ListPTAVs(ctx, p.ID)
		if err != nil {
			return err
		}
		present := make(map[uint]bool)
		for i := range ptavs {
			ptav := ptavs[i]
			if ptav.AttributeID != attr.ID {
				continue
			}
			present[ptav.ValueID] = true
			active := wanted[ptav.ValueID]
			if ptav.Active == active && ptav.LineID == line.ID {
				continue
			}
			ptav.Active = active
			ptav.LineID = line.ID
			if err := h.repo.SavePTAV(ctx, &ptav); err != nil {
				return err
			}
		}
		for _, id := range cmd.ValueIDs {
			if present[id] {
				continue
			}
			present[id] = true
			ptav := &domain.PTAV{ProductID: p.ID, LineID: line.ID, AttributeID: attr.ID, ValueID: id, Active: true}
			if err := h.repo.SavePTAV(ctx, ptav); err != nil {
				return err
			}
		}

		res.Regenerate, err = h.engine.Regenerate(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set attribute line: %w", err)
	}
	return res, nil
}

// Remove drops a line and archives its values so their images survive.
func (h *AttributeLineHandler) Remove(ctx context.Context, tenantID, lineID uint) (*AttributeLineResult, error) {
	line, err := h.repo.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	p, err := h.repo.FindProduct(ctx, tenantID, line.ProductID)
	if err != nil {
		return nil, apperr.NotFoundf("attribute line")
	}

	res := &AttributeLineResult{}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		ptavs, err := h.repo.ListPTAVs(ctx, p.ID)
		if err != nil {
			return err
		}
		for i := range ptavs {
			ptav := ptavs[i]
			if ptav.LineID != line.ID || !ptav.Active {
				continue
			}
			ptav.Active = false
			if err := h.repo.SavePTAV(ctx, &ptav); err != nil {
				return err
			}
		}
		if err := h.repo.DeleteLine(ctx, line.ID); err != nil {
			return err
		}
		res.Regenerate, err = h.engine.Regenerate(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove attribute line: %w", err)
	}
	return res, nil
}

func (h *AttributeLineHandler) findLine(ctx context.Context, productID, attributeID uint) (*domain.AttributeLine, error) {
	lines, err := h.repo.ListLines(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].AttributeID == attributeID {
			return &lines[i], nil
		}
	}
	return nil, nil
}
