package command

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/logger"
)

var tracer = otel.Tracer("catalog-command")

type RegenerateResult struct {
	ProductID   uint `json:"product_id"`
	Created     int  `json:"created"`
	Reactivated int  `json:"reactivated"`
	Archived    int  `json:"archived"`
	Active      int  `json:"active"`
}

// VariantEngine keeps a product's variants in line with its attribute lines.
type VariantEngine struct {
	repo domain.Repository
}

func NewVariantEngine(repo domain.Repository) *VariantEngine {
	return &VariantEngine{repo: repo}
}

// Regenerate creates missing always-line combinations and archives
// variants whose combination is no longer valid. Products with dynamic
// lines get their variants on demand through Ensure, so only archiving
// applies to them. Running it twice changes nothing the second time.
func (e *VariantEngine) Regenerate(ctx context.Context, p *domain.Product) (*RegenerateResult, error) {
	ctx, span := tracer.Start(ctx, "catalog.regenerate_variants")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", int(p.ID)))

	set, err := domain.LoadLineSet(ctx, e.repo, p)
	if err != nil {
		return nil, err
	}
	existing, err := e.repo.ListVariants(ctx, []uint{p.ID}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	byKey := make(map[string]domain.Variant, len(existing))
	for _, v := range existing {
		byKey[v.Combination] = v
	}

	res := &RegenerateResult{ProductID: p.ID}
	required := make(map[string]bool)
	var order []string
	if !set.HasDynamic() {
		for _, combo := range set.Combinations() {
			key := domain.CombinationKey(combo)
			if !required[key] {
				required[key] = true
				order = append(order, key)
			}
		}
	}

	for _, key := range order {
		v, ok := byKey[key]
		switch {
		case !ok:
			nv := &domain.Variant{TenantID: p.TenantID, ProductID: p.ID, Combination: key, Active: true}
			if err := e.repo.CreateVariant(ctx, nv); err != nil {
				return nil, fmt.Errorf("failed to create variant: %w", err)
			}
			byKey[key] = *nv
			res.Created++
		case !v.Active:
			v.Active = true
			if err := e.repo.UpdateVariant(ctx, &v); err != nil {
				return nil, fmt.Errorf("failed to reactivate variant: %w", err)
			}
			byKey[key] = v
			res.Reactivated++
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return byKey[keys[i]].ID < byKey[keys[j]].ID })
	for _, key := range keys {
		v := byKey[key]
		if !v.Active {
			continue
		}
		if required[key] || (set.HasDynamic() && set.Valid(v.PTAVIDs())) {
			res.Active++
			continue
		}
		v.Active = false
		if err := e.repo.UpdateVariant(ctx, &v); err != nil {
			return nil, fmt.Errorf("failed to archive variant: %w", err)
		}
		res.Archived++
	}

	if res.Created+res.Reactivated+res.Archived > 0 {
		logger.Debug(ctx).Uint("product_id", p.ID).Int("created", res.Created).
			Int("reactivated", res.Reactivated).Int("archived", res.Archived).Msg("Variants regenerated")
	}
	return res, nil
}

// Ensure returns the variant for a full PTAV combination, creating or
// reactivating it. It is how dynamic variants come into existence.
func (e *VariantEngine) Ensure(ctx context.Context, p *domain.Product, ptavIDs []uint) (*domain.Variant, error) {
	set, err := domain.LoadLineSet(ctx, e.repo, p)
	if err != nil {
		return nil, err
	}
	if !set.Valid(ptavIDs) {
		return nil, apperr.New(apperr.InvalidValue, "the attribute combination is not available for this product")
	}
	key := domain.CombinationKey(ptavIDs)
	existing, err := e.repo.ListVariants(ctx, []uint{p.ID}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	for _, v := range existing {
		if v.Combination != key {
			continue
		}
		if !v.Active {
			v.Active = true
			if err := e.repo.UpdateVariant(ctx, &v); err != nil {
				return nil, fmt.Errorf("failed to reactivate variant: %w", err)
			}
		}
		return &v, nil
	}
	v := &domain.Variant{TenantID: p.TenantID, ProductID: p.ID, Combination: key, Active: true}
	if err := e.repo.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}
	return v, nil
}

// RegenerateHandler is the admin entry point of the engine.
type RegenerateHandler struct {
	repo   domain.Repository
	tx     database.Transactor
	engine *VariantEngine
}

func NewRegenerateHandler(repo domain.Repository, tx database.Transactor, engine *VariantEngine) *RegenerateHandler {
	return &RegenerateHandler{repo: repo, tx: tx, engine: engine}
}

func (h *RegenerateHandler) Handle(ctx context.Context, tenantID, productID uint) (*RegenerateResult, error) {
	p, err := h.repo.FindProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	var res *RegenerateResult
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		res, err = h.engine.Regenerate(ctx, p)
		return err
	})
	return res, err
}

type UpdateVariantCommand struct {
	TenantID      uint
	ID            uint
	ListPrice     *float64
	StandardPrice *float64
	DefaultCode   *string
	Barcode       *string
}

// UpdateVariantHandler edits the per-variant overrides and nothing else.
type UpdateVariantHandler struct {
	repo domain.VariantRepository
}

func NewUpdateVariantHandler(repo domain.VariantRepository) *UpdateVariantHandler {
	return &UpdateVariantHandler{repo: repo}
}

func (h *UpdateVariantHandler) Handle(ctx context.Context, cmd UpdateVariantCommand) (*domain.Variant, error) {
	if cmd.ListPrice != nil && *cmd.ListPrice < 0 {
		return nil, apperr.Validationf("list_price", "list_price must not be negative")
	}
	if cmd.StandardPrice != nil && *cmd.StandardPrice < 0 {
		return nil, apperr.Validationf("standard_price", "standard_price must not be negative")
	}
	v, err := h.repo.FindVariant(ctx, cmd.TenantID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.ListPrice != nil {
		v.ListPrice = cmd.ListPrice
	}
	if cmd.StandardPrice != nil {
		v.StandardPrice = cmd.StandardPrice
	}
	if cmd.DefaultCode != nil {
		v.DefaultCode = cmd.DefaultCode
	}
	if cmd.Barcode != nil {
		v.Barcode = cmd.Barcode
	}
	if err := h.repo.UpdateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update variant: %w", err)
	}
	return v, nil
}

type UpdateVariantStockCommand struct {
	TenantID   uint
	VariantID  uint
	Quantity   float64
	LocationID *uint
}

type VariantStockResult struct {
	VariantID  uint    `json:"variant_id"`
	LocationID *uint   `json:"location_id"`
	Quantity   float64 `json:"quantity"`
	OnHand     float64 `json:"on_hand"`
}

type UpdateVariantStockHandler struct {
	repo  domain.Repository
	stock domain.Stock
}

func NewUpdateVariantStockHandler(repo domain.Repository, stock domain.Stock) *UpdateVariantStockHandler {
	return &UpdateVariantStockHandler{repo: repo, stock: stock}
}

// Handle sets the quant to the target quantity and reads the new on-hand
// back in the same request.
func (h *UpdateVariantStockHandler) Handle(ctx context.Context, cmd UpdateVariantStockCommand) (*VariantStockResult, error) {
	if cmd.Quantity < 0 {
		return nil, apperr.Validationf("quantity", "quantity must not be negative")
	}
	v, err := h.repo.FindVariant(ctx, cmd.TenantID, cmd.VariantID)
	if err != nil {
		return nil, err
	}
	p, err := h.repo.FindProduct(ctx, cmd.TenantID, v.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsStockable() {
		return nil, apperr.New(apperr.InvalidValue, "only stockable products track quantities")
	}
	if err := h.stock.SetVariantQuantity(ctx, cmd.TenantID, v.ID, cmd.LocationID, cmd.Quantity); err != nil {
		return nil, err
	}
	onHand, err := h.stock.OnHand(ctx, cmd.TenantID, []uint{v.ID})
	if err != nil {
		return nil, err
	}
	return &VariantStockResult{
		VariantID:  v.ID,
		LocationID: cmd.LocationID,
		Quantity:   cmd.Quantity,
		OnHand:     onHand[v.ID],
	}, nil
}
