package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

var tracer = otel.Tracer("stock-command")

type CreateCycleCountCommand struct {
	TenantID      uint
	Name          string
	ScheduledDate *time.Time
	LocationIDs   []uint
	CategoryID    *uint
}

type CycleCountHandler struct {
	repo    domain.Repository
	tx      database.Transactor
	catalog domain.ProductCatalog
	locator *Locator
	mover   *Mover
}

func NewCycleCountHandler(repo domain.Repository, tx database.Transactor, catalog domain.ProductCatalog, locator *Locator, mover *Mover) *CycleCountHandler {
	return &CycleCountHandler{repo: repo, tx: tx, catalog: catalog, locator: locator, mover: mover}
}

func (h *CycleCountHandler) Create(ctx context.Context, cmd CreateCycleCountCommand) (*domain.CycleCount, error) {
	if len(cmd.LocationIDs) == 0 {
		return nil, apperr.Validationf("location_ids", "at least one location is required")
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = "Cycle count " + time.Now().Format("2006-01-02")
	}
	c := &domain.CycleCount{
		TenantID:      cmd.TenantID,
		Name:          name,
		State:         domain.CountDraft,
		ScheduledDate: cmd.ScheduledDate,
		CategoryID:    cmd.CategoryID,
	}
	for _, id := range cmd.LocationIDs {
		loc, err := h.repo.FindLocation(ctx, cmd.TenantID, id)
		if err != nil {
			return nil, err
		}
		if !loc.IsInternal() {
			return nil, apperr.Validationf("location_ids", "location %s is not internal", loc.CompleteName)
		}
		c.Locations = append(c.Locations, *loc)
	}
	if err := h.repo.CreateCount(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create cycle count: %w", err)
	}
	return c, nil
}

func (h *CycleCountHandler) Schedule(ctx context.Context, tenantID, id uint, date *time.Time) (*domain.CycleCount, error) {
	c, err := h.repo.FindCount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Schedule(); err != nil {
		return nil, err
	}
	if date != nil {
		c.ScheduledDate = date
	}
	if err := h.repo.SaveCount(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to schedule cycle count: %w", err)
	}
	return c, nil
}

// Start moves the count to in_progress, generating lines when it has none.
func (h *CycleCountHandler) Start(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	c, err := h.repo.FindCount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, err
	}
	if len(c.Lines) == 0 {
		return h.generate(ctx, c)
	}
	if err := h.repo.SaveCount(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to start cycle count: %w", err)
	}
	return c, nil
}

// GenerateLines snapshots theoretical quantities for every in-scope quant
// at the counted locations or below them, one line per variant, location
// and lot. Existing lines are replaced.
func (h *CycleCountHandler) GenerateLines(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	c, err := h.repo.FindCount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !c.CanGenerate() {
		return nil, apperr.Newf(apperr.InvalidState, "cannot generate lines for a %s cycle count", c.State)
	}
	if c.State != domain.CountInProgress {
		if err := c.Start(); err != nil {
			return nil, err
		}
	}
	return h.generate(ctx, c)
}

func (h *CycleCountHandler) generate(ctx context.Context, c *domain.CycleCount) (*domain.CycleCount, error) {
	locations, err := h.repo.ListLocations(ctx, c.TenantID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	tree := domain.NewLocationTree(locations)
	var scope []uint
	for _, root := range c.LocationIDs() {
		for _, id := range tree.Subtree(root) {
			if tree[id].Usage == domain.UsageInternal {
				scope = append(scope, id)
			}
		}
	}
	variants, err := h.catalog.StockableVariants(ctx, c.TenantID, c.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	info := make(map[uint]domain.VariantInfo, len(variants))
	ids := make([]uint, 0, len(variants))
	for _, v := range variants {
		info[v.VariantID] = v
		ids = append(ids, v.VariantID)
	}

	var lines []domain.CycleCountLine
	if len(ids) > 0 && len(scope) > 0 {
		quants, err := h.repo.ListQuants(ctx, domain.QuantFilter{TenantID: c.TenantID, VariantIDs: ids, LocationIDs: scope})
		if err != nil {
			return nil, fmt.Errorf("failed to list quants: %w", err)
		}
		type key struct{ variant, location, lot uint }
		theoretical := make(map[key]float64)
		for _, q := range quants {
			k := key{variant: q.VariantID, location: q.LocationID}
			if q.LotID != nil {
				k.lot = *q.LotID
			}
			theoretical[k] += q.Quantity
		}
		for k, qty := range theoretical {
			line := domain.CycleCountLine{
				VariantID:      k.variant,
				LocationID:     k.location,
				TheoreticalQty: qty,
				StandardPrice:  info[k.variant].StandardPrice,
			}
			if k.lot != 0 {
				lot := k.lot
				line.LotID = &lot
			}
			lines = append(lines, line)
		}
		sort.Slice(lines, func(i, j int) bool {
			a, b := lines[i], lines[j]
			if a.LocationID != b.LocationID {
				return a.LocationID < b.LocationID
			}
			if a.VariantID != b.VariantID {
				return a.VariantID < b.VariantID
			}
			return lotKey(a.LotID) < lotKey(b.LotID)
		})
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.repo.SaveCount(ctx, c); err != nil {
			return err
		}
		return h.repo.ReplaceCountLines(ctx, c.ID, lines)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate lines: %w", err)
	}
	c.Lines = lines
	return c, nil
}

func lotKey(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func (h *CycleCountHandler) UpdateLine(ctx context.Context, tenantID, lineID uint, counted float64) (*domain.CycleCountLine, error) {
	if counted < 0 {
		return nil, apperr.Validationf("counted_qty", "counted quantity must not be negative")
	}
	line, err := h.repo.FindCountLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	c, err := h.repo.FindCount(ctx, tenantID, line.CycleCountID)
	if err != nil {
		if apperr.HasCode(err, apperr.NotFound) {
			return nil, apperr.NotFoundf("cycle count line")
		}
		return nil, err
	}
	if !c.LinesEditable() {
		return nil, apperr.Newf(apperr.InvalidState, "lines of a %s cycle count cannot be edited", c.State)
	}
	line.SetCounted(counted)
	if err := h.repo.SaveCountLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update line: %w", err)
	}
	return line, nil
}

// Validate applies every counted line as an inventory adjustment and
// closes the count. Uncounted lines are left as they are.
func (h *CycleCountHandler) Validate(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	ctx, span := tracer.Start(ctx, "stock.ValidateCycleCount")
	defer span.End()
	span.SetAttributes(attribute.Int("cycle_count.id", int(id)))

	c, err := h.repo.FindCount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c.State != domain.CountInProgress {
		return nil, apperr.Newf(apperr.InvalidState, "cycle count is %s; only in_progress counts can be validated", c.State)
	}
	inventory, err := h.locator.Virtual(ctx, tenantID, domain.UsageInventory)
	if err != nil {
		return nil, err
	}

	var written []domain.Quant
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, line := range c.Lines {
			if line.CountedQty == nil {
				continue
			}
			q, err := h.repo.LockQuant(ctx, tenantID, line.VariantID, line.LocationID, line.LotID)
			if err != nil {
				return fmt.Errorf("failed to lock quant: %w", err)
			}
			out, err := adjust(ctx, h.mover, q, inventory.ID, *line.CountedQty, c.Name)
			if err != nil {
				return err
			}
			written = append(written, out...)
		}
		if err := c.Finish(h.mover.now()); err != nil {
			return err
		}
		return h.repo.SaveCount(ctx, c)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("quants.written", len(written)))
	h.mover.Broadcast(ctx, tenantID, written)
	return c, nil
}

func (h *CycleCountHandler) Cancel(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	c, err := h.repo.FindCount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Cancel(); err != nil {
		return nil, err
	}
	if err := h.repo.SaveCount(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to cancel cycle count: %w", err)
	}
	return c, nil
}
