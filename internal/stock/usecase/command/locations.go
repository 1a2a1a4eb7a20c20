package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type CreateLocationCommand struct {
	TenantID uint
	Name     string
	ParentID *uint
	Usage    domain.Usage
	Barcode  string
}

type UpdateLocationCommand struct {
	TenantID uint
	ID       uint
	Name     *string
	Barcode  *string
	Usage    *domain.Usage
}

type LockLocationCommand struct {
	TenantID uint
	ID       uint
	Reason   string
	By       string
}

type LocationHandler struct {
	repo domain.Repository
	tx   database.Transactor
}

func NewLocationHandler(repo domain.Repository, tx database.Transactor) *LocationHandler {
	return &LocationHandler{repo: repo, tx: tx}
}

func (h *LocationHandler) tree(ctx context.Context, tenantID uint) (domain.LocationTree, error) {
	locations, err := h.repo.ListLocations(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return domain.NewLocationTree(locations), nil
}

func (h *LocationHandler) Create(ctx context.Context, cmd CreateLocationCommand) (*domain.Location, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	if strings.Contains(name, "/") {
		return nil, apperr.Validationf("name", "name must not contain '/'")
	}
	if cmd.Usage == "" {
		cmd.Usage = domain.UsageInternal
	}
	if !domain.ValidUsage(cmd.Usage) {
		return nil, apperr.Validationf("usage", "unknown usage %q", cmd.Usage)
	}
	loc := &domain.Location{
		TenantID: cmd.TenantID,
		Name:     name,
		ParentID: cmd.ParentID,
		Usage:    cmd.Usage,
		Barcode:  cmd.Barcode,
		Active:   true,
	}
	tree, err := h.tree(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	if cmd.ParentID != nil {
		parent, ok := tree[*cmd.ParentID]
		if !ok {
			return nil, apperr.NotFoundf("parent location")
		}
		loc.WarehouseID = parent.WarehouseID
	}
	loc.CompleteName = tree.CompleteName(*loc)
	if err := h.repo.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return loc, nil
}

func (h *LocationHandler) Update(ctx context.Context, cmd UpdateLocationCommand) (*domain.Location, error) {
	var out *domain.Location
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		tree, err := h.tree(ctx, cmd.TenantID)
		if err != nil {
			return err
		}
		loc, ok := tree[cmd.ID]
		if !ok {
			return apperr.NotFoundf("location")
		}
		if cmd.Name != nil {
			name := strings.TrimSpace(*cmd.Name)
			if name == "" || strings.Contains(name, "/") {
				return apperr.Validationf("name", "name must be non-empty and must not contain '/'")
			}
			loc.Name = name
		}
		if cmd.Barcode != nil {
			loc.Barcode = *cmd.Barcode
		}
		if cmd.Usage != nil {
			if !domain.ValidUsage(*cmd.Usage) {
				return apperr.Validationf("usage", "unknown usage %q", *cmd.Usage)
			}
			loc.Usage = *cmd.Usage
		}
		tree[loc.ID] = loc
		if err := h.rename(ctx, tree, loc.ID); err != nil {
			return err
		}
		l := tree[loc.ID]
		out = &l
		return nil
	})
	return out, err
}

// Move reparents a location. A nil parent makes it a root.
func (h *LocationHandler) Move(ctx context.Context, tenantID, id uint, parentID *uint) (*domain.Location, error) {
	var out *domain.Location
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		tree, err := h.tree(ctx, tenantID)
		if err != nil {
			return err
		}
		loc, ok := tree[id]
		if !ok {
			return apperr.NotFoundf("location")
		}
		if parentID != nil {
			if _, ok := tree[*parentID]; !ok {
				return apperr.NotFoundf("parent location")
			}
			if tree.IsDescendant(*parentID, id) {
				return apperr.New(apperr.CircularLoop, "a location cannot be moved below itself")
			}
		}
		loc.ParentID = parentID
		tree[id] = loc
		if err := h.rename(ctx, tree, id); err != nil {
			return err
		}
		l := tree[id]
		out = &l
		return nil
	})
	return out, err
}

// rename recomputes complete names below id and persists every change.
func (h *LocationHandler) rename(ctx context.Context, tree domain.LocationTree, id uint) error {
	for _, lid := range tree.Subtree(id) {
		l := tree[lid]
		name := tree.CompleteName(l)
		if lid != id && name == l.CompleteName {
			continue
		}
		l.CompleteName = name
		if err := h.repo.UpdateLocation(ctx, &l); err != nil {
			return fmt.Errorf("failed to update location %d: %w", lid, err)
		}
		tree[lid] = l
	}
	return nil
}

// Archive deactivates a location that holds no stock and no open pickings.
func (h *LocationHandler) Archive(ctx context.Context, tenantID, id uint) (*domain.Location, error) {
	loc, err := h.repo.FindLocation(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	quants, err := h.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenantID, LocationIDs: []uint{id}})
	if err != nil {
		return nil, fmt.Errorf("failed to list quants: %w", err)
	}
	for _, q := range quants {
		if q.Quantity != 0 {
			return nil, apperr.Newf(apperr.HasStock, "location %s still holds stock", loc.CompleteName)
		}
	}
	n, err := h.repo.CountActivePickings(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count pickings: %w", err)
	}
	if n > 0 {
		return nil, apperr.Newf(apperr.HasActivePickings, "location %s has %d open pickings", loc.CompleteName, n)
	}
	loc.Active = false
	if err := h.repo.UpdateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to archive location: %w", err)
	}
	return loc, nil
}

func (h *LocationHandler) Lock(ctx context.Context, cmd LockLocationCommand) (*domain.Location, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, apperr.Validationf("reason", "lock reason is required")
	}
	loc, err := h.repo.FindLocation(ctx, cmd.TenantID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if loc.IsLocked {
		return nil, apperr.Newf(apperr.InvalidState, "location %s is already locked", loc.CompleteName)
	}
	now := time.Now()
	loc.IsLocked, loc.LockReason, loc.LockedBy, loc.LockedDate = true, cmd.Reason, cmd.By, &now
	if err := h.repo.UpdateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to lock location: %w", err)
	}
	return loc, nil
}

func (h *LocationHandler) Unlock(ctx context.Context, tenantID, id uint) (*domain.Location, error) {
	loc, err := h.repo.FindLocation(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	loc.IsLocked, loc.LockReason, loc.LockedBy, loc.LockedDate = false, "", "", nil
	if err := h.repo.UpdateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to unlock location: %w", err)
	}
	return loc, nil
}
