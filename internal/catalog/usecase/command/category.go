package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type CreateCategoryCommand struct {
	TenantID uint
	Name     string
	ParentID *uint
	Sequence int
}

type UpdateCategoryCommand struct {
	TenantID uint
	ID       uint
	Name     *string
	Sequence *int
}

// CategoryHandler maintains the category tree. Complete names are
// rewritten for the whole subtree on rename and move.
type CategoryHandler struct {
	repo domain.CategoryRepository
	tx   database.Transactor
}

func NewCategoryHandler(repo domain.CategoryRepository, tx database.Transactor) *CategoryHandler {
	return &CategoryHandler{repo: repo, tx: tx}
}

func (h *CategoryHandler) Create(ctx context.Context, cmd CreateCategoryCommand) (*domain.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	tree, err := h.tree(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	if cmd.ParentID != nil {
		if _, ok := tree[*cmd.ParentID]; !ok {
			return nil, apperr.Validationf("parent_id", "category %d does not exist", *cmd.ParentID)
		}
	}
	c := &domain.Category{TenantID: cmd.TenantID, Name: name, ParentID: cmd.ParentID, Sequence: cmd.Sequence, Active: true}
	c.CompleteName = tree.CompleteName(*c)
	if err := h.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (h *CategoryHandler) Update(ctx context.Context, cmd UpdateCategoryCommand) (*domain.Category, error) {
	c, err := h.repo.FindCategory(ctx, cmd.TenantID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, apperr.Validationf("name", "name must not be empty")
		}
		c.Name = name
	}
	if cmd.Sequence != nil {
		c.Sequence = *cmd.Sequence
	}
	return h.saveSubtree(ctx, c)
}

// Move reparents a category; a nil parent makes it a root. The new parent
// must not be the category itself or one of its descendants.
func (h *CategoryHandler) Move(ctx context.Context, tenantID, id uint, parentID *uint) (*domain.Category, error) {
	c, err := h.repo.FindCategory(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		tree, err := h.tree(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if _, ok := tree[*parentID]; !ok {
			return nil, apperr.Validationf("parent_id", "category %d does not exist", *parentID)
		}
		if tree.IsDescendant(*parentID, c.ID) {
			return nil, apperr.New(apperr.CircularLoop, "a category cannot move under itself or its descendants")
		}
	}
	c.ParentID = parentID
	return h.saveSubtree(ctx, c)
}

func (h *CategoryHandler) Archive(ctx context.Context, tenantID, id uint) (*domain.Category, error) {
	c, err := h.repo.FindCategory(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	c.Active = false
	if err := h.repo.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to archive category: %w", err)
	}
	return c, nil
}

func (h *CategoryHandler) saveSubtree(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		tree, err := h.tree(ctx, c.TenantID)
		if err != nil {
			return err
		}
		tree[c.ID] = *c
		for _, id := range tree.Descendants(c.ID) {
			node := tree[id]
			name := tree.CompleteName(node)
			if id != c.ID && name == node.CompleteName {
				continue
			}
			node.CompleteName = name
			if err := h.repo.UpdateCategory(ctx, &node); err != nil {
				return err
			}
			tree[id] = node
		}
		*c = tree[c.ID]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return c, nil
}

func (h *CategoryHandler) tree(ctx context.Context, tenantID uint) (domain.CategoryTree, error) {
	all, err := h.repo.ListCategories(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return domain.NewCategoryTree(all), nil
}
