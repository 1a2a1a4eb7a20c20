package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// SetGroupsCommand replaces a user's group memberships.
type SetGroupsCommand struct {
	UserID uint
	Groups []domain.GroupCode
	// TenantID restricts the change to users of one tenant; nil means any.
	TenantID *uint
}

type SetGroupsHandler struct {
	repo domain.UserRepository
}

func NewSetGroupsHandler(repo domain.UserRepository) *SetGroupsHandler {
	return &SetGroupsHandler{repo: repo}
}

func (h *SetGroupsHandler) Handle(ctx context.Context, cmd SetGroupsCommand) (*domain.User, error) {
	for _, g := range cmd.Groups {
		if !domain.ValidGroup(g) {
			return nil, apperr.Validationf("groups", "unknown group %q", g)
		}
	}
	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if cmd.TenantID != nil && !user.CanAccessTenant(*cmd.TenantID) {
		return nil, apperr.NotFoundf("user")
	}
	if err := h.repo.SetGroups(ctx, user.ID, cmd.Groups); err != nil {
		return nil, fmt.Errorf("failed to set groups: %w", err)
	}
	return h.repo.FindByID(ctx, user.ID)
}
