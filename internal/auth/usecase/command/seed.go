package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/logger"
)

// SeedHandler creates the default groups and the platform administrator.
type SeedHandler struct {
	repo   domain.UserRepository
	create *CreateUserHandler
}

func NewSeedHandler(repo domain.UserRepository, create *CreateUserHandler) *SeedHandler {
	return &SeedHandler{repo: repo, create: create}
}

// Handle is safe to run on every start.
func (h *SeedHandler) Handle(ctx context.Context, adminLogin, adminPassword string) error {
	if err := h.repo.EnsureGroups(ctx, domain.DefaultGroups); err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}
	if adminLogin == "" {
		return nil
	}
	_, err := h.repo.FindByLogin(ctx, adminLogin)
	if err == nil {
		return nil
	}
	if !apperr.HasCode(err, apperr.NotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	res, err := h.create.Handle(ctx, CreateUserCommand{
		Login:    adminLogin,
		Name:     "Administrator",
		Password: adminPassword,
		Groups:   []domain.GroupCode{domain.GroupSystem},
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	ev := logger.Info(ctx).Str("login", adminLogin)
	if res.TempPassword != "" {
		ev = ev.Str("temp_password", res.TempPassword)
	}
	ev.Msg("seeded platform administrator")
	return nil
}
