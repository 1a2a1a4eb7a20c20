package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tair/tenant-commerce/internal/auth/domain"
)

// LogoutHandler ends every session of a user by rotating the token version.
type LogoutHandler struct {
	repo domain.UserRepository
}

func NewLogoutHandler(repo domain.UserRepository) *LogoutHandler {
	return &LogoutHandler{repo: repo}
}

func (h *LogoutHandler) Handle(ctx context.Context, userID uint) error {
	if err := h.repo.UpdateTokenVersion(ctx, userID, uuid.NewString()); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}
