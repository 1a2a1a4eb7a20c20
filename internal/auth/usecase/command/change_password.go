package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/session"
)

// ChangePasswordCommand represents the command to change the caller's password
type ChangePasswordCommand struct {
	UserID      uint
	TenantID    uint
	OldPassword string
	NewPassword string
}

// ChangePasswordHandler verifies the old password, stores the new hash and
// clears MustChangePassword. Other sessions are ended; the caller gets a
// fresh token.
type ChangePasswordHandler struct {
	repo     domain.UserRepository
	hasher   *session.Hasher
	sessions *session.Manager
}

func NewChangePasswordHandler(repo domain.UserRepository, hasher *session.Hasher, sessions *session.Manager) *ChangePasswordHandler {
	return &ChangePasswordHandler{repo: repo, hasher: hasher, sessions: sessions}
}

func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePasswordCommand) (*LoginResult, error) {
	if len(cmd.NewPassword) < session.MinPasswordLength {
		return nil, apperr.Validationf("new_password", "password must be at least %d characters", session.MinPasswordLength)
	}
	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !h.hasher.Check(user.PasswordHash, cmd.OldPassword) {
		return nil, apperr.Validationf("old_password", "current password is incorrect")
	}

	hash, err := h.hasher.Hash(cmd.NewPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	user.TokenVersion = uuid.NewString()
	if err := h.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	token, exp, err := h.sessions.Issue(user.ID, cmd.TenantID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}
