package query

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/session"
)

var errSessionExpired = apperr.New(apperr.SessionExpired, "session expired, please log in again")

// ResolveSessionHandler turns a session token into its user.
type ResolveSessionHandler struct {
	repo     domain.UserRepository
	sessions *session.Manager
}

func NewResolveSessionHandler(repo domain.UserRepository, sessions *session.Manager) *ResolveSessionHandler {
	return &ResolveSessionHandler{repo: repo, sessions: sessions}
}

// Resolve fails with SESSION_EXPIRED unless the token is valid, the user is
// active and the token version is current.
func (h *ResolveSessionHandler) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, errSessionExpired
	}
	claims, err := h.sessions.Parse(token)
	if err != nil {
		return nil, errSessionExpired
	}
	user, err := h.repo.FindByID(ctx, claims.UserID)
	if apperr.HasCode(err, apperr.NotFound) {
		return nil, errSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.Active || user.TokenVersion == "" || user.TokenVersion != claims.TokenVersion {
		return nil, errSessionExpired
	}
	return user, nil
}
