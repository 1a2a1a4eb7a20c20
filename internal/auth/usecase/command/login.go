package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/session"
)

// LoginCommand represents the command to open a session.
type LoginCommand struct {
	Login    string
	Password string
	// TenantID is the storefront the login happens on.
	TenantID uint
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string       `json:"session_id"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// LoginHandler handles the login command
type LoginHandler struct {
	repo     domain.UserRepository
	hasher   *session.Hasher
	sessions *session.Manager
	now      func() time.Time
}

func NewLoginHandler(repo domain.UserRepository, hasher *session.Hasher, sessions *session.Manager) *LoginHandler {
	return &LoginHandler{repo: repo, hasher: hasher, sessions: sessions, now: time.Now}
}

var errBadCredentials = apperr.New(apperr.AuthRequired, "invalid login or password")

func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	login := strings.TrimSpace(cmd.Login)
	if login == "" {
		return nil, apperr.Validationf("login", "login is required")
	}
	if cmd.Password == "" {
		return nil, apperr.Validationf("password", "password is required")
	}

	user, err := h.repo.FindByLogin(ctx, login)
	if apperr.HasCode(err, apperr.NotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active || !user.CanAccessTenant(cmd.TenantID) {
		return nil, errBadCredentials
	}
	if !h.hasher.Check(user.PasswordHash, cmd.Password) {
		return nil, errBadCredentials
	}

	if user.TokenVersion == "" {
		user.TokenVersion = uuid.NewString()
	}
	now := h.now()
	user.LastLoginAt = &now
	if err := h.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	token, exp, err := h.sessions.Issue(user.ID, cmd.TenantID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}
