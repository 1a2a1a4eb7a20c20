package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/session"
)

// CreateUserCommand represents the command to create a user account
type CreateUserCommand struct {
	TenantID *uint
	Login    string
	Email    string
	Name     string
	// Password may be empty; a temporary one is generated and must be
	// changed at first login.
	Password string
	Groups   []domain.GroupCode
	// LinkPartner attaches (or adopts) the tenant customer with the same email.
	LinkPartner bool
}

// CreateUserResult carries the new user; TempPassword is set only when generated.
type CreateUserResult struct {
	User         *domain.User `json:"user"`
	TempPassword string       `json:"temp_password,omitempty"`
}

type CreateUserHandler struct {
	repo     domain.UserRepository
	tx       database.Transactor
	hasher   *session.Hasher
	partners domain.PartnerLinker
}

// NewCreateUserHandler creates a new create user handler. partners may be nil.
func NewCreateUserHandler(repo domain.UserRepository, tx database.Transactor, hasher *session.Hasher, partners domain.PartnerLinker) *CreateUserHandler {
	return &CreateUserHandler{repo: repo, tx: tx, hasher: hasher, partners: partners}
}

func (h *CreateUserHandler) Handle(ctx context.Context, cmd CreateUserCommand) (*CreateUserResult, error) {
	cmd.Login = strings.TrimSpace(cmd.Login)
	cmd.Email = strings.TrimSpace(strings.ToLower(cmd.Email))
	if cmd.Login == "" {
		cmd.Login = cmd.Email
	}
	if cmd.Login == "" {
		return nil, apperr.Validationf("login", "login or email is required")
	}
	if cmd.Email != "" && !strings.Contains(cmd.Email, "@") {
		return nil, apperr.Validationf("email", "invalid email")
	}
	for _, g := range cmd.Groups {
		if !domain.ValidGroup(g) {
			return nil, apperr.Validationf("groups", "unknown group %q", g)
		}
	}

	result := &CreateUserResult{}
	password := cmd.Password
	if password == "" {
		tmp, err := session.RandomToken(12)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
		password = tmp
		result.TempPassword = tmp
	} else if len(password) < session.MinPasswordLength {
		return nil, apperr.Validationf("password", "password must be at least %d characters", session.MinPasswordLength)
	}
	hash, err := h.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		TenantID:           cmd.TenantID,
		Login:              cmd.Login,
		Email:              cmd.Email,
		Name:               strings.TrimSpace(cmd.Name),
		PasswordHash:       hash,
		Active:             true,
		TokenVersion:       uuid.NewString(),
		MustChangePassword: result.TempPassword != "",
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if cmd.LinkPartner && h.partners != nil && cmd.TenantID != nil && cmd.Email != "" {
			pid, err := h.partners.LinkPartner(ctx, *cmd.TenantID, cmd.Email, user.Name)
			if err != nil {
				return fmt.Errorf("failed to link customer: %w", err)
			}
			user.PartnerID = &pid
		}
		if err := h.repo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if len(cmd.Groups) > 0 {
			if err := h.repo.SetGroups(ctx, user.ID, cmd.Groups); err != nil {
				return fmt.Errorf("failed to assign groups: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stored, err := h.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	result.User = stored
	return result, nil
}
