package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/internal/auth/repository"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/session"
)

type fakeLinker struct {
	calls int
}

func (f *fakeLinker) LinkPartner(_ context.Context, _ uint, _, _ string) (uint, error) {
	f.calls++
	return 42, nil
}

func setup(t *testing.T) (*repository.MemoryUserRepository, *session.Hasher, *session.Manager, *CreateUserHandler) {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	if err := repo.EnsureGroups(context.Background(), domain.DefaultGroups); err != nil {
		t.Fatalf("EnsureGroups: %v", err)
	}
	hasher := session.NewHasher(4)
	sessions := session.NewManager("test-secret", time.Hour)
	return repo, hasher, sessions, NewCreateUserHandler(repo, database.NoopTransactor{}, hasher, nil)
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	repo, hasher, sessions, create := setup(t)
	if _, err := create.Handle(ctx, CreateUserCommand{Login: "alice", Password: "correct-horse"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	login := NewLoginHandler(repo, hasher, sessions)
	if _, err := login.Handle(ctx, LoginCommand{Login: "alice", Password: "wrong-pass"}); !apperr.HasCode(err, apperr.AuthRequired) {
		t.Fatalf("wrong password err = %v, want AUTH_REQUIRED", err)
	}
	res, err := login.Handle(ctx, LoginCommand{Login: "ALICE", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.LastLoginAt == nil {
		t.Error("LastLoginAt not stamped")
	}

	claims, err := sessions.Parse(res.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	before, _ := repo.FindByID(ctx, claims.UserID)
	if before.TokenVersion != claims.TokenVersion {
		t.Fatalf("token version = %q, want %q", claims.TokenVersion, before.TokenVersion)
	}

	if err := NewLogoutHandler(repo).Handle(ctx, claims.UserID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	after, _ := repo.FindByID(ctx, claims.UserID)
	if after.TokenVersion == claims.TokenVersion {
		t.Error("logout did not rotate token version")
	}
}

func TestLoginRejectsOtherTenant(t *testing.T) {
	ctx := context.Background()
	repo, hasher, sessions, create := setup(t)
	tenant := uint(1)
	if _, err := create.Handle(ctx, CreateUserCommand{TenantID: &tenant, Login: "bob", Password: "password-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	login := NewLoginHandler(repo, hasher, sessions)
	if _, err := login.Handle(ctx, LoginCommand{Login: "bob", Password: "password-1", TenantID: 2}); !apperr.HasCode(err, apperr.AuthRequired) {
		t.Errorf("err = %v, want AUTH_REQUIRED", err)
	}
	if _, err := login.Handle(ctx, LoginCommand{Login: "bob", Password: "password-1", TenantID: 1}); err != nil {
		t.Errorf("login on own tenant: %v", err)
	}
}

func TestProvisionTenantAdmin(t *testing.T) {
	ctx := context.Background()
	repo, hasher, sessions, create := setup(t)
	login, temp, err := NewTenantAdminProvisioner(create).ProvisionTenantAdmin(ctx, 3, "Owner@Acme.com", "Owner")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if temp == "" {
		t.Fatal("expected a temporary password")
	}

	res, err := NewLoginHandler(repo, hasher, sessions).Handle(ctx, LoginCommand{Login: login, Password: temp, TenantID: 3})
	if err != nil {
		t.Fatalf("login with temp password: %v", err)
	}
	if !res.User.MustChangePassword {
		t.Error("MustChangePassword = false, want true")
	}
	if !res.User.IsAdmin() {
		t.Error("tenant admin lacks the system group")
	}

	changed, err := NewChangePasswordHandler(repo, hasher, sessions).Handle(ctx, ChangePasswordCommand{
		UserID: res.User.ID, TenantID: 3, OldPassword: temp, NewPassword: "a-new-password",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if changed.User.MustChangePassword {
		t.Error("MustChangePassword still set after change")
	}
}

func TestCreateUserLinksPartner(t *testing.T) {
	ctx := context.Background()
	repo, hasher, _, _ := setup(t)
	linker := &fakeLinker{}
	create := NewCreateUserHandler(repo, database.NoopTransactor{}, hasher, linker)
	tenant := uint(1)

	res, err := create.Handle(ctx, CreateUserCommand{
		TenantID: &tenant, Email: "x@y.z", Password: "password-1", LinkPartner: true,
		Groups: []domain.GroupCode{domain.GroupStockUser},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.User.PartnerID == nil || *res.User.PartnerID != 42 {
		t.Errorf("PartnerID = %v, want 42", res.User.PartnerID)
	}
	if !res.User.HasAnyGroup(domain.GroupStockUser) {
		t.Errorf("groups = %v, want stock_user", res.User.GroupCodes())
	}
	if res.User.Login != "x@y.z" {
		t.Errorf("login = %q, want email fallback", res.User.Login)
	}

	if _, err := create.Handle(ctx, CreateUserCommand{Login: "x@y.z", Password: "password-1"}); !apperr.HasCode(err, apperr.Conflict) {
		t.Errorf("duplicate login err = %v, want CONFLICT", err)
	}
	if _, err := create.Handle(ctx, CreateUserCommand{Login: "z", Groups: []domain.GroupCode{"root"}}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("unknown group err = %v, want VALIDATION", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _, _, create := setup(t)
	seed := NewSeedHandler(repo, create)
	for i := 0; i < 2; i++ {
		if err := seed.Handle(ctx, "admin", "admin-password"); err != nil {
			t.Fatalf("seed #%d: %v", i, err)
		}
	}
	_, total, _ := repo.List(ctx, nil, 0, 0)
	if total != 1 {
		t.Errorf("users = %d, want 1", total)
	}
	admin, err := repo.FindByLogin(ctx, "admin")
	if err != nil {
		t.Fatalf("FindByLogin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Error("seeded admin lacks the system group")
	}
}
