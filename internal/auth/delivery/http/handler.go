package http

import (
	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/internal/auth/usecase/command"
	"github.com/tair/tenant-commerce/internal/auth/usecase/query"
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/session"
)

// AuthHandler serves sessions and user administration.
type AuthHandler struct {
	loginHandler     *command.LoginHandler
	logoutHandler    *command.LogoutHandler
	changePassword   *command.ChangePasswordHandler
	createHandler    *command.CreateUserHandler
	setGroupsHandler *command.SetGroupsHandler
	listHandler      *query.ListUsersHandler
	sessions         *session.Manager
}

func NewAuthHandler(repo domain.UserRepository, tx database.Transactor, hasher *session.Hasher,
	sessions *session.Manager, partners domain.PartnerLinker) *AuthHandler {
	return &AuthHandler{
		loginHandler:     command.NewLoginHandler(repo, hasher, sessions),
		logoutHandler:    command.NewLogoutHandler(repo),
		changePassword:   command.NewChangePasswordHandler(repo, hasher, sessions),
		createHandler:    command.NewCreateUserHandler(repo, tx, hasher, partners),
		setGroupsHandler: command.NewSetGroupsHandler(repo),
		listHandler:      query.NewListUsersHandler(repo),
		sessions:         sessions,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gateway.Router) {
	r.Post("/auth/login", gateway.Endpoint{Platform: true, Handle: h.login(r.CookieName())})
	logout := gateway.Endpoint{Access: gateway.Authenticated, Platform: true, Handle: h.logout(r.CookieName())}
	r.Get("/auth/logout", logout)
	r.Post("/auth/logout", logout)
	r.Post("/auth/session", gateway.Endpoint{Access: gateway.Authenticated, Platform: true, Handle: h.sessionInfo})
	r.Post("/auth/change_password", gateway.Endpoint{
		Access: gateway.Authenticated, Platform: true, Action: "auth.change_password",
		Handle: h.changePasswordFor(r.CookieName()),
	})

	r.Post("/users/create", gateway.Endpoint{Access: gateway.Admin, Platform: true, Action: "user.create", Handle: h.createUser})
	r.Post("/users/list", gateway.Endpoint{Access: gateway.Admin, Platform: true, Handle: h.listUsers})
	r.Post("/users/:id/groups", gateway.Endpoint{Access: gateway.Admin, Platform: true, Action: "user.set_groups", Handle: h.setGroups})
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) login(cookie string) gateway.HandlerFunc {
	return func(c *gateway.Call) (interface{}, error) {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return nil, err
		}
		res, err := h.loginHandler.Handle(c.Ctx, command.LoginCommand{
			Login: req.Login, Password: req.Password, TenantID: c.TenantID(),
		})
		if err != nil {
			return nil, err
		}
		c.SetSessionCookie(cookie, res.Token, int(h.sessions.TTL().Seconds()))
		return res, nil
	}
}

func (h *AuthHandler) logout(cookie string) gateway.HandlerFunc {
	return func(c *gateway.Call) (interface{}, error) {
		if err := h.logoutHandler.Handle(c.Ctx, c.User.ID); err != nil {
			return nil, err
		}
		c.ClearSessionCookie(cookie)
		return map[string]bool{"logged_out": true}, nil
	}
}

// SessionInfo is the current caller as seen by clients.
type SessionInfo struct {
	UserID             uint               `json:"user_id"`
	Login              string             `json:"login"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	TenantID           *uint              `json:"tenant_id"`
	PartnerID          *uint              `json:"partner_id"`
	IsAdmin            bool               `json:"is_admin"`
	Groups             []domain.GroupCode `json:"groups"`
	MustChangePassword bool               `json:"must_change_password"`
}

func (h *AuthHandler) sessionInfo(c *gateway.Call) (interface{}, error) {
	u := c.User
	return SessionInfo{
		UserID:             u.ID,
		Login:              u.Login,
		Name:               u.Name,
		Email:              u.Email,
		TenantID:           u.TenantID,
		PartnerID:          u.PartnerID,
		IsAdmin:            u.IsAdmin(),
		Groups:             u.GroupCodes(),
		MustChangePassword: u.MustChangePassword,
	}, nil
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func (h *AuthHandler) changePasswordFor(cookie string) gateway.HandlerFunc {
	return func(c *gateway.Call) (interface{}, error) {
		var req changePasswordRequest
		if err := c.Bind(&req); err != nil {
			return nil, err
		}
		res, err := h.changePassword.Handle(c.Ctx, command.ChangePasswordCommand{
			UserID: c.User.ID, TenantID: c.TenantID(), OldPassword: req.OldPassword, NewPassword: req.NewPassword,
		})
		if err != nil {
			return nil, err
		}
		c.Target(c.User.ID)
		c.SetSessionCookie(cookie, res.Token, int(h.sessions.TTL().Seconds()))
		return res, nil
	}
}

type createUserRequest struct {
	Login       string             `json:"login"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Name        string             `json:"name"`
	Password    string             `json:"password"`
	Groups      []domain.GroupCode `json:"groups"`
	LinkPartner bool               `json:"link_partner"`
	// TenantID is only honoured for platform admins.
	TenantID *uint `json:"tenant_id"`
}

// scope is the tenant an admin's user operations are confined to.
func scope(c *gateway.Call) *uint {
	if c.User.TenantID != nil {
		return c.User.TenantID
	}
	return nil
}

func (h *AuthHandler) createUser(c *gateway.Call) (interface{}, error) {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	tenantID := req.TenantID
	if s := scope(c); s != nil {
		tenantID = s
	} else if tenantID == nil && c.Tenant != nil {
		id := c.Tenant.ID
		tenantID = &id
	}
	res, err := h.createHandler.Handle(c.Ctx, command.CreateUserCommand{
		TenantID:    tenantID,
		Login:       req.Login,
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Groups:      req.Groups,
		LinkPartner: req.LinkPartner,
	})
	if err != nil {
		return nil, err
	}
	c.Target(res.User.ID)
	return res, nil
}

type listUsersRequest struct {
	Limit  int `json:"limit" validate:"gte=0,lte=200"`
	Offset int `json:"offset" validate:"gte=0"`
}

func (h *AuthHandler) listUsers(c *gateway.Call) (interface{}, error) {
	var req listUsersRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.listHandler.Handle(c.Ctx, query.ListUsersQuery{TenantID: scope(c), Limit: req.Limit, Offset: req.Offset})
}

type setGroupsRequest struct {
	Groups []domain.GroupCode `json:"groups"`
}

func (h *AuthHandler) setGroups(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req setGroupsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	u, err := h.setGroupsHandler.Handle(c.Ctx, command.SetGroupsCommand{UserID: id, Groups: req.Groups, TenantID: scope(c)})
	if err != nil {
		return nil, err
	}
	c.Target(u.ID)
	return u, nil
}
