package http

import (
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/internal/tenant/usecase/command"
	"github.com/tair/tenant-commerce/internal/tenant/usecase/query"
	"github.com/tair/tenant-commerce/pkg/database"
)

// TenantHandler exposes the tenant registry.
type TenantHandler struct {
	createHandler  *command.CreateTenantHandler
	updateHandler  *command.UpdateTenantHandler
	resolveHandler *query.FindByDomainHandler
	configHandler  *query.FrontendConfigHandler
	listHandler    *query.ListTenantsHandler
}

func NewTenantHandler(repo domain.TenantRepository, tx database.Transactor, admins domain.AdminProvisioner,
	resolver *query.FindByDomainHandler, phones *domain.PhoneFormatter) *TenantHandler {
	return &TenantHandler{
		createHandler:  command.NewCreateTenantHandler(repo, tx, admins),
		updateHandler:  command.NewUpdateTenantHandler(repo),
		resolveHandler: resolver,
		configHandler:  query.NewFrontendConfigHandler(phones),
		listHandler:    query.NewListTenantsHandler(repo),
	}
}

func (h *TenantHandler) RegisterRoutes(r *gateway.Router) {
	r.Get("/tenant/config", gateway.Endpoint{Handle: h.frontendConfig})
	r.Post("/tenants/resolve", gateway.Endpoint{Platform: true, Handle: h.resolve})
	r.Post("/tenants/create", gateway.Endpoint{
		Access: gateway.Admin, Platform: true, Action: "tenant.create",
		Invalidates: []string{query.CachePrefix}, Handle: h.create,
	})
	r.Post("/tenants/list", gateway.Endpoint{Access: gateway.Admin, Platform: true, Handle: h.list})
	r.Post("/tenants/:id/update", gateway.Endpoint{
		Access: gateway.Admin, Platform: true, Action: "tenant.update",
		Invalidates: []string{query.CachePrefix}, Handle: h.update,
	})
}

func (h *TenantHandler) frontendConfig(c *gateway.Call) (interface{}, error) {
	return h.configHandler.Handle(c.Tenant), nil
}

type resolveRequest struct {
	Domain string `json:"domain" validate:"required"`
}

type tenantSummary struct {
	ID     uint   `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (h *TenantHandler) resolve(c *gateway.Call) (interface{}, error) {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	t, err := h.resolveHandler.Resolve(c.Ctx, req.Domain)
	if err != nil || t == nil {
		return nil, err
	}
	return tenantSummary{ID: t.ID, Code: t.Code, Name: t.Name, Domain: t.Domain}, nil
}

type createRequest struct {
	Code              string        `json:"code" validate:"required,max=64"`
	Name              string        `json:"name" validate:"required"`
	Domain            string        `json:"domain" validate:"required"`
	AdditionalDomains []string      `json:"additional_domains"`
	ContactEmail      string        `json:"contact_email" validate:"omitempty,email"`
	ContactPhone      string        `json:"contact_phone"`
	Theme             *domain.Theme `json:"theme"`
	Plan              string        `json:"plan"`
	AdminEmail        string        `json:"admin_email" validate:"omitempty,email"`
	AdminName         string        `json:"admin_name"`
}

func (h *TenantHandler) create(c *gateway.Call) (interface{}, error) {
	if err := gateway.RequirePlatformAdmin(c); err != nil {
		return nil, err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	res, err := h.createHandler.Handle(c.Ctx, command.CreateTenantCommand{
		Code:              req.Code,
		Name:              req.Name,
		Domain:            req.Domain,
		AdditionalDomains: req.AdditionalDomains,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		Theme:             req.Theme,
		Plan:              req.Plan,
		AdminEmail:        req.AdminEmail,
		AdminName:         req.AdminName,
	})
	if err != nil {
		return nil, err
	}
	c.Target(res.Tenant.ID)
	return res, nil
}

type listRequest struct {
	Limit  int `json:"limit" validate:"gte=0,lte=200"`
	Offset int `json:"offset" validate:"gte=0"`
}

func (h *TenantHandler) list(c *gateway.Call) (interface{}, error) {
	if err := gateway.RequirePlatformAdmin(c); err != nil {
		return nil, err
	}
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	tenants, total, err := h.listHandler.Handle(c.Ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"tenants": tenants, "total": total}, nil
}

type updateRequest struct {
	Name              *string            `json:"name"`
	Domain            *string            `json:"domain"`
	AdditionalDomains *[]string          `json:"additional_domains"`
	Active            *bool              `json:"active"`
	LogoURL           *string            `json:"logo_url"`
	FaviconURL        *string            `json:"favicon_url"`
	Slogan            *string            `json:"slogan"`
	Description       *string            `json:"description"`
	Theme             *domain.Theme      `json:"theme"`
	Features          *domain.Features   `json:"features"`
	ContactEmail      *string            `json:"contact_email" validate:"omitempty,email"`
	ContactPhone      *string            `json:"contact_phone"`
	WhatsApp          *string            `json:"whatsapp"`
	SocialLinks       *map[string]string `json:"social_links"`
	SEOTitle          *string            `json:"seo_title"`
	SEODescription    *string            `json:"seo_description"`
	SEOKeywords       *string            `json:"seo_keywords"`
}

func (h *TenantHandler) update(c *gateway.Call) (interface{}, error) {
	if err := gateway.RequirePlatformAdmin(c); err != nil {
		return nil, err
	}
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	t, err := h.updateHandler.Handle(c.Ctx, command.UpdateTenantCommand{
		ID:                id,
		Name:              req.Name,
		Domain:            req.Domain,
		AdditionalDomains: req.AdditionalDomains,
		Active:            req.Active,
		LogoURL:           req.LogoURL,
		FaviconURL:        req.FaviconURL,
		Slogan:            req.Slogan,
		Description:       req.Description,
		Theme:             req.Theme,
		Features:          req.Features,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		WhatsApp:          req.WhatsApp,
		SocialLinks:       req.SocialLinks,
		SEOTitle:          req.SEOTitle,
		SEODescription:    req.SEODescription,
		SEOKeywords:       req.SEOKeywords,
	})
	if err != nil {
		return nil, err
	}
	c.Target(t.ID)
	return t, nil
}
