package http

import (
	"time"

	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/siteconfig/domain"
	"github.com/tair/tenant-commerce/internal/siteconfig/usecase/command"
	"github.com/tair/tenant-commerce/internal/siteconfig/usecase/query"
)

// Prefix is the cache prefix of site-config reads.
const Prefix = "site_config"

type SiteConfigHandler struct {
	get    *query.GetConfigHandler
	update *command.UpdateConfigHandler
	maxAge time.Duration
}

func NewSiteConfigHandler(repo domain.Repository, maxAge time.Duration) *SiteConfigHandler {
	return &SiteConfigHandler{
		get:    query.NewGetConfigHandler(repo),
		update: command.NewUpdateConfigHandler(repo),
		maxAge: maxAge,
	}
}

func (h *SiteConfigHandler) RegisterRoutes(r *gateway.Router) {
	r.Get("/site-config", gateway.Endpoint{CacheMaxAge: h.maxAge, Handle: h.read})
	r.Post("/site-config/update", gateway.Endpoint{
		Access:      gateway.Admin,
		Action:      "site_config.update",
		Invalidates: []string{Prefix},
		Handle:      h.write,
	})
}

func (h *SiteConfigHandler) read(c *gateway.Call) (interface{}, error) {
	return h.get.Handle(c.Ctx, c.TenantID())
}

type updateRequest struct {
	Values map[string]interface{} `json:"values" validate:"required"`
}

func (h *SiteConfigHandler) write(c *gateway.Call) (interface{}, error) {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.update.Handle(c.Ctx, c.TenantID(), req.Values)
}
