package http

import (
	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/internal/customer/usecase/command"
	"github.com/tair/tenant-commerce/internal/customer/usecase/query"
	"github.com/tair/tenant-commerce/internal/gateway"
)

// CustomerHandler serves customer self-service and administration.
type CustomerHandler struct {
	createHandler *command.CreatePartnerHandler
	updateHandler *command.UpdatePartnerHandler
	getHandler    *query.GetPartnerHandler
	listHandler   *query.ListPartnersHandler
}

func NewCustomerHandler(repo domain.PartnerRepository) *CustomerHandler {
	return &CustomerHandler{
		createHandler: command.NewCreatePartnerHandler(repo),
		updateHandler: command.NewUpdatePartnerHandler(repo),
		getHandler:    query.NewGetPartnerHandler(repo),
		listHandler:   query.NewListPartnersHandler(repo),
	}
}

func (h *CustomerHandler) RegisterRoutes(r *gateway.Router) {
	r.Post("/customers/list", gateway.Endpoint{Access: gateway.Admin, Handle: h.list})
	r.Post("/customers/create", gateway.Endpoint{Access: gateway.Admin, Action: "customer.create", Handle: h.create})
	r.Post("/customers/:id", gateway.Endpoint{Handle: h.get})
	r.Post("/customers/:id/update", gateway.Endpoint{Action: "customer.update", Handle: h.update})
}

type ownedRequest struct {
	GuestEmail string `json:"guest_email"`
}

// owned loads a partner and applies the ownership gate.
func (h *CustomerHandler) owned(c *gateway.Call, guestEmail string) (*domain.Partner, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	p, err := h.getHandler.Handle(c.Ctx, c.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if err := gateway.CheckOwnership(c.User, gateway.Owner{PartnerID: p.ID, Email: p.Email}, guestEmail); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *CustomerHandler) get(c *gateway.Call) (interface{}, error) {
	var req ownedRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.owned(c, req.GuestEmail)
}

type updateRequest struct {
	GuestEmail string  `json:"guest_email"`
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	Zip        *string `json:"zip"`
	Country    *string `json:"country" validate:"omitempty,len=2"`
}

func (h *CustomerHandler) update(c *gateway.Call) (interface{}, error) {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	p, err := h.owned(c, req.GuestEmail)
	if err != nil {
		return nil, err
	}
	updated, err := h.updateHandler.Handle(c.Ctx, p, command.UpdatePartnerCommand{
		TenantID: c.TenantID(),
		ID:       p.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Street:   req.Street,
		City:     req.City,
		Zip:      req.Zip,
		Country:  req.Country,
	})
	if err != nil {
		return nil, err
	}
	c.Target(updated.ID)
	return updated, nil
}

type createRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country" validate:"omitempty,len=2"`
}

func (h *CustomerHandler) create(c *gateway.Call) (interface{}, error) {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	p, err := h.createHandler.Handle(c.Ctx, command.CreatePartnerCommand{
		TenantID: c.TenantID(),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Street:   req.Street,
		City:     req.City,
		Zip:      req.Zip,
		Country:  req.Country,
	})
	if err != nil {
		return nil, err
	}
	c.Target(p.ID)
	return p, nil
}

type listRequest struct {
	Search       string `json:"search"`
	IncludeGuest bool   `json:"include_guest"`
	Limit        int    `json:"limit" validate:"gte=0,lte=200"`
	Offset       int    `json:"offset" validate:"gte=0"`
}

func (h *CustomerHandler) list(c *gateway.Call) (interface{}, error) {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.listHandler.Handle(c.Ctx, c.TenantID(), domain.PartnerFilter{
		Search: req.Search, IncludeGuest: req.IncludeGuest, Limit: req.Limit, Offset: req.Offset,
	})
}
