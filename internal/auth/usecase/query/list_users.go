package query

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/auth/domain"
)

// ListUsersQuery represents the query to list users
type ListUsersQuery struct {
	TenantID *uint
	Limit    int
	Offset   int
}

type ListUsersResult struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
}

type ListUsersHandler struct {
	repo domain.UserRepository
}

func NewListUsersHandler(repo domain.UserRepository) *ListUsersHandler {
	return &ListUsersHandler{repo: repo}
}

func (h *ListUsersHandler) Handle(ctx context.Context, q ListUsersQuery) (*ListUsersResult, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	users, total, err := h.repo.List(ctx, q.TenantID, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &ListUsersResult{Users: users, Total: total}, nil
}
