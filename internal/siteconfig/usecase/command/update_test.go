package command

import (
	"context"
	"testing"

	"github.com/tair/tenant-commerce/internal/siteconfig/repository"
	"github.com/tair/tenant-commerce/internal/siteconfig/usecase/query"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

func TestUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryParamRepository()
	h := NewUpdateConfigHandler(repo)

	_, err := h.Handle(ctx, 1, map[string]interface{}{"warranty_years": 3.0, "bogus": true})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Fatalf("unknown key error = %v, want VALIDATION", err)
	}
	if params, _ := repo.List(ctx, 1); len(params) != 0 {
		t.Fatalf("stored %d params after a rejected update, want 0", len(params))
	}

	got, err := h.Handle(ctx, 1, map[string]interface{}{"warranty_years": 3.0, "reviews_enabled": false})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got["warranty_years"] != 3 || got["reviews_enabled"] != false {
		t.Errorf("updated config = %v", got)
	}

	other, err := query.NewGetConfigHandler(repo).Handle(ctx, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other["warranty_years"] != 1 {
		t.Errorf("tenant 2 warranty_years = %v, want default 1", other["warranty_years"])
	}
}
