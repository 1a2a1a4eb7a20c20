package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGenerateKeyIsOrderIndependent(t *testing.T) {
	a := GenerateKey("products", map[string]interface{}{
		"tenant_id":           uint(1),
		"attribute_value_ids": []uint{5, 3, 9},
		"search":              "shirt",
	})
	b := GenerateKey("products", map[string]interface{}{
		"search":              "shirt",
		"attribute_value_ids": []uint{9, 5, 3},
		"tenant_id":           uint(1),
	})
	if a != b {
		t.Fatalf("keys differ:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, "products:") {
		t.Errorf("key %q missing namespace prefix", a)
	}
	if !strings.Contains(a, "attribute_value_ids=[3,5,9]") {
		t.Errorf("key %q should carry the sorted list", a)
	}
}

func TestGenerateKeySkipsNil(t *testing.T) {
	var category *uint
	got := GenerateKey("products", map[string]interface{}{"tenant_id": 2, "category_id": category})
	if got != "products:tenant_id=2" {
		t.Errorf("key = %q, want products:tenant_id=2", got)
	}
}

func TestGenerateKeyHashesLongBodies(t *testing.T) {
	got := GenerateKey("products", map[string]interface{}{"search": strings.Repeat("x", 300)})
	if len(got) != len("products:")+64 {
		t.Errorf("long key should be hashed, got %d chars", len(got))
	}
}

func TestServiceMemoryFallback(t *testing.T) {
	svc, err := New(nil, time.Second, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()
	ctx := context.Background()

	svc.SetJSON(ctx, "products:tenant_id=1", map[string]int{"total": 3}, time.Minute)
	svc.SetJSON(ctx, "ribbons:all", []string{"New"}, time.Minute)

	var got map[string]int
	if !svc.GetJSON(ctx, "products:tenant_id=1", &got) || got["total"] != 3 {
		t.Fatalf("GetJSON = %v, want total 3", got)
	}

	if err := svc.Invalidate(ctx, "products*"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := svc.Get(ctx, "products:tenant_id=1"); ok {
		t.Error("products key should be gone after invalidation")
	}
	if _, ok := svc.Get(ctx, "ribbons:all"); !ok {
		t.Error("ribbons key should survive a products invalidation")
	}
}

func TestInvalidateRejectsEmptyPrefix(t *testing.T) {
	svc, err := New(nil, time.Second, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()
	if err := svc.Invalidate(context.Background(), "*"); err == nil {
		t.Fatal("expected error for empty prefix")
	}
}
