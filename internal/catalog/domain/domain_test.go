package domain

import (
	"testing"
	"time"
)

func uintp(v uint) *uint { return &v }

func TestCombinationKeyIsCanonical(t *testing.T) {
	if got := CombinationKey([]uint{12, 3, 7, 3}); got != "3,7,12" {
		t.Errorf("CombinationKey = %q, want 3,7,12", got)
	}
	if got := CombinationKey(nil); got != "" {
		t.Errorf("empty key = %q", got)
	}
	ids := ParseCombination("3,7,12")
	if len(ids) != 3 || ids[0] != 3 || ids[2] != 12 {
		t.Errorf("ParseCombination = %v", ids)
	}
}

func TestLineSetCombinations(t *testing.T) {
	set := LineSet{
		Lines: []AttributeLine{{ID: 1, AttributeID: 10}, {ID: 2, AttributeID: 20}, {ID: 3, AttributeID: 30}},
		Attributes: map[uint]Attribute{
			10: {ID: 10, CreateVariant: CreateAlways},
			20: {ID: 20, CreateVariant: CreateAlways},
			30: {ID: 30, CreateVariant: CreateNoVariant},
		},
		PTAVs: map[uint][]PTAV{
			1: {{ID: 101}, {ID: 102}, {ID: 103}},
			2: {{ID: 201}, {ID: 202}},
			3: {{ID: 301}},
		},
	}
	combos := set.Combinations()
	if len(combos) != 6 {
		t.Fatalf("combinations = %d, want 6", len(combos))
	}
	seen := make(map[string]bool)
	for _, c := range combos {
		if !set.Valid(c) {
			t.Errorf("combination %v reported invalid", c)
		}
		seen[CombinationKey(c)] = true
	}
	if len(seen) != 6 {
		t.Errorf("distinct combinations = %d, want 6", len(seen))
	}
	if set.Valid([]uint{101, 102, 201}) {
		t.Error("two values of one line accepted")
	}
	if set.Valid([]uint{101, 201, 301}) {
		t.Error("no_variant value accepted")
	}
	if set.Valid([]uint{101}) {
		t.Error("incomplete combination accepted")
	}

	empty := LineSet{}
	if got := empty.Combinations(); len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("no lines = %v, want the default combination", got)
	}
}

func TestResolveVariantImages(t *testing.T) {
	v := Variant{ID: 5, Combination: "101,201"}
	images := []Image{
		{ID: 1, ProductID: 1, Sequence: 10},
		{ID: 2, ProductID: 1, Sequence: 20},
		{ID: 3, ProductID: 1, PTAVID: uintp(201), Sequence: 10},
		{ID: 4, ProductID: 1, PTAVID: uintp(999), Sequence: 5},
		{ID: 5, ProductID: 1, VariantID: uintp(5), Sequence: 30},
		{ID: 6, ProductID: 1, VariantID: uintp(6), Sequence: 1},
	}
	got := ResolveVariantImages(v, images)
	if len(got) != 2 || got[0].ID != 5 || got[1].ID != 3 {
		t.Errorf("gallery = %+v, want own image then value image", got)
	}

	bare := Variant{ID: 7, Combination: "102"}
	got = ResolveVariantImages(bare, images)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("fallback = %+v, want first template image only", got)
	}
	if got := ResolveVariantImages(bare, nil); len(got) != 0 {
		t.Errorf("no images = %+v", got)
	}
}

func TestImageScopeContains(t *testing.T) {
	shared := Image{ProductID: 1, PTAVID: uintp(3)}
	if !(ImageScope{ProductID: 1, PTAVID: uintp(3)}).Contains(shared) {
		t.Error("value scope misses its image")
	}
	if (ImageScope{ProductID: 1}).Contains(shared) {
		t.Error("template scope contains a value image")
	}
	if (ImageScope{ProductID: 2, PTAVID: uintp(3)}).Contains(shared) {
		t.Error("other product scope contains the image")
	}
}

func TestCategoryTree(t *testing.T) {
	tree := NewCategoryTree([]Category{
		{ID: 1, Name: "All"},
		{ID: 2, Name: "Clothes", ParentID: uintp(1)},
		{ID: 3, Name: "Shirts", ParentID: uintp(2)},
		{ID: 4, Name: "Home", ParentID: uintp(1)},
	})
	if !tree.IsDescendant(3, 1) || tree.IsDescendant(4, 2) {
		t.Error("IsDescendant wrong")
	}
	if got := tree.Descendants(2); len(got) != 2 {
		t.Errorf("descendants of 2 = %v, want [2 3]", got)
	}
	if got := tree.CompleteName(tree[3]); got != "All / Clothes / Shirts" {
		t.Errorf("complete name = %q", got)
	}

	loop := NewCategoryTree([]Category{{ID: 1, ParentID: uintp(2)}, {ID: 2, ParentID: uintp(1)}})
	if loop.IsDescendant(1, 9) {
		t.Error("cycle walk did not stop")
	}
}

func TestPricelistPrecedence(t *testing.T) {
	cat := uint(9)
	p := &Product{ID: 3, CategoryID: &cat}
	yesterday := time.Now().Add(-24 * time.Hour)
	pl := &Pricelist{Items: []PricelistItem{
		{ID: 1, AppliedOn: AppliedGlobal, Compute: ComputePercentage, PercentDiscount: 50},
		{ID: 2, AppliedOn: AppliedCategory, CategoryID: &cat, Compute: ComputePercentage, PercentDiscount: 15},
		{ID: 3, AppliedOn: AppliedProduct, ProductID: uintp(3), Compute: ComputeFixed, FixedPrice: 1, DateEnd: &yesterday},
	}}
	price, item := pl.Price(p, 19.99, 1, time.Now())
	if item == nil || item.ID != 2 {
		t.Fatalf("rule = %+v, want the category rule", item)
	}
	if price != 16.99 {
		t.Errorf("price = %v, want 16.99", price)
	}

	other := &Product{ID: 4}
	if price, item := pl.Price(other, 10, 1, time.Now()); item == nil || item.ID != 1 || price != 5 {
		t.Errorf("global = %v via %+v, want 5 via rule 1", price, item)
	}

	empty := &Pricelist{}
	if price, item := empty.Price(p, 12.5, 1, time.Now()); item != nil || price != 12.5 {
		t.Errorf("no rules = %v via %+v", price, item)
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("  Blue Cotton Shirt "); got != "blue-cotton-shirt" {
		t.Errorf("Slug = %q", got)
	}
}
