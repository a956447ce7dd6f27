package listing

import "testing"

func TestPaginate(t *testing.T) {
	items := make([]int, 12)
	for i := range items {
		items[i] = i + 1
	}

	p := Paginate(items, 1, 8)
	if len(p.Items) != 8 || p.Number != 1 || p.TotalPages != 2 || p.TotalItems != 12 {
		t.Fatalf("page 1: got %+v", p)
	}
	if !p.HasNext() || p.HasPrev() {
		t.Fatal("page 1 of 2 should have next but not prev")
	}

	p = Paginate(items, 2, 8)
	if len(p.Items) != 4 || p.Items[0] != 9 || p.Items[3] != 12 {
		t.Fatalf("page 2: got %+v", p)
	}
	if p.HasNext() || !p.HasPrev() {
		t.Fatal("page 2 of 2 should have prev but not next")
	}
}

func TestPaginateClamps(t *testing.T) {
	items := []int{1, 2, 3}

	p := Paginate(items, 99, 2)
	if p.Number != 2 || len(p.Items) != 1 || p.Items[0] != 3 {
		t.Fatalf("overshoot should clamp to last page, got %+v", p)
	}

	p = Paginate(items, -5, 2)
	if p.Number != 1 || len(p.Items) != 2 {
		t.Fatalf("undershoot should clamp to page 1, got %+v", p)
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]int{}, 1, 5)
	if p.Number != 1 || p.TotalPages != 1 || p.TotalItems != 0 || len(p.Items) != 0 {
		t.Fatalf("empty collection should yield page 1 of 1, got %+v", p)
	}
	if p.HasPrev() || p.HasNext() {
		t.Fatal("single empty page has no neighbors")
	}
}

func TestPaginateExactBoundary(t *testing.T) {
	items := make([]string, 10)
	p := Paginate(items, 2, 5)
	if p.TotalPages != 2 || len(p.Items) != 5 {
		t.Fatalf("exact multiple: got %+v", p)
	}
}
