package handlers

import "testing"

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	if got := paginate(items, 1, 2); len(got) != 2 || got[0] != 1 {
		t.Errorf("page 1 = %v", got)
	}
	if got := paginate(items, 3, 2); len(got) != 1 || got[0] != 5 {
		t.Errorf("page 3 = %v", got)
	}
	if got := paginate(items, 4, 2); len(got) != 0 {
		t.Errorf("page past end = %v", got)
	}
	if got := paginate([]int{}, 1, 10); len(got) != 0 {
		t.Errorf("empty set = %v", got)
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		value    string
		fallback int
		want     int
	}{
		{"3", 1, 3},
		{"", 1, 1},
		{"0", 5, 5},
		{"-2", 5, 5},
		{"abc", 7, 7},
	}
	for _, tt := range tests {
		if got := parsePositiveInt(tt.value, tt.fallback); got != tt.want {
			t.Errorf("parsePositiveInt(%q, %d) = %d, want %d", tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestBuildPaginationMeta(t *testing.T) {
	meta := buildPaginationMeta(2, 10, 25)
	if meta.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", meta.TotalPages)
	}
	if meta.Page != 2 || meta.Limit != 10 || meta.Total != 25 {
		t.Errorf("meta = %+v", meta)
	}

	empty := buildPaginationMeta(1, 10, 0)
	if empty.TotalPages != 0 {
		t.Errorf("empty totalPages = %d, want 0", empty.TotalPages)
	}
}
