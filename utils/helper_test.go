package utils_test

import (
	"testing"

	"github.com/threadline/store_backend/utils"
)

func TestNilIfEmpty(t *testing.T) {
	if got := utils.NilIfEmpty(""); got != nil {
		t.Fatalf("expected nil for empty string, got %v", got)
	}
	if got := utils.NilIfEmpty("shirts"); got == nil || *got != "shirts" {
		t.Fatalf("expected pointer to shirts, got %v", got)
	}
	if got := utils.NilIfEmpty(0); got != nil {
		t.Fatalf("expected nil for zero int, got %v", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := utils.UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique elements, got %v", got)
	}
	// first occurrence order is preserved
	if got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDereferencePtr(t *testing.T) {
	if got := utils.DereferencePtr[bool](nil); got {
		t.Fatal("expected false for nil pointer")
	}
	if got := utils.DereferencePtr(nil, 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	v := 5
	if got := utils.DereferencePtr(&v, 7); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
