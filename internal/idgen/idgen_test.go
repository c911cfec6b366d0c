package idgen

import (
	"strings"
	"testing"
)

func TestNewDatasetID_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := NewDatasetID()
		if err != nil {
			t.Fatalf("NewDatasetID() error on iteration %d: %v", i, err)
		}
		if len(id) != len(DatasetPrefix)+Length {
			t.Fatalf("NewDatasetID() = %q, length %d", id, len(id))
		}
		if !IsDatasetID(id) {
			t.Fatalf("IsDatasetID(%q) = false for a generated ID", id)
		}
	}
}

func TestNewDatasetID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := NewDatasetID()
		if err != nil {
			t.Fatalf("NewDatasetID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	id, err := GenerateWithPrefix("evt-")
	if err != nil {
		t.Fatalf("GenerateWithPrefix error: %v", err)
	}
	if !strings.HasPrefix(id, "evt-") || len(id) != len("evt-")+Length {
		t.Errorf("GenerateWithPrefix(%q) = %q", "evt-", id)
	}
}

func TestIsDatasetID(t *testing.T) {
	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"ds-abcDEF012345", true},
		{"ds-abcDEF01234", false},
		{"ds-abcDEF0123456", false},
		{"bd-abcDEF012345", false},
		{"ds-abc_EF012345", false},
		{"", false},
	} {
		if got := IsDatasetID(tc.id); got != tc.want {
			t.Errorf("IsDatasetID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
