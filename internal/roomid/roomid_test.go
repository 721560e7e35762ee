package roomid

import (
	"testing"
	"time"
)

type fixedSource struct{ b int }

func (f fixedSource) Intn(n int) int { return f.b % n }

func TestNewIsValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := New()
		if err := Validate(id); err != nil {
			t.Fatalf("generated invalid id %q: %v", id, err)
		}
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIDsSortByCreationTime(t *testing.T) {
	a := New()
	time.Sleep(2 * time.Millisecond)
	b := New()
	if !(a < b) {
		t.Errorf("expected %q < %q", a, b)
	}
}

func TestNewWithRandSourceDeterministicSuffix(t *testing.T) {
	a := NewWithRandSource(fixedSource{7})
	b := NewWithRandSource(fixedSource{7})
	// timestamp prefix may differ, random suffix must match
	if a[13:] != b[13:] {
		t.Errorf("suffixes differ: %q vs %q", a[13:], b[13:])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", New(), false},
		{"too short", "abc", true},
		{"bad first char", "z" + New()[1:], true},
		{"bad character", New()[:25] + "!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
