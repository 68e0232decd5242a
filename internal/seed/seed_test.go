package seed

import (
	"math/rand"
	"strings"
	"testing"
)

func TestCustomerBatchToleratesDuplicateEmails(t *testing.T) {
	s := &Seeder{rng: rand.New(rand.NewSource(1))}
	query, args := s.customerBatch(3)

	// Random emails can collide with the unique index; the batch must not
	// fail outright when one does.
	if !strings.HasPrefix(query, "INSERT IGNORE INTO customers") {
		t.Errorf("batch statement does not use INSERT IGNORE: %q", query)
	}
	if got := strings.Count(query, "(?, ?, ?, ?, ?, ?, ?, ?)"); got != 3 {
		t.Errorf("placeholder groups = %d, want 3", got)
	}
	if len(args) != 3*8 {
		t.Errorf("len(args) = %d, want 24", len(args))
	}
	for i, a := range args {
		if _, ok := a.(string); !ok {
			t.Fatalf("args[%d] = %T, want string", i, a)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float64", 19.99, 19.99},
		{"string", "19.99", 19.99},
		{"bytes", []byte("7.50"), 7.50},
		{"int64", int64(3), 3},
		{"unparseable", "abc", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toFloat(tt.in); got != tt.want {
				t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	if got := prefix("Electronics", 4); got != "Elec" {
		t.Errorf("prefix = %q", got)
	}
	if got := prefix("Toy", 4); got != "Toy" {
		t.Errorf("short input should pass through, got %q", got)
	}
}
