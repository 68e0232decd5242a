package profiler

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

func contains(suggestions []string, substr string) bool {
	for _, s := range suggestions {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// TestSuggestTextualChecks covers the pattern checks that look only at the
// query text.
func TestSuggestTextualChecks(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantSubstrs []string
		absent      []string
	}{
		{
			name:        "select star",
			query:       "SELECT * FROM customers",
			wantSubstrs: []string{"Avoid SELECT *"},
		},
		{
			name:        "select star lowercase",
			query:       "select * from customers",
			wantSubstrs: []string{"Avoid SELECT *"},
		},
		{
			name:        "order by without limit",
			query:       "SELECT id FROM orders ORDER BY total_amount",
			wantSubstrs: []string{"ORDER BY without LIMIT"},
		},
		{
			name:   "order by with limit is fine",
			query:  "SELECT id FROM orders ORDER BY total_amount LIMIT 10",
			absent: []string{"ORDER BY without LIMIT"},
		},
		{
			name: "too many joins",
			query: "SELECT 1 FROM a JOIN b ON 1=1 JOIN c ON 1=1 " +
				"JOIN d ON 1=1 JOIN e ON 1=1",
			wantSubstrs: []string{"Multiple JOINs"},
		},
		{
			name:   "three joins pass",
			query:  "SELECT 1 FROM a JOIN b ON 1=1 JOIN c ON 1=1 JOIN d ON 1=1",
			absent: []string{"Multiple JOINs"},
		},
		{
			name:        "select star with unbounded order by",
			query:       "SELECT * FROM t ORDER BY x",
			wantSubstrs: []string{"Avoid SELECT *", "ORDER BY without LIMIT"},
		},
		{
			name:   "clean query",
			query:  "SELECT id, name FROM customers WHERE id = ?",
			absent: []string{"Avoid SELECT *", "ORDER BY", "JOIN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.query, 0, nil)
			for _, want := range tt.wantSubstrs {
				if !contains(got, want) {
					t.Errorf("Suggest(%q) = %v, missing %q", tt.query, got, want)
				}
			}
			for _, absent := range tt.absent {
				if contains(got, absent) {
					t.Errorf("Suggest(%q) = %v, unexpectedly contains %q", tt.query, got, absent)
				}
			}
		})
	}
}

// TestSuggestPlanChecks covers the checks driven by the normalized plan.
func TestSuggestPlanChecks(t *testing.T) {
	tests := []struct {
		name        string
		plan        []model.PlanRow
		wantSubstrs []string
		absent      []string
	}{
		{
			name:        "null key means no index",
			plan:        []model.PlanRow{{Table: "t", AccessType: "ALL"}},
			wantSubstrs: []string{"No index is being used"},
		},
		{
			name:   "indexed access is quiet",
			plan:   []model.PlanRow{{Table: "t", AccessType: "ref", Key: "idx_t_x", Rows: 10}},
			absent: []string{"No index"},
		},
		{
			name:        "excessive rows examined",
			plan:        []model.PlanRow{{Table: "t", Key: "PRIMARY", Rows: 10001}},
			wantSubstrs: []string{"Large number of rows examined"},
		},
		{
			name:   "exactly at the row limit is quiet",
			plan:   []model.PlanRow{{Table: "t", Key: "PRIMARY", Rows: 10000}},
			absent: []string{"Large number of rows"},
		},
		{
			name:        "dependent subquery",
			plan:        []model.PlanRow{{Table: "t", Key: "PRIMARY", SelectType: "DEPENDENT SUBQUERY"}},
			wantSubstrs: []string{"Dependent subquery"},
		},
		{
			name: "two unindexed tables suggest once",
			plan: []model.PlanRow{
				{Table: "a", AccessType: "ALL"},
				{Table: "b", AccessType: "ALL"},
			},
			wantSubstrs: []string{"No index is being used"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest("SELECT id FROM t WHERE x = 1", 0, tt.plan)
			for _, want := range tt.wantSubstrs {
				if !contains(got, want) {
					t.Errorf("Suggest = %v, missing %q", got, want)
				}
			}
			for _, absent := range tt.absent {
				if contains(got, absent) {
					t.Errorf("Suggest = %v, unexpectedly contains %q", got, absent)
				}
			}
		})
	}

	// Dedup: one suggestion per condition no matter how many rows match.
	plan := []model.PlanRow{{Table: "a"}, {Table: "b"}}
	got := Suggest("SELECT id FROM t", 0, plan)
	count := 0
	for _, s := range got {
		if strings.Contains(s, "No index") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("no-index suggestion appeared %d times, want 1", count)
	}
}

// TestSuggestSlowExecution checks the wall-clock threshold.
func TestSuggestSlowExecution(t *testing.T) {
	if got := Suggest("SELECT 1", 1100*time.Millisecond, nil); !contains(got, "slow (>1s)") {
		t.Errorf("expected slow-query suggestion, got %v", got)
	}
	if got := Suggest("SELECT 1", 900*time.Millisecond, nil); contains(got, "slow (>1s)") {
		t.Errorf("unexpected slow-query suggestion, got %v", got)
	}
}

// TestSuggestIsIdempotent verifies identical inputs give identical output.
func TestSuggestIsIdempotent(t *testing.T) {
	query := "SELECT * FROM t ORDER BY x"
	plan := []model.PlanRow{{Table: "t", Rows: 20000}}

	first := Suggest(query, 2*time.Second, plan)
	for i := 0; i < 5; i++ {
		if got := Suggest(query, 2*time.Second, plan); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}
