package profiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

const (
	slowExecution   = time.Second
	maxRowsExamined = 10000
	maxJoins        = 3
)

// Suggest generates optimization suggestions from the execution time, the
// normalized plan, and the raw query text. Each check is independent and
// purely structural; there is no cost-model reasoning. The same inputs
// always produce the same suggestions.
func Suggest(query string, execution time.Duration, plan []model.PlanRow) []string {
	var suggestions []string

	if execution > slowExecution {
		suggestions = append(suggestions,
			"Query execution time is slow (>1s). Consider optimization.")
	}

	var noIndex, manyRows, depSubquery bool
	for _, row := range plan {
		if row.Key == "" {
			noIndex = true
		}
		if row.Rows > maxRowsExamined {
			manyRows = true
		}
		if strings.Contains(row.SelectType, "DEPENDENT SUBQUERY") {
			depSubquery = true
		}
	}
	if noIndex {
		suggestions = append(suggestions,
			"No index is being used. Consider adding appropriate indexes.")
	}
	if manyRows {
		suggestions = append(suggestions, fmt.Sprintf(
			"Large number of rows examined (>%d). Consider adding WHERE clauses or indexes.",
			maxRowsExamined))
	}
	if depSubquery {
		suggestions = append(suggestions,
			"Dependent subquery detected. Consider rewriting as JOIN.")
	}

	upper := strings.ToUpper(query)
	if strings.Contains(upper, "SELECT *") {
		suggestions = append(suggestions,
			"Avoid SELECT *. Specify only needed columns.")
	}
	if strings.Contains(upper, "ORDER BY") && !strings.Contains(upper, "LIMIT") {
		suggestions = append(suggestions,
			"ORDER BY without LIMIT can be expensive. Consider adding LIMIT.")
	}
	if strings.Count(upper, "JOIN") > maxJoins {
		suggestions = append(suggestions,
			"Multiple JOINs detected. Verify all joins are necessary and properly indexed.")
	}

	return suggestions
}
