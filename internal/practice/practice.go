// Package practice bundles guided SQL lessons that run against the
// practice database. Each lesson is a sequence of annotated queries
// whose results are rendered to the terminal.
package practice

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sqlpulse/sqlpulse/internal/db"
)

// Step is one labeled query within a lesson.
type Step struct {
	Title string
	Query string
	Args  []any
	// Exec marks statements that modify data instead of returning rows.
	Exec bool
}

// Lesson is a named sequence of steps. Lessons with behavior that a
// plain query list cannot express (transactions) provide Custom.
type Lesson struct {
	Name    string
	Summary string
	Steps   []Step
	Custom  func(ctx context.Context, client *db.Client, out io.Writer) error
}

// Run executes the lesson, writing results to out. Step failures are
// reported inline and do not abort the lesson; a window function that
// the server does not support should not hide the rest.
func (l Lesson) Run(ctx context.Context, client *db.Client, out io.Writer) error {
	fmt.Fprintf(out, "=== %s ===\n%s\n", l.Name, l.Summary)

	if l.Custom != nil {
		return l.Custom(ctx, client, out)
	}

	for i, step := range l.Steps {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, step.Title)
		if step.Exec {
			rows, err := client.Exec(ctx, step.Query, step.Args...)
			if err != nil {
				fmt.Fprintf(out, "   error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "   %d row(s) affected\n", rows)
			continue
		}
		rows, err := client.QueryMaps(ctx, step.Query, step.Args...)
		if err != nil {
			fmt.Fprintf(out, "   error: %v\n", err)
			continue
		}
		renderRows(out, rows, 8)
	}
	return nil
}

// renderRows prints up to limit rows as aligned key/value blocks.
func renderRows(out io.Writer, rows []map[string]any, limit int) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "   (no rows)")
		return
	}
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, row := range shown {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Fprintf(out, "   %s\n", strings.Join(parts, "  "))
	}
	if len(rows) > limit {
		fmt.Fprintf(out, "   ... %d more row(s)\n", len(rows)-limit)
	}
}

// Find returns the lesson with the given name.
func Find(name string) (Lesson, bool) {
	for _, l := range Lessons() {
		if l.Name == name {
			return l, true
		}
	}
	return Lesson{}, false
}

// Names lists available lesson names in their teaching order.
func Names() []string {
	lessons := Lessons()
	names := make([]string, len(lessons))
	for i, l := range lessons {
		names[i] = l.Name
	}
	return names
}
