package practice

import (
	"strings"
	"testing"
)

func TestLessonCatalog(t *testing.T) {
	lessons := Lessons()
	if len(lessons) == 0 {
		t.Fatal("no lessons registered")
	}

	seen := make(map[string]bool)
	for _, l := range lessons {
		if l.Name == "" {
			t.Error("lesson with empty name")
		}
		if seen[l.Name] {
			t.Errorf("duplicate lesson name %q", l.Name)
		}
		seen[l.Name] = true

		if l.Summary == "" {
			t.Errorf("lesson %q has no summary", l.Name)
		}
		if len(l.Steps) == 0 && l.Custom == nil {
			t.Errorf("lesson %q has neither steps nor a custom runner", l.Name)
		}
		for _, s := range l.Steps {
			if s.Title == "" || s.Query == "" {
				t.Errorf("lesson %q has a step with empty title or query", l.Name)
			}
		}
	}
}

func TestFind(t *testing.T) {
	for _, name := range Names() {
		l, ok := Find(name)
		if !ok {
			t.Fatalf("Find(%q) = false for listed lesson", name)
		}
		if l.Name != name {
			t.Fatalf("Find(%q) returned lesson %q", name, l.Name)
		}
	}
	if _, ok := Find("no-such-lesson"); ok {
		t.Error("Find returned a lesson for an unknown name")
	}
}

func TestRenderRowsTruncates(t *testing.T) {
	rows := make([]map[string]any, 12)
	for i := range rows {
		rows[i] = map[string]any{"n": i}
	}

	var sb strings.Builder
	renderRows(&sb, rows, 8)

	out := sb.String()
	if !strings.Contains(out, "4 more row(s)") {
		t.Errorf("expected truncation notice, got:\n%s", out)
	}
	if strings.Count(out, "n=") != 8 {
		t.Errorf("expected 8 rendered rows, got %d", strings.Count(out, "n="))
	}
}

func TestRenderRowsEmpty(t *testing.T) {
	var sb strings.Builder
	renderRows(&sb, nil, 8)
	if !strings.Contains(sb.String(), "no rows") {
		t.Errorf("expected empty marker, got %q", sb.String())
	}
}
