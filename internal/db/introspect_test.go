package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsAccessDenied(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"process privilege", &mysql.MySQLError{Number: 1227, Message: "Access denied; you need the PROCESS privilege"}, true},
		{"command denied", &mysql.MySQLError{Number: 1142, Message: "SELECT command denied"}, true},
		{"db access denied", &mysql.MySQLError{Number: 1044, Message: "Access denied for user"}, true},
		{"wrapped", fmt.Errorf("probe failed: %w", &mysql.MySQLError{Number: 1227}), true},
		{"other mysql error", &mysql.MySQLError{Number: 1064, Message: "syntax error"}, false},
		{"text fallback", errors.New("Error 1045: Access denied for user 'x'"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAccessDenied(tt.err); got != tt.want {
				t.Errorf("IsAccessDenied(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPlanFromMaps(t *testing.T) {
	maps := []map[string]any{
		{
			"id":            int64(1),
			"select_type":   "SIMPLE",
			"table":         "orders",
			"type":          "ALL",
			"possible_keys": nil,
			"key":           nil,
			"rows":          "15320",
			"Extra":         "Using where",
		},
		{
			"id":          "2",
			"select_type": "DEPENDENT SUBQUERY",
			"table":       "order_items",
			"type":        "ref",
			"key":         []byte("idx_order_items_order"),
			"rows":        int64(3),
		},
	}

	plan := planFromMaps(maps)
	if len(plan) != 2 {
		t.Fatalf("len(plan) = %d, want 2", len(plan))
	}

	first := plan[0]
	if first.ID != 1 || first.Table != "orders" || first.AccessType != "ALL" {
		t.Errorf("first row = %+v", first)
	}
	if first.Key != "" {
		t.Errorf("nil key should normalize to empty, got %q", first.Key)
	}
	if first.Rows != 15320 {
		t.Errorf("string rows should parse, got %d", first.Rows)
	}

	second := plan[1]
	if second.ID != 2 {
		t.Errorf("string id should parse, got %d", second.ID)
	}
	if second.Key != "idx_order_items_order" {
		t.Errorf("[]byte key should convert, got %q", second.Key)
	}
	if second.SelectType != "DEPENDENT SUBQUERY" {
		t.Errorf("SelectType = %q", second.SelectType)
	}
}

func TestMapHelpers(t *testing.T) {
	row := map[string]any{
		"str":     "hello",
		"bytes":   []byte("world"),
		"int":     int64(42),
		"numtext": "12345",
		"float":   3.25,
		"ftext":   "0.000125",
	}

	if got := mapString(row, "str"); got != "hello" {
		t.Errorf("mapString str = %q", got)
	}
	if got := mapString(row, "bytes"); got != "world" {
		t.Errorf("mapString bytes = %q", got)
	}
	if got := mapString(row, "missing"); got != "" {
		t.Errorf("mapString missing = %q", got)
	}
	if got := mapInt(row, "int"); got != 42 {
		t.Errorf("mapInt int = %d", got)
	}
	if got := mapInt(row, "numtext"); got != 12345 {
		t.Errorf("mapInt numtext = %d", got)
	}
	if got := mapFloat(row, "float"); got != 3.25 {
		t.Errorf("mapFloat float = %v", got)
	}
	if got := mapFloat(row, "ftext"); got != 0.000125 {
		t.Errorf("mapFloat ftext = %v", got)
	}
}
