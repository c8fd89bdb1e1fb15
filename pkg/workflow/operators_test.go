package workflow

import (
	"log/slog"
	"testing"
)

// TestMatcherEvaluate tests condition evaluation across all operators.
func TestMatcherEvaluate(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		cond Condition
		want bool
	}{
		{
			name: "equals case insensitive",
			rec:  Record{"from": "Alice@Example.COM"},
			cond: Condition{Field: "from", Operator: OperatorEquals, Value: "alice@example.com"},
			want: true,
		},
		{
			name: "equals mismatch",
			rec:  Record{"from": "alice@example.com"},
			cond: Condition{Field: "from", Operator: OperatorEquals, Value: "bob@example.com"},
			want: false,
		},
		{
			name: "not_equals",
			rec:  Record{"from": "alice@example.com"},
			cond: Condition{Field: "from", Operator: OperatorNotEquals, Value: "bob@example.com"},
			want: true,
		},
		{
			name: "contains case insensitive",
			rec:  Record{"subject": "Big SALE today"},
			cond: Condition{Field: "subject", Operator: OperatorContains, Value: "sale"},
			want: true,
		},
		{
			name: "not_contains",
			rec:  Record{"subject": "weekly report"},
			cond: Condition{Field: "subject", Operator: OperatorNotContains, Value: "sale"},
			want: true,
		},
		{
			name: "starts_with",
			rec:  Record{"subject": "[SPAM] buy now"},
			cond: Condition{Field: "subject", Operator: OperatorStartsWith, Value: "[spam]"},
			want: true,
		},
		{
			name: "ends_with",
			rec:  Record{"from": "user@spam.example"},
			cond: Condition{Field: "from", Operator: OperatorEndsWith, Value: "spam.example"},
			want: true,
		},
		{
			name: "regex case insensitive anywhere",
			rec:  Record{"body": "cheap VIAGRA here"},
			cond: Condition{Field: "body", Operator: OperatorRegex, Value: "viagra"},
			want: true,
		},
		{
			name: "regex anchored pattern",
			rec:  Record{"subject": "urgent: wire transfer"},
			cond: Condition{Field: "subject", Operator: OperatorRegex, Value: "^urgent"},
			want: true,
		},
		{
			name: "invalid regex is false",
			rec:  Record{"subject": "anything"},
			cond: Condition{Field: "subject", Operator: OperatorRegex, Value: "("},
			want: false,
		},
		{
			name: "greater_than numeric",
			rec:  Record{"size": 2048},
			cond: Condition{Field: "size", Operator: OperatorGreaterThan, Value: "1024"},
			want: true,
		},
		{
			name: "less_than numeric",
			rec:  Record{"size": 512},
			cond: Condition{Field: "size", Operator: OperatorLessThan, Value: "1024"},
			want: true,
		},
		{
			name: "greater_than non-numeric field is false",
			rec:  Record{"subject": "hello"},
			cond: Condition{Field: "subject", Operator: OperatorGreaterThan, Value: "10"},
			want: false,
		},
		{
			name: "less_than non-numeric value is false",
			rec:  Record{"size": 512},
			cond: Condition{Field: "size", Operator: OperatorLessThan, Value: "big"},
			want: false,
		},
		{
			name: "unknown operator is false",
			rec:  Record{"subject": "hello"},
			cond: Condition{Field: "subject", Operator: "matches_soundex", Value: "hello"},
			want: false,
		},
		{
			name: "missing field compares as empty string",
			rec:  Record{},
			cond: Condition{Field: "subject", Operator: OperatorEquals, Value: ""},
			want: true,
		},
	}

	m := NewMatcher(slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Evaluate(tt.rec, tt.cond); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFieldAliases tests that legacy field names resolve to canonical
// record keys.
func TestFieldAliases(t *testing.T) {
	rec := Record{
		"from":    "alice@example.com",
		"to":      "bob@example.com",
		"subject": "hello",
		"body":    "text",
		"size":    1234,
	}

	tests := []struct {
		field string
		want  string
	}{
		{"sender", "alice@example.com"},
		{"from", "alice@example.com"},
		{"recipient", "bob@example.com"},
		{"to", "bob@example.com"},
		{"subject", "hello"},
		{"body", "text"},
		{"size", "1234"},
		{"unknown_field", ""},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := fieldValue(rec, tt.field); got != tt.want {
				t.Errorf("fieldValue(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}
