package workflow

import (
	"log/slog"
	"reflect"
	"testing"
)

func filterNode(logicMode string, conds ...Condition) *Node {
	return &Node{
		ID:   "filter1",
		Type: NodeTypeFilter,
		def: NodeDefinition{
			ID:         "filter1",
			Type:       NodeTypeFilter,
			Logic:      logicMode,
			Conditions: conds,
		},
	}
}

// TestExecuteFilterLogic tests combining condition results under the
// configured logic mode.
func TestExecuteFilterLogic(t *testing.T) {
	spam := Condition{Field: "subject", Operator: OperatorContains, Value: "[SPAM]"}
	badSender := Condition{Field: "sender", Operator: OperatorContains, Value: "noreply@spam"}

	tests := []struct {
		name       string
		logic      string
		conds      []Condition
		rec        Record
		wantPassed bool
	}{
		{
			name:       "AND all match",
			logic:      "AND",
			conds:      []Condition{spam, badSender},
			rec:        Record{"subject": "[SPAM] offer", "from": "noreply@spam.example"},
			wantPassed: true,
		},
		{
			name:       "AND one fails",
			logic:      "AND",
			conds:      []Condition{spam, badSender},
			rec:        Record{"subject": "[SPAM] offer", "from": "alice@example.com"},
			wantPassed: false,
		},
		{
			name:       "OR one matches",
			logic:      "OR",
			conds:      []Condition{spam, badSender},
			rec:        Record{"subject": "hello", "from": "noreply@spam.example"},
			wantPassed: true,
		},
		{
			name:       "OR none match",
			logic:      "OR",
			conds:      []Condition{spam, badSender},
			rec:        Record{"subject": "hello", "from": "alice@example.com"},
			wantPassed: false,
		},
		{
			name:       "empty logic defaults to AND",
			logic:      "",
			conds:      []Condition{spam},
			rec:        Record{"subject": "[SPAM] offer"},
			wantPassed: true,
		},
		{
			name:       "unrecognized logic combines with OR",
			logic:      "ANY",
			conds:      []Condition{spam, badSender},
			rec:        Record{"subject": "hello", "from": "noreply@spam.example"},
			wantPassed: true,
		},
		{
			name:       "AND over no conditions is vacuously true",
			logic:      "AND",
			conds:      nil,
			rec:        Record{"subject": "hello"},
			wantPassed: true,
		},
		{
			name:       "OR over no conditions is false",
			logic:      "OR",
			conds:      nil,
			rec:        Record{"subject": "hello"},
			wantPassed: false,
		},
	}

	m := NewMatcher(slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := filterNode(tt.logic, tt.conds...)
			out := n.executeFilter(tt.rec, m)

			passed, ok := out[KeyFilterPassed].(bool)
			if !ok {
				t.Fatalf("record missing %q", KeyFilterPassed)
			}
			if passed != tt.wantPassed {
				t.Errorf("filter_passed = %v, want %v", passed, tt.wantPassed)
			}

			results, ok := out[KeyFilterResults].([]ConditionResult)
			if !ok {
				t.Fatalf("record missing %q", KeyFilterResults)
			}
			if len(results) != len(tt.conds) {
				t.Errorf("got %d condition results, want %d", len(results), len(tt.conds))
			}
		})
	}
}

// TestExecuteFilterResetsResults tests that a filter node starts from a
// fresh result list instead of appending to an upstream filter's.
func TestExecuteFilterResetsResults(t *testing.T) {
	m := NewMatcher(slog.Default())
	n := filterNode("OR", Condition{Field: "subject", Operator: OperatorContains, Value: "x"})

	rec := Record{
		"subject":        "x marks the spot",
		KeyFilterResults: []ConditionResult{{Field: "stale", Result: true}},
	}
	out := n.executeFilter(rec, m)

	results := out[KeyFilterResults].([]ConditionResult)
	if len(results) != 1 || results[0].Field != "subject" {
		t.Errorf("filter_results = %+v, want single fresh result for subject", results)
	}
}

// TestExecuteAction tests disposition assignment and payload attributes
// for every action type.
func TestExecuteAction(t *testing.T) {
	tests := []struct {
		name     string
		def      NodeDefinition
		wantKeys map[string]any
	}{
		{
			name: "reject with reason",
			def:  NodeDefinition{ActionType: ActionReject, Reason: "spam detected"},
			wantKeys: map[string]any{
				KeyAction:       "reject",
				KeyRejectReason: "spam detected",
			},
		},
		{
			name: "reject default reason",
			def:  NodeDefinition{ActionType: ActionReject},
			wantKeys: map[string]any{
				KeyAction:       "reject",
				KeyRejectReason: "Message rejected by filter",
			},
		},
		{
			name: "quarantine with folder",
			def:  NodeDefinition{ActionType: ActionQuarantine, Folder: "/tmp/q"},
			wantKeys: map[string]any{
				KeyAction:           "quarantine",
				KeyQuarantineFolder: "/tmp/q",
			},
		},
		{
			name: "quarantine default folder",
			def:  NodeDefinition{ActionType: ActionQuarantine},
			wantKeys: map[string]any{
				KeyAction:           "quarantine",
				KeyQuarantineFolder: DefaultQuarantineFolder,
			},
		},
		{
			name: "forward",
			def:  NodeDefinition{ActionType: ActionForward, ForwardTo: "audit@example.com"},
			wantKeys: map[string]any{
				KeyAction:    "forward",
				KeyForwardTo: "audit@example.com",
			},
		},
		{
			name: "modify_headers",
			def:  NodeDefinition{ActionType: ActionModifyHeaders, Headers: map[string]string{"X-Filtered": "yes"}},
			wantKeys: map[string]any{
				KeyAction:              "modify_headers",
				KeyHeaderModifications: map[string]string{"X-Filtered": "yes"},
			},
		},
		{
			name: "tag",
			def:  NodeDefinition{ActionType: ActionTag, Tags: []string{"newsletter"}},
			wantKeys: map[string]any{
				KeyAction: "tag",
				KeyTags:   []string{"newsletter"},
			},
		},
		{
			name: "accept",
			def:  NodeDefinition{ActionType: ActionAccept},
			wantKeys: map[string]any{
				KeyAction: "accept",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{ID: "action1", Type: NodeTypeAction, def: tt.def}
			out := n.executeAction(Record{"subject": "hello"}, slog.Default())

			for k, want := range tt.wantKeys {
				if got := out[k]; !reflect.DeepEqual(got, want) {
					t.Errorf("record[%q] = %v, want %v", k, got, want)
				}
			}
			// The input attributes survive.
			if out["subject"] != "hello" {
				t.Errorf("input attribute lost: subject = %v", out["subject"])
			}
		})
	}
}

// TestExecuteActionUnknownType tests that an unrecognized action type
// leaves the record unchanged.
func TestExecuteActionUnknownType(t *testing.T) {
	n := &Node{ID: "action1", Type: NodeTypeAction, def: NodeDefinition{ActionType: "archive"}}
	in := Record{"subject": "hello"}
	out := n.executeAction(in, slog.Default())

	if _, ok := out[KeyAction]; ok {
		t.Errorf("unknown action type set %q = %v", KeyAction, out[KeyAction])
	}
	if out.Action() != ActionAccept {
		t.Errorf("Action() = %v, want default accept", out.Action())
	}
}

// TestExecuteActionDoesNotMutateInput tests that action execution works
// on a copy of the incoming record.
func TestExecuteActionDoesNotMutateInput(t *testing.T) {
	n := &Node{ID: "action1", Type: NodeTypeAction, def: NodeDefinition{ActionType: ActionReject}}
	in := Record{"subject": "hello"}
	n.executeAction(in, slog.Default())

	if _, ok := in[KeyAction]; ok {
		t.Error("input record was mutated")
	}
}
