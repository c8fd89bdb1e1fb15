package workflow

import "fmt"

// Well-known record keys. Nodes only add or overwrite keys they own;
// nothing in the evaluator ever removes a key another node type reads.
const (
	KeyAction              = "action"
	KeyFilterPassed        = "filter_passed"
	KeyFilterResults       = "filter_results"
	KeyError               = "error"
	KeyRejectReason        = "reject_reason"
	KeyQuarantineFolder    = "quarantine_folder"
	KeyForwardTo           = "forward_to"
	KeyHeaderModifications = "header_modifications"
	KeyTags                = "tags"
)

// Record is the open attribute map threaded through a traversal. It
// starts as the extracted message fields and is progressively enriched
// by the nodes it passes through.
type Record map[string]any

// Clone returns a shallow copy of the record. Nodes clone before
// mutating so sibling branches observe the record as produced by their
// own upstream path.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String renders the value under key as a string. Missing keys resolve
// to the empty string; non-string values use their default formatting,
// so an integer size of 1024 reads back as "1024".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Action returns the disposition carried by the record, defaulting to
// accept when no action node was reached.
func (r Record) Action() ActionType {
	if s, ok := r[KeyAction].(string); ok && s != "" {
		return ActionType(s)
	}
	if a, ok := r[KeyAction].(ActionType); ok && a != "" {
		return a
	}
	return ActionAccept
}

// truthy reports whether a record value counts as true for connection
// gating: booleans read directly, absent and nil values are false, and
// everything else follows its zero value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
