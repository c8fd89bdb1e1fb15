package workflow

import "fmt"

// Severity classifies a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is a single finding from Lint.
type Problem struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

func (p Problem) String() string {
	if p.NodeID != "" {
		return fmt.Sprintf("%s: node %q: %s", p.Severity, p.NodeID, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Severity, p.Message)
}

// Lint statically checks a workflow document and reports structural
// problems without executing anything. The evaluator itself stays
// permissive about everything Lint flags as a warning; errors mark
// documents that cannot produce a useful graph at all.
func Lint(def *Definition) []Problem {
	var problems []Problem

	seen := make(map[string]bool, len(def.Nodes))
	known := make(map[string]bool, len(def.Nodes))
	triggers := 0

	for _, nd := range def.Nodes {
		if nd.ID == "" {
			problems = append(problems, Problem{SeverityError, "", "node without an id"})
			continue
		}
		if seen[nd.ID] {
			problems = append(problems, Problem{SeverityError, nd.ID, "duplicate node id"})
		}
		seen[nd.ID] = true

		switch nd.Type {
		case NodeTypeTrigger:
			known[nd.ID] = true
			triggers++
		case NodeTypeFilter:
			known[nd.ID] = true
			problems = append(problems, lintFilter(nd)...)
		case NodeTypeAction:
			known[nd.ID] = true
			problems = append(problems, lintAction(nd)...)
		default:
			problems = append(problems, Problem{SeverityWarning, nd.ID,
				fmt.Sprintf("unknown node type %q (node will be skipped)", nd.Type)})
		}
	}

	if triggers == 0 {
		problems = append(problems, Problem{SeverityError, "",
			"no trigger node: every run will short-circuit to accept"})
	}
	if triggers > 1 {
		problems = append(problems, Problem{SeverityWarning, "",
			fmt.Sprintf("%d trigger nodes: only the first in declaration order starts a run", triggers)})
	}

	adjacency := make(map[string][]string)
	for _, cd := range def.Connections {
		if !known[cd.Source] {
			problems = append(problems, Problem{SeverityWarning, cd.Source,
				"connection source is not a usable node (connection will be dropped)"})
		}
		if !known[cd.Target] {
			problems = append(problems, Problem{SeverityWarning, cd.Target,
				"connection target is not a usable node (connection will be skipped)"})
		}
		switch cd.Condition {
		case "", "true", "false":
		default:
			problems = append(problems, Problem{SeverityWarning, cd.Source,
				fmt.Sprintf("connection condition %q is never followed", cd.Condition)})
		}
		adjacency[cd.Source] = append(adjacency[cd.Source], cd.Target)
	}

	problems = append(problems, lintReachability(def, known, adjacency)...)

	return problems
}

func lintFilter(nd NodeDefinition) []Problem {
	var problems []Problem

	switch nd.Logic {
	case "", LogicAnd, LogicOr:
	default:
		problems = append(problems, Problem{SeverityWarning, nd.ID,
			fmt.Sprintf("logic %q is not AND or OR (treated as OR)", nd.Logic)})
	}

	for i, cond := range nd.Conditions {
		if cond.Field == "" {
			problems = append(problems, Problem{SeverityWarning, nd.ID,
				fmt.Sprintf("condition %d has no field", i)})
		}
		switch cond.Operator {
		case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains,
			OperatorStartsWith, OperatorEndsWith, OperatorRegex,
			OperatorGreaterThan, OperatorLessThan:
		default:
			problems = append(problems, Problem{SeverityWarning, nd.ID,
				fmt.Sprintf("condition %d has unknown operator %q (always false)", i, cond.Operator)})
		}
	}

	return problems
}

func lintAction(nd NodeDefinition) []Problem {
	switch nd.ActionType {
	case ActionAccept, ActionReject, ActionQuarantine, ActionForward,
		ActionModifyHeaders, ActionTag:
		return nil
	}
	return []Problem{{SeverityWarning, nd.ID,
		fmt.Sprintf("unknown action_type %q (node leaves the record unchanged)", nd.ActionType)}}
}

// lintReachability flags usable nodes that can never be reached from
// the effective trigger.
func lintReachability(def *Definition, known map[string]bool, adjacency map[string][]string) []Problem {
	trigger := ""
	for _, nd := range def.Nodes {
		if nd.Type == NodeTypeTrigger {
			trigger = nd.ID
			break
		}
	}
	if trigger == "" {
		return nil
	}

	reachable := map[string]bool{trigger: true}
	queue := []string{trigger}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if known[next] && !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	var problems []Problem
	for _, nd := range def.Nodes {
		if known[nd.ID] && !reachable[nd.ID] {
			problems = append(problems, Problem{SeverityWarning, nd.ID,
				"node is unreachable from the trigger"})
		}
	}
	return problems
}
