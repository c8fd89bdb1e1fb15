package workflow

import "log/slog"

// Node is one vertex of a built graph: its definition plus the ordered
// list of outgoing connections attached by the builder. Nodes are
// immutable after Build returns.
type Node struct {
	ID          string
	Type        NodeType
	def         NodeDefinition
	connections []Connection
}

// Connection is a resolved outgoing edge. Target is a node id looked up
// in the graph's arena at traversal time, never a pointer, so dangling
// targets cost a warning rather than a crash.
type Connection struct {
	Target    string
	Condition string
}

// Connections returns the node's outgoing edges in configured order.
func (n *Node) Connections() []Connection {
	return n.connections
}

// execute dispatches on the node type. Unknown types are identity
// transforms; the builder normally filters them out before they get
// here.
func (n *Node) execute(rec Record, m *Matcher, logger *slog.Logger) Record {
	switch n.Type {
	case NodeTypeTrigger:
		return n.executeTrigger(rec, logger)
	case NodeTypeFilter:
		return n.executeFilter(rec, m)
	case NodeTypeAction:
		return n.executeAction(rec, logger)
	}
	return rec
}

// executeTrigger is the graph entry point: an identity transform that
// records the arrival of a message.
func (n *Node) executeTrigger(rec Record, logger *slog.Logger) Record {
	logger.Info("trigger activated",
		"node", n.ID,
		"subject", rec.String("subject"),
	)
	return rec
}

// executeFilter evaluates every configured condition, appends the
// per-condition outcomes under KeyFilterResults, and combines them into
// KeyFilterPassed using the node's logic mode. AND over an empty
// condition list is vacuously true; OR over an empty list is false.
func (n *Node) executeFilter(rec Record, m *Matcher) Record {
	out := rec.Clone()

	results := make([]ConditionResult, 0, len(n.def.Conditions))
	for _, cond := range n.def.Conditions {
		results = append(results, ConditionResult{
			Field:    cond.Field,
			Operator: cond.Operator,
			Value:    cond.Value,
			Result:   m.Evaluate(rec, cond),
		})
	}
	out[KeyFilterResults] = results

	passed := false
	if logic(n.def.Logic) == LogicAnd {
		passed = true
		for _, r := range results {
			if !r.Result {
				passed = false
				break
			}
		}
	} else {
		for _, r := range results {
			if r.Result {
				passed = true
				break
			}
		}
	}
	out[KeyFilterPassed] = passed

	return out
}

// executeAction assigns the node's disposition and its payload
// attributes. An unrecognized action type leaves the record unchanged
// so traversal continues as if no action were taken.
func (n *Node) executeAction(rec Record, logger *slog.Logger) Record {
	out := rec.Clone()

	switch n.def.ActionType {
	case ActionReject:
		out[KeyAction] = string(ActionReject)
		reason := n.def.Reason
		if reason == "" {
			reason = "Message rejected by filter"
		}
		out[KeyRejectReason] = reason
		logger.Info("message rejected", "node", n.ID, "reason", reason)

	case ActionQuarantine:
		out[KeyAction] = string(ActionQuarantine)
		folder := n.def.Folder
		if folder == "" {
			folder = DefaultQuarantineFolder
		}
		out[KeyQuarantineFolder] = folder
		logger.Info("message quarantined", "node", n.ID, "folder", folder)

	case ActionForward:
		out[KeyAction] = string(ActionForward)
		out[KeyForwardTo] = n.def.ForwardTo
		logger.Info("message forwarded", "node", n.ID, "forward_to", n.def.ForwardTo)

	case ActionModifyHeaders:
		out[KeyAction] = string(ActionModifyHeaders)
		headers := n.def.Headers
		if headers == nil {
			headers = map[string]string{}
		}
		out[KeyHeaderModifications] = headers
		logger.Info("message headers modified", "node", n.ID, "headers", len(headers))

	case ActionAccept:
		out[KeyAction] = string(ActionAccept)
		logger.Info("message accepted", "node", n.ID)

	case ActionTag:
		out[KeyAction] = string(ActionTag)
		tags := n.def.Tags
		if tags == nil {
			tags = []string{}
		}
		out[KeyTags] = tags
		logger.Info("message tagged", "node", n.ID, "tags", tags)

	default:
		logger.Warn("unknown action type, leaving record unchanged",
			"node", n.ID,
			"action_type", n.def.ActionType,
		)
	}

	return out
}

// logic normalizes a filter node's configured logic mode. An absent
// mode defaults to AND; any other non-AND value combines with OR.
func logic(mode string) string {
	if mode == "" || mode == LogicAnd {
		return LogicAnd
	}
	return LogicOr
}
