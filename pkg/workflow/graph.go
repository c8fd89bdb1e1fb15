package workflow

import "log/slog"

// Graph is a built workflow: an arena of nodes keyed by id plus the
// identity of the trigger node discovered at build time. Connections
// hold node ids, not pointers; targets are resolved by arena lookup
// during traversal.
type Graph struct {
	name     string
	nodes    map[string]*Node
	trigger  string
	matcher  *Matcher
	logger   *slog.Logger
	observer Observer
}

// Name returns the workflow's configured name.
func (g *Graph) Name() string {
	return g.name
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// SetObserver attaches a traversal observer. Call before Run; not safe
// to change while a traversal is in flight.
func (g *Graph) SetObserver(obs Observer) {
	g.matcher.observer = obs
	g.observer = obs
}

// Run executes the graph against the initial record and returns the
// terminal record. A graph with no trigger node short-circuits to an
// accept disposition carrying an error attribute, without invoking any
// node.
func (g *Graph) Run(initial Record) Record {
	if g.trigger == "" {
		g.logger.Error("no trigger node in workflow", "workflow", g.name)
		out := initial.Clone()
		out[KeyAction] = string(ActionAccept)
		out[KeyError] = "no trigger node"
		return out
	}

	g.logger.Info("starting workflow run", "workflow", g.name)
	return g.runNode(g.nodes[g.trigger], initial.Clone(), map[string]struct{}{})
}

// runNode executes one node and walks its outgoing connections in
// configured order, threading the record through each followed branch.
// The visited set is copied per branch, so sibling branches detect
// cycles independently; a diamond-shaped graph re-executes shared
// descendants once per incoming branch.
func (g *Graph) runNode(n *Node, rec Record, visited map[string]struct{}) Record {
	if _, seen := visited[n.ID]; seen {
		g.logger.Warn("circular reference detected", "node", n.ID)
		return rec
	}
	visited[n.ID] = struct{}{}

	result := n.execute(rec, g.matcher, g.logger)
	if g.observer != nil {
		g.observer.NodeExecuted(n.Type)
	}

	for _, conn := range n.connections {
		if !followConnection(result, conn.Condition) {
			continue
		}
		target, ok := g.nodes[conn.Target]
		if !ok {
			g.logger.Warn("connection target not found",
				"source", n.ID,
				"target", conn.Target,
			)
			continue
		}
		result = g.runNode(target, result, copyVisited(visited))
	}

	return result
}

// followConnection decides whether an outgoing edge is eligible.
// Unconditional edges always are; "true"/"false" edges gate on the
// truthiness of the record's filter verdict, and any other label is
// never followed.
func followConnection(rec Record, condition string) bool {
	switch condition {
	case "":
		return true
	case "true":
		return truthy(rec[KeyFilterPassed])
	case "false":
		return !truthy(rec[KeyFilterPassed])
	}
	return false
}

func copyVisited(visited map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(visited))
	for id := range visited {
		out[id] = struct{}{}
	}
	return out
}
