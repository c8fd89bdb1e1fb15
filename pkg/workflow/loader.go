package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Build constructs a Graph from a workflow definition. Nodes with an
// unknown type are skipped with a warning and omitted from the arena
// entirely, so connections targeting them are treated as dangling at
// traversal time. Connections are attached after all nodes exist, which
// lets a connection reference a node declared later in the document;
// connections whose source is missing are dropped.
//
// Build never fails: a definition without a usable trigger node still
// produces a graph whose Run short-circuits to accept-with-error.
func Build(def *Definition, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Graph{
		name:    def.Name,
		nodes:   make(map[string]*Node, len(def.Nodes)),
		matcher: NewMatcher(logger),
		logger:  logger,
	}

	for _, nd := range def.Nodes {
		switch nd.Type {
		case NodeTypeTrigger, NodeTypeFilter, NodeTypeAction:
		default:
			logger.Warn("unknown node type, skipping node",
				"node", nd.ID,
				"type", nd.Type,
			)
			continue
		}
		g.nodes[nd.ID] = &Node{ID: nd.ID, Type: nd.Type, def: nd}

		// First trigger in declaration order wins. A second trigger is
		// a documented limitation, not an error; validate flags it.
		if nd.Type == NodeTypeTrigger && g.trigger == "" {
			g.trigger = nd.ID
		}
	}

	for _, cd := range def.Connections {
		src, ok := g.nodes[cd.Source]
		if !ok {
			continue
		}
		src.connections = append(src.connections, Connection{
			Target:    cd.Target,
			Condition: cd.Condition,
		})
	}

	return g
}

// DefaultDefinition returns the built-in workflow used when no
// configuration document is available: a trigger feeding an OR filter
// over two spam markers, rejecting on match and accepting otherwise.
func DefaultDefinition() *Definition {
	return &Definition{
		Name:        "Default Email Filter Workflow",
		Description: "Basic spam and security filtering",
		Nodes: []NodeDefinition{
			{ID: "trigger1", Type: NodeTypeTrigger, Name: "Email Received"},
			{
				ID:    "filter1",
				Type:  NodeTypeFilter,
				Name:  "Spam Filter",
				Logic: LogicOr,
				Conditions: []Condition{
					{Field: "subject", Operator: OperatorContains, Value: "[SPAM]"},
					{Field: "sender", Operator: OperatorContains, Value: "noreply@spam"},
				},
			},
			{
				ID:         "action1",
				Type:       NodeTypeAction,
				Name:       "Reject Spam",
				ActionType: ActionReject,
				Reason:     "Message identified as spam",
			},
			{ID: "action2", Type: NodeTypeAction, Name: "Accept Email", ActionType: ActionAccept},
		},
		Connections: []ConnectionDefinition{
			{Source: "trigger1", Target: "filter1"},
			{Source: "filter1", Target: "action1", Condition: "true"},
			{Source: "filter1", Target: "action2", Condition: "false"},
		},
	}
}

// LoadDefinition reads and parses a workflow document from path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file %q: %w", path, err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing workflow file %q: %w", path, err)
	}

	return &def, nil
}

// LoadOrDefault builds a graph from the workflow document at path,
// falling back to the built-in default when the file is missing or
// unparseable. When the file does not exist, the default document is
// written to path so operators have a starting point to edit; a failed
// write degrades to the in-memory default.
func LoadOrDefault(path string, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	def, err := LoadDefinition(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("workflow file not found, bootstrapping default", "path", path)
			def = DefaultDefinition()
			if werr := WriteDefinition(path, def); werr != nil {
				logger.Error("failed to write default workflow", "path", path, "error", werr)
			}
		} else {
			logger.Error("failed to load workflow, using default", "path", path, "error", err)
			def = DefaultDefinition()
		}
	} else {
		logger.Info("workflow configuration loaded", "path", path, "workflow", def.Name)
	}

	return Build(def, logger)
}

// WriteDefinition marshals a workflow document to path, creating parent
// directories as needed.
func WriteDefinition(path string, def *Definition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workflow: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating workflow directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing workflow file: %w", err)
	}
	return nil
}
