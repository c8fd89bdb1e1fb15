package workflow

// NodeType identifies the behavior of a workflow node.
type NodeType string

const (
	NodeTypeTrigger NodeType = "trigger"
	NodeTypeFilter  NodeType = "filter"
	NodeTypeAction  NodeType = "action"
)

// ActionType is the disposition an action node assigns to a message.
type ActionType string

const (
	ActionAccept        ActionType = "accept"
	ActionReject        ActionType = "reject"
	ActionQuarantine    ActionType = "quarantine"
	ActionForward       ActionType = "forward"
	ActionModifyHeaders ActionType = "modify_headers"
	ActionTag           ActionType = "tag"
)

// Operator is a comparison operator usable in filter conditions.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
	OperatorRegex       Operator = "regex"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
)

// Logic modes for combining filter condition results.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// DefaultQuarantineFolder is used by quarantine actions that do not
// configure a folder of their own.
const DefaultQuarantineFolder = "/var/mail/quarantine"

// Definition is the JSON-shaped workflow document loaded from disk.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Nodes       []NodeDefinition       `json:"nodes"`
	Connections []ConnectionDefinition `json:"connections"`
}

// NodeDefinition describes one node of a workflow document. The Type
// field discriminates which of the remaining fields are meaningful:
// filter nodes read Logic and Conditions, action nodes read ActionType
// and its payload fields.
type NodeDefinition struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Name string   `json:"name,omitempty"`

	// Filter configuration.
	Logic      string      `json:"logic,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`

	// Action configuration.
	ActionType ActionType        `json:"action_type,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Folder     string            `json:"folder,omitempty"`
	ForwardTo  string            `json:"forward_to,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
}

// Condition is a single field comparison inside a filter node.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// ConnectionDefinition is a directed edge in a workflow document.
// Condition is "true", "false", or empty for an unconditional edge.
type ConnectionDefinition struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
}

// ConditionResult records the outcome of a single evaluated condition.
// Filter nodes append one per configured condition to the record under
// KeyFilterResults.
type ConditionResult struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Result   bool     `json:"result"`
}

// Observer receives traversal events for telemetry. A nil Observer on a
// Graph disables event reporting. Implementations must be safe for
// concurrent use when a Graph serves more than one message at a time.
type Observer interface {
	NodeExecuted(nodeType NodeType)
	ConditionEvaluated(op Operator, matched bool)
}
