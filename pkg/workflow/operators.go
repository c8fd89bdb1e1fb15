package workflow

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Matcher evaluates filter conditions against a record. Every
// evaluation fault (unknown operator, non-numeric comparison operand,
// invalid regex) resolves to false; evaluation never surfaces an error
// to the traversal.
type Matcher struct {
	logger   *slog.Logger
	observer Observer
}

// NewMatcher creates a condition matcher. A nil logger falls back to
// slog.Default.
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Evaluate applies a single condition to a record and returns whether
// it matched.
func (m *Matcher) Evaluate(rec Record, cond Condition) bool {
	matched := m.evaluate(fieldValue(rec, cond.Field), cond.Operator, cond.Value)
	if m.observer != nil {
		m.observer.ConditionEvaluated(cond.Operator, matched)
	}
	m.logger.Debug("condition evaluated",
		"field", cond.Field,
		"operator", cond.Operator,
		"value", cond.Value,
		"matched", matched,
	)
	return matched
}

// evaluate compares a field value against a comparison value. String
// comparisons are case-insensitive except regex, which compiles the
// comparison value as a case-insensitive pattern matched anywhere in
// the field value.
func (m *Matcher) evaluate(fieldValue string, op Operator, value string) bool {
	switch op {
	case OperatorEquals:
		return strings.EqualFold(fieldValue, value)

	case OperatorNotEquals:
		return !strings.EqualFold(fieldValue, value)

	case OperatorContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(value))

	case OperatorNotContains:
		return !strings.Contains(strings.ToLower(fieldValue), strings.ToLower(value))

	case OperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(fieldValue), strings.ToLower(value))

	case OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(fieldValue), strings.ToLower(value))

	case OperatorRegex:
		re, err := regexp.Compile("(?i)" + value)
		if err != nil {
			m.logger.Warn("invalid regex in condition", "pattern", value, "error", err)
			return false
		}
		return re.MatchString(fieldValue)

	case OperatorGreaterThan:
		a, b, err := toNumeric(fieldValue, value)
		if err != nil {
			m.logger.Warn("non-numeric operand in condition", "operator", op, "error", err)
			return false
		}
		return a > b

	case OperatorLessThan:
		a, b, err := toNumeric(fieldValue, value)
		if err != nil {
			m.logger.Warn("non-numeric operand in condition", "operator", op, "error", err)
			return false
		}
		return a < b

	default:
		m.logger.Warn("unknown operator in condition", "operator", op)
		return false
	}
}

// toNumeric parses both operands of a numeric comparison.
func toNumeric(a, b string) (float64, float64, error) {
	av, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	bv, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return av, bv, nil
}
