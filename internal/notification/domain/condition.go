package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adwatchhq/adwatch/internal/change/diff"
)

// ConditionOp tags a node in the condition tree.
type ConditionOp string

const (
	OpEquals    ConditionOp = "eq"
	OpNotEquals ConditionOp = "neq"
	OpIn        ConditionOp = "in"
	OpAnd       ConditionOp = "and"
	OpOr        ConditionOp = "or"
	OpNot       ConditionOp = "not"
)

// Condition is one node of a rule's predicate tree. The shape is data-driven
// so non-technical users can author rules through the dashboard without code.
type Condition struct {
	Op ConditionOp `json:"op"`

	// Leaf ops (eq, neq, in).
	Field  string `json:"field,omitempty"`
	Value  any    `json:"value,omitempty"`
	Values []any  `json:"values,omitempty"`

	// Composite ops.
	Conditions []Condition `json:"conditions,omitempty"` // and, or
	Condition  *Condition  `json:"condition,omitempty"`  // not
}

var (
	ErrMalformedCondition = errors.New("malformed_condition")
	ErrUnknownField       = errors.New("unknown_condition_field")
)

// conditionFields are the flattened change-event attributes rules may match.
var conditionFields = map[string]bool{
	"platform":      true,
	"ad_account_id": true,
	"change_type":   true,
	"resource_type": true,
	"resource_id":   true,
	"severity":      true,
	"before_value":  true,
	"after_value":   true,
}

// ParseConditions decodes a rule's stored condition tree. Empty input means
// the rule matches every event. Two shapes are accepted: an op-tagged tree,
// or the shorthand attribute map ({"severity": "critical"}) which is read as
// an AND of equality checks.
func ParseConditions(raw []byte) (*Condition, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCondition, err)
	}

	if _, tagged := probe["op"]; !tagged {
		return parseShorthand(raw)
	}

	var cond Condition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCondition, err)
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	return &cond, nil
}

func parseShorthand(raw []byte) (*Condition, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCondition, err)
	}

	children := make([]Condition, 0, len(fields))
	for field, value := range fields {
		if list, ok := value.([]any); ok {
			children = append(children, Condition{Op: OpIn, Field: field, Values: list})
			continue
		}
		children = append(children, Condition{Op: OpEquals, Field: field, Value: value})
	}
	if len(children) == 1 {
		cond := children[0]
		if err := cond.Validate(); err != nil {
			return nil, err
		}
		return &cond, nil
	}

	cond := Condition{Op: OpAnd, Conditions: children}
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	return &cond, nil
}

// Validate checks the tree is structurally sound before evaluation.
func (c Condition) Validate() error {
	switch c.Op {
	case OpEquals, OpNotEquals:
		if c.Field == "" {
			return fmt.Errorf("%w: %s requires a field", ErrMalformedCondition, c.Op)
		}
		if !conditionFields[c.Field] {
			return fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
		}
	case OpIn:
		if c.Field == "" {
			return fmt.Errorf("%w: in requires a field", ErrMalformedCondition)
		}
		if !conditionFields[c.Field] {
			return fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: in requires values", ErrMalformedCondition)
		}
	case OpAnd, OpOr:
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%w: %s requires conditions", ErrMalformedCondition, c.Op)
		}
		for _, child := range c.Conditions {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	case OpNot:
		if c.Condition == nil {
			return fmt.Errorf("%w: not requires a condition", ErrMalformedCondition)
		}
		return c.Condition.Validate()
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformedCondition, c.Op)
	}
	return nil
}

// Evaluate returns true when the flattened event attributes satisfy the
// condition tree. A nil condition matches everything.
func (c *Condition) Evaluate(attrs map[string]any) (bool, error) {
	if c == nil {
		return true, nil
	}

	switch c.Op {
	case OpEquals:
		return diff.Equal(attrs[c.Field], c.Value), nil
	case OpNotEquals:
		return !diff.Equal(attrs[c.Field], c.Value), nil
	case OpIn:
		actual := attrs[c.Field]
		for _, candidate := range c.Values {
			if diff.Equal(actual, candidate) {
				return true, nil
			}
		}
		return false, nil
	case OpAnd:
		for _, child := range c.Conditions {
			matched, err := child.Evaluate(attrs)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil
	case OpOr:
		for _, child := range c.Conditions {
			matched, err := child.Evaluate(attrs)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		matched, err := c.Condition.Evaluate(attrs)
		if err != nil {
			return false, err
		}
		return !matched, nil
	default:
		return false, fmt.Errorf("%w: unknown op %q", ErrMalformedCondition, c.Op)
	}
}
