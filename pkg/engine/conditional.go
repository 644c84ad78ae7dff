package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// TagConditional is the tag of the conditional command.
const TagConditional = "if"

// Operator is a comparison operator of a condition expression.
type Operator string

const (
	OpEqual       Operator = "=="
	OpNotEqual    Operator = "!="
	OpGreaterEq   Operator = ">="
	OpLessEq      Operator = "<="
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpContains    Operator = "contains"
	OpNotContains Operator = "!contains"
)

// conditionPattern splits "lhs OP rhs". The left operand is matched lazily
// so that the earliest operator in the text wins: "a !contains b" yields
// !contains, not contains with a trailing "!" on the left side. Longer
// operators precede their prefixes in the alternation.
var conditionPattern = regexp.MustCompile(`^(.+?)\s*(==|>=|<=|!=|!contains|contains|<|>)\s*(.+)$`)

// Condition is a parsed comparison.
type Condition struct {
	LHS      string
	Operator Operator
	RHS      string
}

// ParseCondition parses an already expanded condition expression. Both
// operands are trimmed.
func ParseCondition(expr string) (Condition, error) {
	m := conditionPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Condition{}, NewConfigurationError(fmt.Sprintf("invalid condition %q", expr), nil).
			WithTag(TagConditional).
			WithCode(ErrCodeInvalidCondition)
	}
	return Condition{
		LHS:      strings.TrimSpace(m[1]),
		Operator: Operator(m[2]),
		RHS:      strings.TrimSpace(m[3]),
	}, nil
}

// Evaluate compares the operands as strings. Ordering operators compare
// lexicographically by bytes, so "10" < "9".
func (c Condition) Evaluate() (bool, error) {
	switch c.Operator {
	case OpEqual:
		return c.LHS == c.RHS, nil
	case OpNotEqual:
		return c.LHS != c.RHS, nil
	case OpGreaterEq:
		return c.LHS >= c.RHS, nil
	case OpLessEq:
		return c.LHS <= c.RHS, nil
	case OpGreater:
		return c.LHS > c.RHS, nil
	case OpLess:
		return c.LHS < c.RHS, nil
	case OpContains:
		return strings.Contains(c.LHS, c.RHS), nil
	case OpNotContains:
		return !strings.Contains(c.LHS, c.RHS), nil
	default:
		return false, NewInternalError(fmt.Sprintf("unsupported operator %q", c.Operator), nil).
			WithTag(TagConditional).
			WithCode(ErrCodeInternal)
	}
}

type conditionalPayload struct {
	Condition string `json:"condition" validate:"required" template:"expand"`
	Run       Tree   `json:"run"`
	Else      Tree   `json:"else"`
}

// ConditionalCommand evaluates a condition and renders one of two branches
// with the same action. A missing branch renders as an empty tree.
type ConditionalCommand struct{}

// Execute implements Command.
func (ConditionalCommand) Execute(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error) {
	var p conditionalPayload
	if err := DecodePayload(s, TagConditional, payload, &p); err != nil {
		return false, err
	}

	cond, err := ParseCondition(p.Condition)
	if err != nil {
		return false, err
	}
	matched, err := cond.Evaluate()
	if err != nil {
		return false, err
	}

	s.logger.Debug().
		Str("lhs", cond.LHS).
		Str("op", string(cond.Operator)).
		Str("rhs", cond.RHS).
		Bool("matched", matched).
		Msg("Evaluated condition")

	if matched {
		return s.Render(ctx, p.Run, action)
	}
	return s.Render(ctx, p.Else, action)
}
