package model

import (
	"errors"
	"fmt"
)

// ComparisonOperator selects how the actual separation is compared to the limit.
type ComparisonOperator int

const (
	LessThan ComparisonOperator = iota
	LessThanOrEqual
	Equal
	GreaterThanOrEqual
	GreaterThan
	NotEqual
)

// ErrUnknownOperator is returned when an operator name cannot be parsed.
var ErrUnknownOperator = errors.New("unknown comparison operator")

var operatorNames = map[ComparisonOperator]string{
	LessThan:           "LESS_THAN",
	LessThanOrEqual:    "LESS_THAN_OR_EQUAL",
	Equal:              "EQUALS",
	GreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	GreaterThan:        "GREATER_THAN",
	NotEqual:           "NOT_EQUAL",
}

// ComparisonOperators lists every operator in declaration order.
func ComparisonOperators() []ComparisonOperator {
	return []ComparisonOperator{LessThan, LessThanOrEqual, Equal, GreaterThanOrEqual, GreaterThan, NotEqual}
}

// String returns the wire name of the operator.
func (op ComparisonOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("ComparisonOperator(%d)", int(op))
}

// Symbol returns the mathematical symbol used in log lines and summaries.
func (op ComparisonOperator) Symbol() string {
	switch op {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "="
	case GreaterThanOrEqual:
		return ">="
	case GreaterThan:
		return ">"
	case NotEqual:
		return "!="
	default:
		return ""
	}
}

// ParseComparisonOperator accepts wire names ("LESS_THAN_OR_EQUAL"), the
// alias "EQUAL", or symbols ("<=", "==").
func ParseComparisonOperator(s string) (ComparisonOperator, error) {
	for op, name := range operatorNames {
		if s == name || s == op.Symbol() {
			return op, nil
		}
	}
	switch s {
	case "EQUAL", "==":
		return Equal, nil
	}
	return LessThanOrEqual, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// MarshalText implements encoding.TextMarshaler.
func (op ComparisonOperator) MarshalText() ([]byte, error) {
	name, ok := operatorNames[op]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperator, int(op))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *ComparisonOperator) UnmarshalText(text []byte) error {
	parsed, err := ParseComparisonOperator(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
