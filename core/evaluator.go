package core

import (
	"math"

	"github.com/signalsfoundry/moonangle/model"
)

// Round2 rounds v to two decimal places, the resolution every comparison
// and report in this package works at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Evaluate reports whether "actual op limit" holds once both sides are
// rounded to two decimals. An unrecognised operator never satisfies.
func Evaluate(actual, limit float64, op model.ComparisonOperator) bool {
	a := Round2(actual)
	l := Round2(limit)

	switch op {
	case model.LessThan:
		return a < l
	case model.LessThanOrEqual:
		return a <= l
	case model.Equal:
		return a == l
	case model.GreaterThanOrEqual:
		return a >= l
	case model.GreaterThan:
		return a > l
	case model.NotEqual:
		return a != l
	default:
		return false
	}
}
