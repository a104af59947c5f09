package model

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

const (
	// MaxSeparationLimit is the largest meaningful great-circle separation.
	MaxSeparationLimit = 180.0
	// MaxLorentzianWidthDays bounds the Lorentzian half-width to half a synodic month.
	MaxLorentzianWidthDays = 15

	DefaultSeparationLimit      = 20.0
	DefaultLorentzianWidthDays  = 14
	DefaultComparisonOperator   = LessThanOrEqual
	DefaultWatchdogIntervalSecs = 5
)

// ErrNoTarget is reported when a separation is requested without an attached target.
var ErrNoTarget = errors.New("no target is defined")

// MonitorConfig is the serializable configuration record owned by the
// attaching caller. Out-of-range values are clamped by Normalize, never rejected.
type MonitorConfig struct {
	SeparationLimit     float64            `json:"separationLimit" yaml:"separationLimit"`
	ComparisonOperator  ComparisonOperator `json:"comparisonOperator" yaml:"comparisonOperator"`
	LorentzianEnabled   bool               `json:"lorentzianEnabled" yaml:"lorentzianEnabled"`
	LorentzianWidthDays int                `json:"lorentzianWidthDays" yaml:"lorentzianWidthDays"`
}

// DefaultMonitorConfig mirrors the defaults a freshly created condition starts with.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SeparationLimit:     DefaultSeparationLimit,
		ComparisonOperator:  DefaultComparisonOperator,
		LorentzianWidthDays: DefaultLorentzianWidthDays,
	}
}

// Normalize clamps the limit into [0, 180] rounded to two decimals and the
// Lorentzian width into [0, 15] days.
func (c MonitorConfig) Normalize() MonitorConfig {
	c.SeparationLimit = ClampSeparationLimit(c.SeparationLimit)
	c.LorentzianWidthDays = int(ClampLorentzianWidthDays(float64(c.LorentzianWidthDays)))
	if _, ok := operatorNames[c.ComparisonOperator]; !ok {
		c.ComparisonOperator = DefaultComparisonOperator
	}
	return c
}

// ClampSeparationLimit clamps v into [0, 180] and rounds it to two decimals.
// NaN collapses to 0.
func ClampSeparationLimit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > MaxSeparationLimit:
		return MaxSeparationLimit
	default:
		return math.Round(v*100) / 100
	}
}

// ClampLorentzianWidthDays clamps v into [0, 15] and rounds it to whole
// days. It is safe on values outside the int range; NaN collapses to 0.
func ClampLorentzianWidthDays(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > MaxLorentzianWidthDays:
		return MaxLorentzianWidthDays
	default:
		return math.Round(v)
	}
}

// UnmarshalJSON decodes the record and clamps it.
func (c *MonitorConfig) UnmarshalJSON(data []byte) error {
	type plain MonitorConfig
	decoded := plain(DefaultMonitorConfig())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = MonitorConfig(decoded).Normalize()
	return nil
}

// SeparationResult is a single great-circle separation measurement.
type SeparationResult struct {
	Body       Body
	Degrees    float64
	ComputedAt time.Time
}

// MonitorState is the evaluation engine's view of the condition. It is only
// ever mutated by the engine; callers receive copies.
type MonitorState struct {
	MonitorID string
	Body      Body

	TargetAttached bool
	Target         EquatorialCoordinate

	// ActualSeparation is the separation between the target and Body.
	ActualSeparation float64
	// SunSeparation and MoonSeparation are always reported when a target is attached.
	SunSeparation  float64
	MoonSeparation float64

	// EffectiveLimit equals the configured limit unless the Lorentzian
	// relaxation is enabled.
	EffectiveLimit float64
	Operator       ComparisonOperator

	Satisfied   bool
	Evaluated   bool
	EvaluatedAt time.Time
	Issues      []string
}

// ShouldContinue is the negation of Satisfied: the owning loop keeps running
// until the predicate is met.
func (s MonitorState) ShouldContinue() bool {
	return !s.Satisfied
}
