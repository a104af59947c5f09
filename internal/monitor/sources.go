package monitor

import (
	"context"
	"time"

	"github.com/signalsfoundry/moonangle/model"
)

// TargetSource supplies the coordinates of the current imaging target.
// ok is false when no target is selected.
type TargetSource interface {
	TargetCoordinates(ctx context.Context) (coord model.EquatorialCoordinate, ok bool)
}

// ProfileSource supplies the static observer site.
type ProfileSource interface {
	ObserverProfile(ctx context.Context) (model.ObserverProfile, error)
}

// WeatherSource supplies live atmospheric readings. Unknown values are NaN.
type WeatherSource interface {
	Weather(ctx context.Context) (model.WeatherReading, error)
}

// Task is the long-running instruction set a monitor is bound to.
type Task interface {
	// Running reports whether the task is attached to the top-level
	// execution context and currently running.
	Running() bool
	// Interrupt asks the task to abandon its current step.
	Interrupt(ctx context.Context, reason string) error
}

// StateObserver is notified after every committed evaluation.
type StateObserver interface {
	MonitorStateChanged(state model.MonitorState)
}

// Metrics receives evaluation telemetry. *observability.MonitorCollector
// implements it.
type Metrics interface {
	ObserveEvaluation(body string, separation, limit float64, satisfied bool, d time.Duration)
	IncInterrupts(body string)
	IncEvaluationErrors(reason string)
}

// TargetFunc adapts a function to TargetSource.
type TargetFunc func(ctx context.Context) (model.EquatorialCoordinate, bool)

// TargetCoordinates implements TargetSource.
func (f TargetFunc) TargetCoordinates(ctx context.Context) (model.EquatorialCoordinate, bool) {
	return f(ctx)
}

// StaticTarget is a TargetSource that always returns the same coordinate.
type StaticTarget model.EquatorialCoordinate

// TargetCoordinates implements TargetSource.
func (s StaticTarget) TargetCoordinates(context.Context) (model.EquatorialCoordinate, bool) {
	c := model.EquatorialCoordinate(s)
	return c, c.Valid()
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(string, float64, float64, bool, time.Duration) {}
func (noopMetrics) IncInterrupts(string)                                            {}
func (noopMetrics) IncEvaluationErrors(string)                                      {}
