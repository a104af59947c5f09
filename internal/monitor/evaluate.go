package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/moonangle/core"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/watchdog"
	"github.com/signalsfoundry/moonangle/model"
)

// errStale marks an evaluation whose result was discarded because the
// target or binding changed while it ran, or because a later evaluation
// committed first.
var errStale = errors.New("monitor: evaluation superseded")

// inputs is the configuration captured at the start of one evaluation.
type inputs struct {
	cfg        model.MonitorConfig
	body       model.Body
	target     TargetSource
	generation uint64
	seq        uint64
}

// Evaluate recomputes the separation and predicate at the clock's current
// instant and commits the result. Without a target it returns
// model.ErrNoTarget; without a known observer it returns
// model.ErrObserverUnknown. In both cases the committed state is
// unsatisfied and carries the matching issue.
func (m *Monitor) Evaluate(ctx context.Context) (model.MonitorState, error) {
	m.mu.Lock()
	in := m.captureLocked()
	m.mu.Unlock()

	state, err := m.evaluate(ctx, in)
	if errors.Is(err, errStale) {
		return m.Snapshot(), nil
	}
	return state, err
}

func (m *Monitor) captureLocked() inputs {
	m.seq++
	return inputs{cfg: m.cfg, body: m.body, target: m.target, generation: m.generation, seq: m.seq}
}

func (m *Monitor) evaluate(ctx context.Context, in inputs) (model.MonitorState, error) {
	ctx, span := m.tracer.Start(ctx, "monitor.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("monitor.id", m.id),
		attribute.String("monitor.body", in.body.String()),
	)

	started := time.Now()
	now := m.clock.Now()

	state := model.MonitorState{
		MonitorID:      m.id,
		Body:           in.body,
		EffectiveLimit: in.cfg.SeparationLimit,
		Operator:       in.cfg.ComparisonOperator,
		Evaluated:      true,
		EvaluatedAt:    now,
	}

	coords, ok := m.targetCoordinates(ctx, in.target)
	if !ok {
		state.Issues = []string{IssueNoTarget}
		m.log.Error(ctx, "no target is defined")
		m.metrics.IncEvaluationErrors("no_target")
		span.SetStatus(codes.Error, model.ErrNoTarget.Error())
		return m.commit(ctx, in, state, model.ErrNoTarget)
	}
	state.TargetAttached = true
	state.Target = coords

	profile, err := m.observerProfile(ctx)
	if err != nil {
		state.Issues = []string{IssueObserverUnknown}
		m.log.Warn(ctx, "observer location unavailable", logging.Err(err))
		m.metrics.IncEvaluationErrors("observer_unknown")
		span.SetStatus(codes.Error, err.Error())
		return m.commit(ctx, in, state, err)
	}
	observer := core.NewObserverContext(profile, m.currentWeather(ctx))

	sun := core.TargetSeparation(m.ephem, coords, model.BodySun, observer, now)
	moon := core.TargetSeparation(m.ephem, coords, model.BodyMoon, observer, now)
	state.SunSeparation = sun.Degrees
	state.MoonSeparation = moon.Degrees
	state.ActualSeparation = moon.Degrees
	if in.body == model.BodySun {
		state.ActualSeparation = sun.Degrees
	}

	if in.cfg.LorentzianEnabled && in.body == model.BodyMoon {
		state.EffectiveLimit = core.EffectiveLimit(in.cfg.SeparationLimit, in.cfg.LorentzianWidthDays, now)
	}
	state.Satisfied = core.Evaluate(state.ActualSeparation, state.EffectiveLimit, in.cfg.ComparisonOperator)

	m.log.Debug(ctx, "separation evaluated",
		logging.Float("separation_deg", core.Round2(state.ActualSeparation)),
		logging.Float("limit_deg", core.Round2(state.EffectiveLimit)),
		logging.String("operator", in.cfg.ComparisonOperator.Symbol()),
		logging.Bool("satisfied", state.Satisfied),
	)
	span.SetAttributes(
		attribute.Float64("monitor.separation_deg", state.ActualSeparation),
		attribute.Float64("monitor.limit_deg", state.EffectiveLimit),
		attribute.Bool("monitor.satisfied", state.Satisfied),
	)
	m.metrics.ObserveEvaluation(in.body.String(), state.ActualSeparation, state.EffectiveLimit, state.Satisfied, time.Since(started))

	return m.commit(ctx, in, state, nil)
}

// commit stores state unless the generation moved on while it was computed
// or an evaluation captured after it has already been committed. Committed
// state therefore never goes back in time.
func (m *Monitor) commit(ctx context.Context, in inputs, state model.MonitorState, err error) (model.MonitorState, error) {
	m.mu.Lock()
	if m.generation != in.generation || in.seq < m.committedSeq {
		m.mu.Unlock()
		m.log.Debug(ctx, "discarding superseded evaluation")
		return state, errStale
	}
	m.state = state
	m.committedSeq = in.seq
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		o.MonitorStateChanged(copyState(state))
	}
	return copyState(state), err
}

// tick is the watchdog body: evaluate, and interrupt the task once the
// predicate is satisfied.
func (m *Monitor) tick(ctx context.Context) error {
	m.mu.Lock()
	task := m.task
	in := m.captureLocked()
	m.mu.Unlock()

	if task == nil || !task.Running() {
		m.log.Debug(ctx, "owning task is no longer running; stopping watchdog")
		return watchdog.ErrStop
	}

	state, err := m.evaluate(ctx, in)
	switch {
	case err != nil:
		return nil
	case !state.Satisfied:
		return nil
	}

	if !m.claimInterrupt(in.generation) {
		return nil
	}

	reason := fmt.Sprintf("angular separation is outside the prescribed condition (%.2f %s %.2f) - interrupting current instruction set",
		state.ActualSeparation, in.cfg.ComparisonOperator.Symbol(), state.EffectiveLimit)
	m.log.Info(ctx, reason)
	m.metrics.IncInterrupts(in.body.String())
	if err := task.Interrupt(ctx, reason); err != nil {
		m.log.Warn(ctx, "task interrupt failed", logging.Err(err))
	}
	return watchdog.ErrStop
}

// claimInterrupt marks the armed period as spent. It fails if the period was
// already spent or the monitor was re-armed or stopped in the meantime.
func (m *Monitor) claimInterrupt(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interrupted || m.generation != generation {
		return false
	}
	m.interrupted = true
	return true
}

func (m *Monitor) targetCoordinates(ctx context.Context, target TargetSource) (model.EquatorialCoordinate, bool) {
	if target == nil {
		return model.EquatorialCoordinate{}, false
	}
	c, ok := target.TargetCoordinates(ctx)
	if !ok || !c.Valid() {
		return model.EquatorialCoordinate{}, false
	}
	return c, true
}

func (m *Monitor) observerProfile(ctx context.Context) (model.ObserverProfile, error) {
	if m.profile == nil {
		return model.ObserverProfile{}, model.ErrObserverUnknown
	}
	p, err := m.profile.ObserverProfile(ctx)
	if err != nil {
		return p, fmt.Errorf("%w: %v", model.ErrObserverUnknown, err)
	}
	if !p.Known() {
		return p, model.ErrObserverUnknown
	}
	return p, nil
}

func (m *Monitor) currentWeather(ctx context.Context) model.WeatherReading {
	if m.weather == nil {
		return model.UnknownWeather()
	}
	w, err := m.weather.Weather(ctx)
	if err != nil {
		m.log.Warn(ctx, "weather unavailable; using default atmosphere", logging.Err(err))
		return model.UnknownWeather()
	}
	return w
}
