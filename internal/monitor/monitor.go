// Package monitor is the angular-separation evaluation engine. A Monitor owns
// one MonitorConfig and one MonitorState, answers "should the loop continue"
// on demand, and while bound to a running Task re-evaluates on a fixed delay
// so it can interrupt the task mid-step once its stopping condition holds.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/moonangle/core"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/watchdog"
	"github.com/signalsfoundry/moonangle/model"
	"github.com/signalsfoundry/moonangle/timectrl"
)

const tracerName = "github.com/signalsfoundry/moonangle/internal/monitor"

// Validation issues surfaced through Validate and MonitorState.Issues.
const (
	IssueNoTarget        = "No target is defined"
	IssueObserverUnknown = "Observer location is unknown"
)

// Monitor evaluates the separation predicate for one attached target.
type Monitor struct {
	id        string
	ephem     core.EphemerisProvider
	clock     timectrl.SimClock
	interval  time.Duration
	profile   ProfileSource
	weather   WeatherSource
	baseLog   logging.Logger
	log       logging.Logger
	metrics   Metrics
	observers []StateObserver
	tracer    trace.Tracer

	mu     sync.Mutex
	cfg    model.MonitorConfig
	body   model.Body
	target TargetSource
	task   Task
	state  model.MonitorState
	// generation invalidates in-flight evaluations when the target is
	// swapped or the watchdog is stopped.
	generation  uint64
	interrupted bool
	dog         *watchdog.Watchdog
	// seq orders evaluations by capture; committedSeq is the newest one
	// applied to state.
	seq          uint64
	committedSeq uint64
}

// New constructs a detached monitor. profile and weather may be nil, in
// which case the observer is unknown and weather defaults apply.
func New(profile ProfileSource, weather WeatherSource, opts ...Option) *Monitor {
	m := &Monitor{
		id:       logging.NewID(),
		ephem:    core.NewEphemeris(),
		clock:    timectrl.WallClock{},
		interval: watchdog.DefaultInterval,
		profile:  profile,
		weather:  weather,
		baseLog:  logging.Noop(),
		metrics:  noopMetrics{},
		cfg:      model.DefaultMonitorConfig(),
		body:     model.BodyMoon,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.baseLog.With(logging.String("monitor_id", m.id))
	m.state = m.emptyStateLocked()
	m.dog = watchdog.New(m.tick,
		watchdog.WithClock(m.clock),
		watchdog.WithInterval(m.interval),
		watchdog.WithLogger(m.log),
	)
	return m
}

// ID returns the monitor's identifier.
func (m *Monitor) ID() string { return m.id }

// Body returns the reference body.
func (m *Monitor) Body() model.Body {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body
}

// Config returns a copy of the current configuration record.
func (m *Monitor) Config() model.MonitorConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Configure replaces the configuration record. Out-of-range values are
// clamped. The new values take effect on the next evaluation.
func (m *Monitor) Configure(cfg model.MonitorConfig) model.MonitorConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg.Normalize()
	return m.cfg
}

// SetSeparationLimit sets the base limit, clamped to [0, 180] and rounded to two decimals.
func (m *Monitor) SetSeparationLimit(deg float64) {
	m.update(func(c *model.MonitorConfig) { c.SeparationLimit = deg })
}

// SetComparisonOperator sets the predicate operator.
func (m *Monitor) SetComparisonOperator(op model.ComparisonOperator) {
	m.update(func(c *model.MonitorConfig) { c.ComparisonOperator = op })
}

// SetLorentzianEnabled toggles the Lorentzian relaxation.
func (m *Monitor) SetLorentzianEnabled(enabled bool) {
	m.update(func(c *model.MonitorConfig) { c.LorentzianEnabled = enabled })
}

// SetLorentzianWidthDays sets the Lorentzian half-width, clamped to [0, 15].
func (m *Monitor) SetLorentzianWidthDays(days int) {
	m.update(func(c *model.MonitorConfig) { c.LorentzianWidthDays = days })
}

// SetBody switches the reference body.
func (m *Monitor) SetBody(b model.Body) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = b
}

// Reconfigure edits the configuration record and reference body in one
// step. fn works on copies; if it returns an error nothing is applied.
// Otherwise the edited record is clamped and stored together with the body.
func (m *Monitor) Reconfigure(fn func(*model.MonitorConfig, *model.Body) error) (model.MonitorConfig, model.Body, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, body := m.cfg, m.body
	if err := fn(&cfg, &body); err != nil {
		return m.cfg, m.body, err
	}
	m.cfg = cfg.Normalize()
	m.body = body
	return m.cfg, m.body, nil
}

func (m *Monitor) update(fn func(*model.MonitorConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.cfg
	fn(&cfg)
	m.cfg = cfg.Normalize()
}

// AttachTarget binds a target source and re-arms the interruption, so a
// satisfied predicate may interrupt the task once more.
func (m *Monitor) AttachTarget(target TargetSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = target
	m.generation++
	m.interrupted = false
	m.state = m.emptyStateLocked()
}

// DetachTarget drops the target, discards the state and stops the watchdog.
// Any in-flight tick is abandoned without applying its result.
func (m *Monitor) DetachTarget() {
	m.mu.Lock()
	m.target = nil
	m.generation++
	m.state = m.emptyStateLocked()
	m.mu.Unlock()

	m.dog.Stop()
}

// Start binds the monitor to task and arms the watchdog. The watchdog only
// runs while task reports itself running; Start on a task that is not
// running is a no-op and returns false.
func (m *Monitor) Start(ctx context.Context, task Task) bool {
	if task == nil || !task.Running() {
		return false
	}
	m.mu.Lock()
	m.task = task
	m.generation++
	m.interrupted = false
	m.mu.Unlock()

	ctx, _ = logging.WithMonitorLogger(ctx, m.log, m.id)
	started := m.dog.Start(ctx)
	if started {
		m.log.Debug(ctx, "watchdog started", logging.Duration("interval", m.dog.Interval()))
	}
	return started
}

// Stop halts the watchdog. No tick begins after Stop returns, and an
// in-flight tick does not apply its result.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.generation++
	m.task = nil
	m.mu.Unlock()

	m.dog.Stop()
}

// Watching reports whether the watchdog loop is active.
func (m *Monitor) Watching() bool {
	return m.dog.Running()
}

// Wait blocks until the watchdog loop has exited or ctx ends.
func (m *Monitor) Wait(ctx context.Context) error {
	return m.dog.Wait(ctx)
}

// Snapshot returns a copy of the last committed state.
func (m *Monitor) Snapshot() model.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state)
}

// Validate returns the human-readable issues that prevent evaluation.
func (m *Monitor) Validate(ctx context.Context) []string {
	m.mu.Lock()
	target := m.target
	m.mu.Unlock()

	var issues []string
	if _, ok := m.targetCoordinates(ctx, target); !ok {
		issues = append(issues, IssueNoTarget)
	}
	if _, err := m.observerProfile(ctx); err != nil {
		issues = append(issues, IssueObserverUnknown)
	}
	return issues
}

// ShouldContinue evaluates the predicate now and reports whether the owning
// loop should keep going. Without a usable target or observer it fails open
// and returns true; the reason is recorded in the state's issues.
func (m *Monitor) ShouldContinue(ctx context.Context) bool {
	state, err := m.Evaluate(ctx)
	if err != nil {
		return true
	}
	return state.ShouldContinue()
}

// String renders the last evaluation in the form used by the host UI.
func (m *Monitor) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := "MoonAngleCondition"
	if m.body == model.BodySun {
		name = "SunAngleCondition"
	}
	return fmt.Sprintf("Condition: %s, %.2f %s %.2f",
		name, m.state.ActualSeparation, m.cfg.ComparisonOperator.Symbol(), m.state.EffectiveLimit)
}

// Clone returns a new, detached monitor with the same configuration, body
// and collaborators but a fresh identity and state. State observers are not
// carried over; pass WithObserver in opts to observe the clone. opts are
// applied after the copied settings.
func (m *Monitor) Clone(opts ...Option) *Monitor {
	m.mu.Lock()
	cfg := m.cfg
	body := m.body
	m.mu.Unlock()

	base := []Option{
		WithEphemeris(m.ephem),
		WithClock(m.clock),
		WithInterval(m.interval),
		WithLogger(m.baseLog),
		WithMetrics(m.metrics),
		WithConfig(cfg),
		WithBody(body),
	}
	return New(m.profile, m.weather, append(base, opts...)...)
}

func (m *Monitor) emptyStateLocked() model.MonitorState {
	return model.MonitorState{
		MonitorID:      m.id,
		Body:           m.body,
		EffectiveLimit: m.cfg.SeparationLimit,
		Operator:       m.cfg.ComparisonOperator,
	}
}

func copyState(s model.MonitorState) model.MonitorState {
	if s.Issues != nil {
		s.Issues = append([]string(nil), s.Issues...)
	}
	return s
}
