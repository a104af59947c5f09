package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/monitor"
	"github.com/signalsfoundry/moonangle/timectrl"
)

// ErrSessionRunning is returned by Run when the session is already running.
var ErrSessionRunning = errors.New("session already running")

// Condition is the "loop until" predicate a Session runs under. A
// *monitor.Monitor satisfies it.
type Condition interface {
	ShouldContinue(ctx context.Context) bool
	Start(ctx context.Context, task monitor.Task) bool
	Stop()
}

// Result summarises one Run.
type Result struct {
	Completed   int
	Interrupted int
	Reason      string
	Ended       time.Time
}

// ExposureFunc observes an exposure that ran to completion.
type ExposureFunc func(ctx context.Context, started, ended time.Time)

// Session repeatedly takes exposures of a fixed length until its condition
// says stop, the exposure budget is spent, or ctx ends. It implements
// monitor.Task, so a monitor's watchdog can cut an exposure short.
type Session struct {
	clock    timectrl.SimClock
	exposure time.Duration
	log      logging.Logger
	done     ExposureFunc

	mu         sync.Mutex
	running    bool
	cancelStep context.CancelFunc
	reason     string
}

// NewSession builds a session taking exposures of the given length.
func NewSession(clock timectrl.SimClock, exposure time.Duration, log logging.Logger) *Session {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Session{clock: clock, exposure: exposure, log: log}
}

// OnExposure registers fn to run after each completed exposure. Call it
// before Run.
func (s *Session) OnExposure(fn ExposureFunc) {
	s.done = fn
}

// Running implements monitor.Task.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interrupt implements monitor.Task by aborting the exposure in progress.
func (s *Session) Interrupt(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("session is not running")
	}
	s.reason = reason
	if s.cancelStep != nil {
		s.cancelStep()
	}
	return nil
}

// Run executes exposures under cond. maxExposures <= 0 means no limit.
func (s *Session) Run(ctx context.Context, cond Condition, maxExposures int) (Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{}, ErrSessionRunning
	}
	s.running = true
	s.reason = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.cancelStep = nil
		s.mu.Unlock()
		cond.Stop()
	}()

	cond.Start(ctx, s)

	var res Result
	for maxExposures <= 0 || res.Completed+res.Interrupted < maxExposures {
		if ctx.Err() != nil {
			break
		}
		if !cond.ShouldContinue(ctx) {
			s.log.Info(ctx, "loop condition met; ending session")
			break
		}
		if s.expose(ctx) {
			res.Completed++
		} else if ctx.Err() == nil {
			res.Interrupted++
		}
	}

	s.mu.Lock()
	res.Reason = s.reason
	s.mu.Unlock()
	res.Ended = s.clock.Now()
	return res, ctx.Err()
}

// expose waits out one exposure and reports whether it ran to completion.
func (s *Session) expose(ctx context.Context) bool {
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancelStep = cancel
	s.mu.Unlock()

	started := s.clock.Now()
	select {
	case <-s.clock.After(s.exposure):
		s.log.Debug(ctx, "exposure complete", logging.Duration("exposure", s.exposure))
		if s.done != nil {
			s.done(ctx, started, s.clock.Now())
		}
		return true
	case <-stepCtx.Done():
		s.log.Info(ctx, "exposure aborted")
		return false
	}
}
