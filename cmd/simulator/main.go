package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/signalsfoundry/moonangle/core"
	"github.com/signalsfoundry/moonangle/internal/config"
	"github.com/signalsfoundry/moonangle/internal/host"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/monitor"
	"github.com/signalsfoundry/moonangle/model"
	"github.com/signalsfoundry/moonangle/timectrl"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file providing observer, target and monitor settings")
	startFlag := flag.String("start", "", "replay start time (RFC3339); defaults to the current hour")
	duration := flag.Duration("duration", 8*time.Hour, "total replay duration")
	tick := flag.Duration("tick", 15*time.Minute, "simulated time between evaluations")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	raHours := flag.Float64("ra", math.NaN(), "target right ascension in hours (J2000), overrides config")
	decDeg := flag.Float64("dec", math.NaN(), "target declination in degrees (J2000), overrides config")
	body := flag.String("body", "", "reference body: moon or sun (overrides config)")
	limit := flag.Float64("limit", math.NaN(), "separation limit in degrees (overrides config)")
	operator := flag.String("operator", "", "comparison operator, e.g. LESS_THAN_OR_EQUAL or <= (overrides config)")
	lorentzian := flag.Bool("lorentzian", false, "enable the Lorentzian limit relaxation")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}

	start := time.Now().UTC().Truncate(time.Hour)
	if *startFlag != "" {
		parsed, err := time.Parse(time.RFC3339, *startFlag)
		if err != nil {
			fail(fmt.Errorf("parse -start: %w", err))
		}
		start = parsed
	}

	record := cfg.Monitor.Record
	if !math.IsNaN(*limit) {
		record.SeparationLimit = *limit
	}
	if *operator != "" {
		op, err := model.ParseComparisonOperator(*operator)
		if err != nil {
			fail(err)
		}
		record.ComparisonOperator = op
	}
	if *lorentzian {
		record.LorentzianEnabled = true
	}
	refBody := cfg.Monitor.ParsedBody()
	if *body != "" {
		b, err := model.ParseBody(*body)
		if err != nil {
			fail(err)
		}
		refBody = b
	}

	target, ok, err := cfg.Target.Coordinate()
	if err != nil {
		fail(err)
	}
	if !math.IsNaN(*raHours) && !math.IsNaN(*decDeg) {
		target, ok = model.NewEquatorialCoordinate(*raHours, *decDeg, model.EpochJ2000), true
	}
	if !ok {
		fail(fmt.Errorf("no target: set -ra and -dec or target in the config file"))
	}

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(start, *tick, mode)

	mon := monitor.New(host.NewProfile(cfg.Profile()), host.NewWeather(cfg.Weather.Reading()),
		monitor.WithClock(tc),
		monitor.WithEphemeris(core.NewEphemeris()),
		monitor.WithBody(refBody),
		monitor.WithConfig(record),
		monitor.WithLogger(logging.New(logging.Config{Level: "warn", Format: "text", Output: os.Stderr})),
	)
	mon.AttachTarget(monitor.StaticTarget(target))

	fmt.Printf("Starting replay: target=%s body=%s duration=%s tick=%s mode=%v\n", target, refBody, *duration, *tick, mode)
	summary := replay(context.Background(), os.Stdout, mon, tc, *duration)
	fmt.Printf("Replay complete: %d evaluations, separation range %.2f..%.2f deg\n", summary.Ticks, summary.MinSeparation, summary.MaxSeparation)
	if summary.Met.IsZero() {
		fmt.Println("Condition never met.")
	}
}

type replaySummary struct {
	Ticks         int
	Met           time.Time
	MinSeparation float64
	MaxSeparation float64
}

// replay evaluates mon on every controller tick, printing one line per
// evaluation and the instant the condition is first met.
func replay(ctx context.Context, out io.Writer, mon *monitor.Monitor, tc *timectrl.TimeController, duration time.Duration) replaySummary {
	summary := replaySummary{MinSeparation: math.Inf(1), MaxSeparation: math.Inf(-1)}

	tc.AddListener(func(simTime time.Time) {
		state, err := mon.Evaluate(ctx)
		summary.Ticks++
		if err != nil {
			fmt.Fprintf(out, "[%s] evaluation failed: %v\n", simTime.Format(time.RFC3339), err)
			return
		}

		summary.MinSeparation = math.Min(summary.MinSeparation, state.ActualSeparation)
		summary.MaxSeparation = math.Max(summary.MaxSeparation, state.ActualSeparation)
		fmt.Fprintf(out, "[%s] moon=%6.2f sun=%6.2f limit=%6.2f %-2s satisfied=%v\n",
			simTime.Format(time.RFC3339),
			state.MoonSeparation,
			state.SunSeparation,
			state.EffectiveLimit,
			state.Operator.Symbol(),
			state.Satisfied,
		)
		if state.Satisfied && summary.Met.IsZero() {
			summary.Met = simTime
			fmt.Fprintf(out, "↳ condition met at %s (%s)\n", simTime.Format(time.RFC3339), mon)
		}
	})

	<-tc.Start(duration)
	return summary
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
	os.Exit(1)
}
