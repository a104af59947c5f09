package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/moonangle/internal/api"
	"github.com/signalsfoundry/moonangle/internal/config"
	"github.com/signalsfoundry/moonangle/internal/host"
	"github.com/signalsfoundry/moonangle/internal/imagemeta"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/monitor"
	"github.com/signalsfoundry/moonangle/internal/observability"
	"github.com/signalsfoundry/moonangle/model"
	"github.com/signalsfoundry/moonangle/timectrl"
)

// options are the runtime knobs that do not belong in the config file.
type options struct {
	Exposure     time.Duration
	RestartDelay time.Duration
	FilePattern  string
	Clock        timectrl.SimClock
	Registry     prometheus.Registerer
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (overrides MOONANGLE_CONFIG)")
	grpcAddr := flag.String("grpc-addr", "", "TCP address the MonitorService gRPC server listens on (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	exposure := flag.Duration("exposure", 5*time.Minute, "length of each simulated exposure")
	restartDelay := flag.Duration("restart-delay", time.Minute, "pause between sequences once a sequence ends")
	filePattern := flag.String("file-pattern", "frame_$$SUNANGLE$$_$$MOONANGLE$$", "file name template for completed exposures")
	flag.Parse()

	if *configPath != "" {
		_ = os.Setenv("MOONANGLE_CONFIG", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "moonangle: %v\n", err)
		os.Exit(1)
	}
	if *grpcAddr != "" {
		cfg.GRPC.Addr = *grpcAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log := logging.New(cfg.Logging)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPC.Addr), logging.Err(err))
		os.Exit(1)
	}

	opts := options{
		Exposure:     *exposure,
		RestartDelay: *restartDelay,
		FilePattern:  *filePattern,
	}
	if err := run(ctx, cfg, opts, log, lis); err != nil {
		log.Error(ctx, "moonangle exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the monitor, its host session and the gRPC surface, and blocks
// until ctx ends or the gRPC server fails.
func run(ctx context.Context, cfg *config.Config, opts options, log logging.Logger, lis net.Listener) error {
	if opts.Clock == nil {
		opts.Clock = timectrl.WallClock{}
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	monMetrics, err := observability.NewMonitorCollector(opts.Registry)
	if err != nil {
		return fmt.Errorf("monitor metrics: %w", err)
	}
	apiMetrics, err := observability.NewAPICollector(opts.Registry)
	if err != nil {
		return fmt.Errorf("api metrics: %w", err)
	}

	profile := host.NewProfile(cfg.Profile())
	weather := host.NewWeather(cfg.Weather.Reading())
	target := &host.Target{}

	mon := monitor.New(profile, weather,
		monitor.WithClock(opts.Clock),
		monitor.WithInterval(cfg.Monitor.Interval),
		monitor.WithBody(cfg.Monitor.ParsedBody()),
		monitor.WithConfig(cfg.Monitor.Record),
		monitor.WithLogger(log),
		monitor.WithMetrics(monMetrics),
	)
	if coord, ok, _ := cfg.Target.Coordinate(); ok {
		target.Set(cfg.Target.Name, coord)
		log.Info(ctx, "target attached",
			logging.String("target", cfg.Target.Name),
			logging.String("coordinates", coord.String()),
		)
	}
	mon.AttachTarget(target)
	for _, issue := range mon.Validate(ctx) {
		log.Warn(ctx, "monitor is not ready", logging.String("issue", issue))
	}
	log.Info(ctx, "monitor configured", logging.String("monitor_id", mon.ID()), logging.String("condition", mon.String()))

	server, health := api.NewServer(api.NewMonitorService(mon, log), apiMetrics, log)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(lis)
	}()
	log.Info(ctx, "starting MonitorService gRPC server", logging.String("addr", lis.Addr().String()))

	metricsSrv := serveMetrics(cfg.Metrics, monMetrics, log)

	session := host.NewSession(opts.Clock, opts.Exposure, log)
	session.OnExposure(frameRecorder(imagemeta.NewAnnotator(nil, opts.Clock, log), target, profile, weather, opts.FilePattern, log))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sessionsDone := make(chan struct{})
	go func() {
		defer close(sessionsDone)
		runSessions(runCtx, session, mon, opts.Clock, opts.RestartDelay, log)
	}()

	var result error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			result = fmt.Errorf("grpc server: %w", err)
		}
	}

	log.Info(context.Background(), "shutting down moonangle")
	cancel()
	<-sessionsDone
	health.Shutdown()
	server.GracefulStop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return result
}

// runSessions repeats exposure sequences under mon until ctx ends.
func runSessions(ctx context.Context, session *host.Session, mon *monitor.Monitor, clock timectrl.SimClock, restartDelay time.Duration, log logging.Logger) {
	for {
		res, err := session.Run(ctx, mon, 0)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn(ctx, "sequence failed", logging.Err(err))
		} else {
			log.Info(ctx, "sequence ended",
				logging.Int("completed", res.Completed),
				logging.Int("interrupted", res.Interrupted),
				logging.String("reason", res.Reason),
				logging.String("condition", mon.String()),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-clock.After(restartDelay):
		}
	}
}

// frameRecorder annotates each completed exposure with its separation
// headers and logs the expanded file name.
func frameRecorder(annotator *imagemeta.Annotator, target monitor.TargetSource, profile monitor.ProfileSource, weather monitor.WeatherSource, pattern string, log logging.Logger) host.ExposureFunc {
	return func(ctx context.Context, started, _ time.Time) {
		frame := imagemeta.Frame{ImageType: "LIGHT", ExposureStart: started}
		if coord, ok := target.TargetCoordinates(ctx); ok {
			frame.Target = &coord
		}
		p, err := profile.ObserverProfile(ctx)
		if err != nil {
			p = model.ObserverProfile{LatitudeDeg: math.NaN(), LongitudeDeg: math.NaN()}
		}
		frame.Observer = p
		w, err := weather.Weather(ctx)
		if err != nil || !w.Connected {
			w = model.UnknownWeather()
		}
		frame.PressureHPa, frame.TemperatureC, frame.HumidityPct = w.PressureHPa, w.TemperatureC, w.HumidityPct

		fields := []logging.Field{logging.String("file", annotator.ExpandPattern(ctx, pattern, frame))}
		for _, h := range annotator.Headers(ctx, frame) {
			fields = append(fields, logging.Float(h.Keyword, h.Value))
		}
		log.Info(ctx, "frame saved", fields...)
	}
}

func serveMetrics(cfg config.MetricsConfig, collector *observability.MonitorCollector, log logging.Logger) *http.Server {
	if !cfg.Enabled || cfg.Addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", cfg.Addr))
	return srv
}
