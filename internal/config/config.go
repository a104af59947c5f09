// Package config loads the daemon and simulator configuration from a YAML
// file and MOONANGLE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/observability"
	"github.com/signalsfoundry/moonangle/model"
)

// DefaultPath is read when MOONANGLE_CONFIG is unset and the file exists.
const DefaultPath = "configs/moonangle.yaml"

// Config aggregates runtime configuration.
type Config struct {
	Observer ObserverConfig              `yaml:"observer"`
	Weather  WeatherConfig               `yaml:"weather"`
	Target   TargetConfig                `yaml:"target"`
	Monitor  MonitorConfig               `yaml:"monitor"`
	Logging  logging.Config              `yaml:"logging"`
	Metrics  MetricsConfig               `yaml:"metrics"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
	GRPC     GRPCConfig                  `yaml:"grpc"`
}

// ObserverConfig is the static site.
type ObserverConfig struct {
	LatitudeDeg  float64 `yaml:"latitude"`
	LongitudeDeg float64 `yaml:"longitude"` // east positive
	ElevationM   float64 `yaml:"elevation"`
}

// WeatherConfig seeds the static weather source. Omitted values are unknown.
type WeatherConfig struct {
	Connected    bool     `yaml:"connected"`
	PressureHPa  *float64 `yaml:"pressure"`
	TemperatureC *float64 `yaml:"temperature"`
	HumidityPct  *float64 `yaml:"humidity"`
}

// TargetConfig is the optional initial target. Both coordinates must be set.
type TargetConfig struct {
	Name    string   `yaml:"name"`
	RAHours *float64 `yaml:"raHours"`
	DecDeg  *float64 `yaml:"decDeg"`
	Epoch   string   `yaml:"epoch"` // J2000 (default) or JNOW
}

// MonitorConfig carries the serializable record plus engine settings.
type MonitorConfig struct {
	Body     string              `yaml:"body"`
	Interval time.Duration       `yaml:"interval"`
	Record   model.MonitorConfig `yaml:",inline"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GRPCConfig controls the MonitorService listener.
type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Observer: ObserverConfig{},
		Monitor: MonitorConfig{
			Body:     model.BodyMoon.String(),
			Interval: time.Duration(model.DefaultWatchdogIntervalSecs) * time.Second,
			Record:   model.DefaultMonitorConfig(),
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		Tracing: observability.DefaultTracingConfig(),
		GRPC:    GRPCConfig{Addr: ":50051"},
	}
}

// Load reads configuration from MOONANGLE_CONFIG (or DefaultPath when it
// exists), then applies environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("MOONANGLE_CONFIG"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(DefaultPath); err == nil {
		if err := hydrateFromFile(cfg, DefaultPath); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.Monitor.Record = cfg.Monitor.Record.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a single YAML file over the defaults without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := hydrateFromFile(cfg, path); err != nil {
		return nil, err
	}
	cfg.Monitor.Record = cfg.Monitor.Record.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = parsed
			}
		}
	}

	setFloat("MOONANGLE_LATITUDE", &cfg.Observer.LatitudeDeg)
	setFloat("MOONANGLE_LONGITUDE", &cfg.Observer.LongitudeDeg)
	setFloat("MOONANGLE_ELEVATION", &cfg.Observer.ElevationM)
	setFloat("MOONANGLE_SEPARATION_LIMIT", &cfg.Monitor.Record.SeparationLimit)

	if v := os.Getenv("MOONANGLE_BODY"); v != "" {
		cfg.Monitor.Body = v
	}
	if v := os.Getenv("MOONANGLE_OPERATOR"); v != "" {
		if op, err := model.ParseComparisonOperator(v); err == nil {
			cfg.Monitor.Record.ComparisonOperator = op
		}
	}
	if v := os.Getenv("MOONANGLE_LORENTZIAN"); v != "" {
		cfg.Monitor.Record.LorentzianEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("MOONANGLE_LORENTZIAN_WIDTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.Record.LorentzianWidthDays = parsed
		}
	}
	if v := os.Getenv("MOONANGLE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.Interval = parsed
		}
	}
	if v := os.Getenv("MOONANGLE_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("MOONANGLE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	cfg.Tracing = observability.ApplyTracingEnv(cfg.Tracing)
}

// Validate reports every problem that would prevent the monitor from running.
// Monitor limits are clamped rather than rejected, so they are not checked here.
func (c *Config) Validate() error {
	var errs []error
	if math.IsNaN(c.Observer.LatitudeDeg) || c.Observer.LatitudeDeg < -90 || c.Observer.LatitudeDeg > 90 {
		errs = append(errs, errors.New("observer.latitude must be within [-90, 90]"))
	}
	if math.IsNaN(c.Observer.LongitudeDeg) || c.Observer.LongitudeDeg < -180 || c.Observer.LongitudeDeg > 180 {
		errs = append(errs, errors.New("observer.longitude must be within [-180, 180]"))
	}
	if _, err := model.ParseBody(c.Monitor.Body); err != nil {
		errs = append(errs, fmt.Errorf("monitor.body: %w", err))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if _, _, err := c.Target.Coordinate(); err != nil {
		errs = append(errs, err)
	}
	if c.GRPC.Addr == "" {
		errs = append(errs, errors.New("grpc.addr cannot be empty"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr cannot be empty when metrics are enabled"))
	}
	return errors.Join(errs...)
}

// Profile converts the observer section.
func (c *Config) Profile() model.ObserverProfile {
	return model.ObserverProfile{
		LatitudeDeg:  c.Observer.LatitudeDeg,
		LongitudeDeg: c.Observer.LongitudeDeg,
		ElevationM:   c.Observer.ElevationM,
	}
}

// Reading converts the weather section; omitted values become NaN.
func (w WeatherConfig) Reading() model.WeatherReading {
	r := model.UnknownWeather()
	r.Connected = w.Connected
	if w.PressureHPa != nil {
		r.PressureHPa = *w.PressureHPa
	}
	if w.TemperatureC != nil {
		r.TemperatureC = *w.TemperatureC
	}
	if w.HumidityPct != nil {
		r.HumidityPct = *w.HumidityPct
	}
	return r
}

// Coordinate converts the target section. ok is false when no target is
// configured; a half-configured target is an error.
func (t TargetConfig) Coordinate() (coord model.EquatorialCoordinate, ok bool, err error) {
	if t.RAHours == nil && t.DecDeg == nil {
		return model.EquatorialCoordinate{}, false, nil
	}
	if t.RAHours == nil || t.DecDeg == nil {
		return model.EquatorialCoordinate{}, false, errors.New("target.raHours and target.decDeg must be set together")
	}
	if *t.DecDeg < -90 || *t.DecDeg > 90 {
		return model.EquatorialCoordinate{}, false, errors.New("target.decDeg must be within [-90, 90]")
	}

	var epoch model.Epoch
	switch strings.ToUpper(t.Epoch) {
	case "", "J2000":
		epoch = model.EpochJ2000
	case "JNOW":
		epoch = model.EpochOfDate
	default:
		return model.EquatorialCoordinate{}, false, fmt.Errorf("target.epoch %q must be J2000 or JNOW", t.Epoch)
	}
	return model.NewEquatorialCoordinate(*t.RAHours, *t.DecDeg, epoch), true, nil
}

// ParsedBody returns the parsed reference body. Call after Validate.
func (m MonitorConfig) ParsedBody() model.Body {
	b, _ := model.ParseBody(m.Body)
	return b
}
