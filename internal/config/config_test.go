package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/moonangle/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moonangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 5*time.Second, cfg.Monitor.Interval)
	require.Equal(t, model.DefaultMonitorConfig(), cfg.Monitor.Record)
	require.Equal(t, model.BodyMoon, cfg.Monitor.ParsedBody())
}

func TestLoadFileHydratesAndClamps(t *testing.T) {
	path := writeConfig(t, `
observer:
  latitude: 52.5
  longitude: 13.4
  elevation: 35
weather:
  connected: true
  pressure: 990.5
target:
  name: M 31
  raHours: 0.7123
  decDeg: 41.2689
monitor:
  body: sun
  interval: 2s
  separationLimit: 190
  comparisonOperator: GREATER_THAN
  lorentzianEnabled: true
  lorentzianWidthDays: 30
grpc:
  addr: "127.0.0.1:6000"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.Equal(t, 52.5, cfg.Observer.LatitudeDeg)
	require.Equal(t, 35.0, cfg.Observer.ElevationM)
	require.Equal(t, model.BodySun, cfg.Monitor.ParsedBody())
	require.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	require.Equal(t, model.MonitorConfig{
		SeparationLimit:     180,
		ComparisonOperator:  model.GreaterThan,
		LorentzianEnabled:   true,
		LorentzianWidthDays: model.MaxLorentzianWidthDays,
	}, cfg.Monitor.Record)
	require.Equal(t, "127.0.0.1:6000", cfg.GRPC.Addr)

	// Sections absent from the file keep their defaults.
	require.Equal(t, ":9090", cfg.Metrics.Addr)
	require.Equal(t, "info", cfg.Logging.Level)

	coord, ok, err := cfg.Target.Coordinate()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.EpochJ2000, coord.Epoch)
	require.Equal(t, 41.2689, coord.DecDeg)

	w := cfg.Weather.Reading()
	require.True(t, w.Connected)
	require.Equal(t, 990.5, w.PressureHPa)
	require.True(t, math.IsNaN(w.TemperatureC), "omitted temperature should be unknown")
	require.True(t, math.IsNaN(w.HumidityPct), "omitted humidity should be unknown")
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "monitor: [unterminated"))
	require.Error(t, err)
}

func TestLoadUsesEnvOverrides(t *testing.T) {
	t.Setenv("MOONANGLE_CONFIG", writeConfig(t, `
observer:
  latitude: 10
  longitude: 20
`))
	t.Setenv("MOONANGLE_LATITUDE", "-33.5")
	t.Setenv("MOONANGLE_BODY", "sun")
	t.Setenv("MOONANGLE_SEPARATION_LIMIT", "34.186")
	t.Setenv("MOONANGLE_OPERATOR", "==")
	t.Setenv("MOONANGLE_LORENTZIAN", "true")
	t.Setenv("MOONANGLE_LORENTZIAN_WIDTH", "7")
	t.Setenv("MOONANGLE_INTERVAL", "250ms")
	t.Setenv("MOONANGLE_GRPC_ADDR", ":7000")
	t.Setenv("MOONANGLE_METRICS_ADDR", ":7001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MOONANGLE_TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, -33.5, cfg.Observer.LatitudeDeg)
	require.Equal(t, 20.0, cfg.Observer.LongitudeDeg)
	require.Equal(t, "sun", cfg.Monitor.Body)
	require.Equal(t, 250*time.Millisecond, cfg.Monitor.Interval)
	require.Equal(t, 34.19, cfg.Monitor.Record.SeparationLimit)
	require.Equal(t, model.Equal, cfg.Monitor.Record.ComparisonOperator)
	require.True(t, cfg.Monitor.Record.LorentzianEnabled)
	require.Equal(t, 7, cfg.Monitor.Record.LorentzianWidthDays)
	require.Equal(t, ":7000", cfg.GRPC.Addr)
	require.Equal(t, ":7001", cfg.Metrics.Addr)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Tracing.Enabled)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("MOONANGLE_CONFIG", writeConfig(t, "observer:\n  latitude: 10\n"))
	t.Setenv("MOONANGLE_LATITUDE", "north")
	t.Setenv("MOONANGLE_OPERATOR", "roughly")
	t.Setenv("MOONANGLE_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10.0, cfg.Observer.LatitudeDeg)
	require.Equal(t, model.DefaultComparisonOperator, cfg.Monitor.Record.ComparisonOperator)
	require.Equal(t, 5*time.Second, cfg.Monitor.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("MOONANGLE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	dec := 12.0
	cfg := Default()
	cfg.Observer.LatitudeDeg = 95
	cfg.Monitor.Body = "mars"
	cfg.Monitor.Interval = 0
	cfg.Target.DecDeg = &dec
	cfg.GRPC.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"observer.latitude",
		"monitor.body",
		"monitor.interval",
		"target.raHours and target.decDeg",
		"grpc.addr",
	} {
		require.ErrorContains(t, err, want)
	}
}

func TestTargetCoordinate(t *testing.T) {
	ra, dec, badDec := 5.5, -20.0, 91.0

	_, ok, err := TargetConfig{}.Coordinate()
	require.NoError(t, err)
	require.False(t, ok)

	coord, ok, err := TargetConfig{RAHours: &ra, DecDeg: &dec, Epoch: "jnow"}.Coordinate()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.EpochOfDate, coord.Epoch)

	_, _, err = TargetConfig{RAHours: &ra, DecDeg: &badDec}.Coordinate()
	require.Error(t, err)

	_, _, err = TargetConfig{RAHours: &ra, DecDeg: &dec, Epoch: "B1950"}.Coordinate()
	require.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "..", "configs", "moonangle.yaml"))
	require.NoError(t, err)

	_, ok, err := cfg.Target.Coordinate()
	require.NoError(t, err)
	require.True(t, ok, "shipped config should define a target")
	require.True(t, cfg.Profile().Known())
}
