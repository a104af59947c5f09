package model

import (
	"errors"
	"math"
)

const (
	// DefaultPressureHPa is used for refraction when no live reading is available.
	DefaultPressureHPa = 1000.0
	// DefaultTemperatureC is used for refraction when no live reading is available.
	DefaultTemperatureC = 0.0
)

// ErrObserverUnknown is returned when latitude or longitude are not known.
var ErrObserverUnknown = errors.New("observer location unknown")

// ObserverProfile is the static site configuration supplied by the profile collaborator.
type ObserverProfile struct {
	LatitudeDeg  float64
	LongitudeDeg float64 // east positive
	ElevationM   float64
}

// Known reports whether latitude and longitude are usable numbers.
func (p ObserverProfile) Known() bool {
	return !math.IsNaN(p.LatitudeDeg) && !math.IsNaN(p.LongitudeDeg)
}

// WeatherReading is a live atmospheric sample. Any value may be NaN ("unknown").
type WeatherReading struct {
	Connected    bool
	PressureHPa  float64
	TemperatureC float64
	HumidityPct  float64
}

// UnknownWeather returns a disconnected reading with every value unknown.
func UnknownWeather() WeatherReading {
	return WeatherReading{
		PressureHPa:  math.NaN(),
		TemperatureC: math.NaN(),
		HumidityPct:  math.NaN(),
	}
}

// ObserverLocation is the immutable per-evaluation snapshot used by the
// ephemeris. Build it with core.NewObserverContext.
type ObserverLocation struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	ElevationM   float64
	PressureHPa  float64
	TemperatureC float64
}
