package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/moonangle/model"
)

// NewObserverContext merges the static site profile with a live weather
// reading. Pressure and temperature are taken from the reading only when the
// weather source reports itself connected and the value is known (not NaN);
// otherwise the defaults of 1000 hPa and 0 °C apply.
func NewObserverContext(profile model.ObserverProfile, weather model.WeatherReading) model.ObserverLocation {
	loc := model.ObserverLocation{
		LatitudeDeg:  profile.LatitudeDeg,
		LongitudeDeg: profile.LongitudeDeg,
		ElevationM:   profile.ElevationM,
		PressureHPa:  model.DefaultPressureHPa,
		TemperatureC: model.DefaultTemperatureC,
	}
	if math.IsNaN(loc.ElevationM) {
		loc.ElevationM = 0
	}

	if weather.Connected {
		if !math.IsNaN(weather.PressureHPa) {
			loc.PressureHPa = weather.PressureHPa
		}
		if !math.IsNaN(weather.TemperatureC) {
			loc.TemperatureC = weather.TemperatureC
		}
	}
	return loc
}

// TargetSeparation measures the separation between a target and body for an
// observer at t. The target is brought to the epoch of date first so both
// ends of the measurement share a frame.
func TargetSeparation(ephem EphemerisProvider, target model.EquatorialCoordinate, body model.Body, observer model.ObserverLocation, t time.Time) model.SeparationResult {
	bodyPos := ephem.Position(t, observer, body)
	return model.SeparationResult{
		Body:       body,
		Degrees:    AngularSeparation(ToEpochOfDate(target, t), bodyPos),
		ComputedAt: t,
	}
}
