// Package host provides the in-process collaborators the binaries bind a
// monitor to: settable observer, weather and target sources, and an exposure
// Session that behaves like a "loop until" instruction set.
package host

import (
	"context"
	"sync"

	"github.com/signalsfoundry/moonangle/model"
)

// Profile is a settable monitor.ProfileSource.
type Profile struct {
	mu sync.RWMutex
	p  model.ObserverProfile
}

// NewProfile returns a profile source for the given site.
func NewProfile(p model.ObserverProfile) *Profile {
	return &Profile{p: p}
}

// ObserverProfile implements monitor.ProfileSource.
func (s *Profile) ObserverProfile(context.Context) (model.ObserverProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.p.Known() {
		return s.p, model.ErrObserverUnknown
	}
	return s.p, nil
}

// Set replaces the site.
func (s *Profile) Set(p model.ObserverProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

// Weather is a settable monitor.WeatherSource.
type Weather struct {
	mu sync.RWMutex
	w  model.WeatherReading
}

// NewWeather returns a weather source with the given reading.
func NewWeather(w model.WeatherReading) *Weather {
	return &Weather{w: w}
}

// Weather implements monitor.WeatherSource.
func (s *Weather) Weather(context.Context) (model.WeatherReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w, nil
}

// Set replaces the reading.
func (s *Weather) Set(w model.WeatherReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Disconnect marks the station offline and forgets its values.
func (s *Weather) Disconnect() {
	s.Set(model.UnknownWeather())
}

// Target is a settable monitor.TargetSource. The zero value has no target.
type Target struct {
	mu    sync.RWMutex
	name  string
	coord model.EquatorialCoordinate
	set   bool
}

// NewTarget returns a target source pointing at coord.
func NewTarget(name string, coord model.EquatorialCoordinate) *Target {
	t := &Target{}
	t.Set(name, coord)
	return t
}

// TargetCoordinates implements monitor.TargetSource.
func (t *Target) TargetCoordinates(context.Context) (model.EquatorialCoordinate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.coord, t.set
}

// Name returns the target's display name.
func (t *Target) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Set points the source at coord. NaN coordinates clear the target.
func (t *Target) Set(name string, coord model.EquatorialCoordinate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
	t.coord = coord
	t.set = coord.Valid()
}

// Clear removes the target.
func (t *Target) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = ""
	t.coord = model.EquatorialCoordinate{}
	t.set = false
}
