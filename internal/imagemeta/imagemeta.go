// Package imagemeta annotates saved frames with the target's separation
// from the Sun and Moon, both as metadata headers and as filename-pattern
// tokens.
package imagemeta

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/moonangle/core"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/model"
	"github.com/signalsfoundry/moonangle/timectrl"
)

// Header keywords and pattern keys.
const (
	SunAngleKeyword  = "SUNANGLE"
	MoonAngleKeyword = "MOONANGL"

	SunAnglePattern  = "$$SUNANGLE$$"
	MoonAnglePattern = "$$MOONANGLE$$"

	PatternCategory = "Moon Angle"
)

const (
	sunAngleComment  = "[deg] Angular separation between %s and sun"
	moonAngleComment = "[deg] Angular separation between %s and moon"
)

// Pattern describes a filename-pattern token offered to the host.
type Pattern struct {
	Key         string
	Description string
	Category    string
}

// Patterns lists the tokens this package can fill.
func Patterns() []Pattern {
	return []Pattern{
		{Key: SunAnglePattern, Description: "Target's angular separation from the sun", Category: PatternCategory},
		{Key: MoonAnglePattern, Description: "Target's angular separation from the moon", Category: PatternCategory},
	}
}

// Header is one numeric metadata card.
type Header struct {
	Keyword string
	Value   float64
	Comment string
}

// Frame is the subset of saved-image metadata the annotator reads.
// Target and Telescope are nil when the host has no coordinates.
type Frame struct {
	ImageType string
	Target    *model.EquatorialCoordinate
	Telescope *model.EquatorialCoordinate
	Observer  model.ObserverProfile
	// Weather values are used when known; NaN leaves the default atmosphere.
	PressureHPa  float64
	TemperatureC float64
	HumidityPct  float64
	// ExposureStart is the evaluation instant; zero means the annotator's clock.
	ExposureStart time.Time
}

// Annotation is the computed separation pair for one frame.
type Annotation struct {
	Subject        string
	SunSeparation  float64
	MoonSeparation float64
}

// Headers renders the SUNANGLE/MOONANGL cards.
func (a Annotation) Headers() []Header {
	return []Header{
		{Keyword: SunAngleKeyword, Value: a.SunSeparation, Comment: fmt.Sprintf(sunAngleComment, a.Subject)},
		{Keyword: MoonAngleKeyword, Value: a.MoonSeparation, Comment: fmt.Sprintf(moonAngleComment, a.Subject)},
	}
}

// Tokens renders the pattern values with two decimals.
func (a Annotation) Tokens() map[string]string {
	return map[string]string{
		SunAnglePattern:  FormatToken(a.SunSeparation),
		MoonAnglePattern: FormatToken(a.MoonSeparation),
	}
}

// FormatToken formats a separation the way filename patterns expect it ("34.19").
func FormatToken(deg float64) string {
	return fmt.Sprintf("%.2f", deg)
}

// Annotator computes annotations for frames.
type Annotator struct {
	ephem core.EphemerisProvider
	clock timectrl.SimClock
	log   logging.Logger
}

// NewAnnotator builds an Annotator. A nil ephemeris selects the analytic one
// and a nil clock the wall clock.
func NewAnnotator(ephem core.EphemerisProvider, clock timectrl.SimClock, log logging.Logger) *Annotator {
	if ephem == nil {
		ephem = core.NewEphemeris()
	}
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Annotator{ephem: ephem, clock: clock, log: log}
}

// Annotate returns the separations for f, or false when the frame is a dark
// or bias, or when the relevant coordinates or observer site are unknown.
// Snapshots are measured from the telescope pointing ("center"), every other
// frame type from the target ("object").
func (a *Annotator) Annotate(ctx context.Context, f Frame) (Annotation, bool) {
	if skipImageType(f.ImageType) {
		return Annotation{}, false
	}

	subject, coords := "object", f.Target
	if f.ImageType == "SNAPSHOT" {
		subject, coords = "center", f.Telescope
	}
	if coords == nil || !coords.Valid() {
		a.log.Debug(ctx, "frame has no usable coordinates; skipping separation headers",
			logging.String("image_type", f.ImageType))
		return Annotation{}, false
	}
	if !f.Observer.Known() {
		a.log.Debug(ctx, "observer location unknown; skipping separation headers",
			logging.String("image_type", f.ImageType))
		return Annotation{}, false
	}

	observer := core.NewObserverContext(f.Observer, model.WeatherReading{
		Connected:    true,
		PressureHPa:  f.PressureHPa,
		TemperatureC: f.TemperatureC,
		HumidityPct:  f.HumidityPct,
	})
	at := f.ExposureStart
	if at.IsZero() {
		at = a.clock.Now()
	}

	return Annotation{
		Subject:        subject,
		SunSeparation:  core.TargetSeparation(a.ephem, *coords, model.BodySun, observer, at).Degrees,
		MoonSeparation: core.TargetSeparation(a.ephem, *coords, model.BodyMoon, observer, at).Degrees,
	}, true
}

// Headers is Annotate rendered as metadata cards; nil when skipped.
func (a *Annotator) Headers(ctx context.Context, f Frame) []Header {
	ann, ok := a.Annotate(ctx, f)
	if !ok {
		return nil
	}
	return ann.Headers()
}

// Tokens is Annotate rendered as pattern values; nil when skipped.
func (a *Annotator) Tokens(ctx context.Context, f Frame) map[string]string {
	ann, ok := a.Annotate(ctx, f)
	if !ok {
		return nil
	}
	return ann.Tokens()
}

// ExpandPattern replaces both tokens in a filename template. Templates are
// returned unchanged when the frame cannot be annotated.
func (a *Annotator) ExpandPattern(ctx context.Context, template string, f Frame) string {
	tokens := a.Tokens(ctx, f)
	if tokens == nil {
		return template
	}
	return strings.NewReplacer(
		SunAnglePattern, tokens[SunAnglePattern],
		MoonAnglePattern, tokens[MoonAnglePattern],
	).Replace(template)
}

func skipImageType(imageType string) bool {
	return strings.Contains(imageType, "DARK") || imageType == "BIAS"
}
