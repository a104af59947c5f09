package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Epoch tags the reference frame a coordinate is expressed in.
type Epoch int

const (
	// EpochJ2000 marks catalog coordinates referred to the J2000.0 mean equator and equinox.
	EpochJ2000 Epoch = iota
	// EpochOfDate marks coordinates referred to the true equator and equinox of the instant
	// of evaluation (JNOW).
	EpochOfDate
)

// String returns the conventional short name of the epoch.
func (e Epoch) String() string {
	switch e {
	case EpochJ2000:
		return "J2000"
	case EpochOfDate:
		return "JNOW"
	default:
		return "unknown"
	}
}

// Body identifies the reference celestial body the target is compared against.
type Body int

const (
	BodyMoon Body = iota
	BodySun
)

var ErrUnknownBody = errors.New("unknown body")

func (b Body) String() string {
	switch b {
	case BodyMoon:
		return "moon"
	case BodySun:
		return "sun"
	default:
		return "unknown"
	}
}

// ParseBody accepts "moon" or "sun" in any letter case. An empty name
// selects the Moon.
func ParseBody(s string) (Body, error) {
	switch strings.ToLower(s) {
	case "moon", "":
		return BodyMoon, nil
	case "sun":
		return BodySun, nil
	default:
		return BodyMoon, fmt.Errorf("%w: %q", ErrUnknownBody, s)
	}
}

// EquatorialCoordinate is a point on the celestial sphere. Right ascension is
// always carried in hours [0, 24) and declination in degrees [-90, 90].
type EquatorialCoordinate struct {
	RAHours float64
	DecDeg  float64
	Epoch   Epoch
}

// NewEquatorialCoordinate normalises RA into [0, 24) hours and clamps
// declination into [-90, 90] degrees.
func NewEquatorialCoordinate(raHours, decDeg float64, epoch Epoch) EquatorialCoordinate {
	ra := math.Mod(raHours, 24)
	if ra < 0 {
		ra += 24
	}
	if decDeg > 90 {
		decDeg = 90
	} else if decDeg < -90 {
		decDeg = -90
	}
	return EquatorialCoordinate{RAHours: ra, DecDeg: decDeg, Epoch: epoch}
}

// RADegrees returns right ascension in degrees [0, 360).
func (c EquatorialCoordinate) RADegrees() float64 {
	return c.RAHours * 15
}

// Valid reports whether both components are finite numbers.
func (c EquatorialCoordinate) Valid() bool {
	return !math.IsNaN(c.RAHours) && !math.IsNaN(c.DecDeg) &&
		!math.IsInf(c.RAHours, 0) && !math.IsInf(c.DecDeg, 0)
}

func (c EquatorialCoordinate) String() string {
	return fmt.Sprintf("RA %.4fh Dec %+.4f° (%s)", c.RAHours, c.DecDeg, c.Epoch)
}
