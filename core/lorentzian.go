package core

import (
	"math"
	"time"
)

const (
	// SynodicMonthDays is the mean length of a lunation.
	SynodicMonthDays = 29.53058770576
	// referenceNewMoonJD is a new moon used as the origin of lunar age
	// (2000-01-06 14:24 UT).
	referenceNewMoonJD = 2451550.1
)

// LunarAgeFraction returns the fraction of the current lunation elapsed at t,
// in [0, 1): 0 is new moon and 0.5 is full moon.
func LunarAgeFraction(t time.Time) float64 {
	f := (JulianDate(t) - referenceNewMoonJD) / SynodicMonthDays
	f -= math.Floor(f)
	if f < 0 {
		f++
	}
	return f
}

// LunarAgeDays returns the Moon's age in days since the last new moon.
func LunarAgeDays(t time.Time) float64 {
	return LunarAgeFraction(t) * SynodicMonthDays
}

// LorentzianLimit applies the Lorentzian Moon-avoidance relaxation (BAIT /
// ACP formulation) to baseLimit for a Moon of the given age:
//
//	limit / (1 + ((0.5 - age/P) / (width/P))^2)
//
// where P is the synodic month. At full moon the limit is unchanged; width
// days either side of full it is halved. A width of zero disables the
// relaxation and returns baseLimit.
func LorentzianLimit(baseLimit float64, widthDays float64, ageDays float64) float64 {
	if widthDays <= 0 {
		return baseLimit
	}
	x := (0.5 - ageDays/SynodicMonthDays) / (widthDays / SynodicMonthDays)
	return baseLimit / (1 + x*x)
}

// EffectiveLimit is LorentzianLimit evaluated for the Moon's age at t.
func EffectiveLimit(baseLimit float64, widthDays int, t time.Time) float64 {
	return LorentzianLimit(baseLimit, float64(widthDays), LunarAgeDays(t))
}
