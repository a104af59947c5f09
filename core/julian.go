package core

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

const (
	jdJ2000       = 2451545.0 // 2000-01-01T12:00:00 TT
	jdUnixEpoch   = 2440587.5 // 1970-01-01T00:00:00Z
	secondsPerDay = 86400.0
)

// JulianDate converts an instant to a UT Julian Date. The whole-second part
// comes from go-satellite; sub-second precision is added back on top.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	return jd + float64(t.Nanosecond())/1e9/secondsPerDay
}

// TimeFromJulianDate converts a UT Julian Date back into a UTC instant.
func TimeFromJulianDate(jd float64) time.Time {
	secs := (jd - jdUnixEpoch) * secondsPerDay
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*1e9)).UTC()
}

// deltaT approximates TT - UT1 in seconds (Espenak & Meeus polynomial for
// 2005-2050, used unchanged outside that range).
func deltaT(t time.Time) float64 {
	y := float64(t.Year()) + (float64(t.YearDay())-0.5)/365.25
	u := y - 2000
	return 62.92 + 0.32217*u + 0.005589*u*u
}

// julianCenturiesTT returns Julian centuries of Terrestrial Time since J2000.0.
func julianCenturiesTT(t time.Time) float64 {
	jde := JulianDate(t) + deltaT(t)/secondsPerDay
	return (jde - jdJ2000) / 36525.0
}
