package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/moonangle/model"
)

// ToEpochOfDate precesses catalog (J2000) coordinates to the true equator
// and equinox of t, applying IAU 1976 precession followed by nutation.
// Coordinates already tagged EpochOfDate are returned unchanged.
func ToEpochOfDate(c model.EquatorialCoordinate, t time.Time) model.EquatorialCoordinate {
	if c.Epoch == model.EpochOfDate {
		return c
	}
	T := julianCenturiesTT(t)
	raDeg, decDeg := precessFromJ2000(c.RADegrees(), c.DecDeg, T)

	dPsi, meanObliquity, trueObliquity := nutation(T)
	lambda, beta := equatorialToEcliptic(raDeg, decDeg, meanObliquity)
	raDeg, decDeg = eclipticToEquatorial(lambda+dPsi, beta, trueObliquity)

	return model.NewEquatorialCoordinate(raDeg/15, decDeg, model.EpochOfDate)
}

// precessFromJ2000 applies the rigorous precession rotation from J2000.0 to
// an epoch T Julian centuries later (Meeus 21.2-21.4).
func precessFromJ2000(raDeg, decDeg, T float64) (float64, float64) {
	T2 := T * T
	T3 := T2 * T
	zeta := (2306.2181*T + 0.30188*T2 + 0.017998*T3) / 3600 * deg2rad
	z := (2306.2181*T + 1.09468*T2 + 0.018203*T3) / 3600 * deg2rad
	theta := (2004.3109*T - 0.42665*T2 - 0.041833*T3) / 3600 * deg2rad

	a0 := raDeg * deg2rad
	d0 := decDeg * deg2rad

	A := math.Cos(d0) * math.Sin(a0+zeta)
	B := math.Cos(theta)*math.Cos(d0)*math.Cos(a0+zeta) - math.Sin(theta)*math.Sin(d0)
	C := math.Sin(theta)*math.Cos(d0)*math.Cos(a0+zeta) + math.Cos(theta)*math.Sin(d0)

	ra := math.Atan2(A, B) + z
	dec := math.Atan2(C, math.Hypot(A, B))
	return normalizeDegrees(ra * rad2deg), dec * rad2deg
}
