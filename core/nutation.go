package core

import "math"

// nutation returns the nutation in longitude together with the mean and true
// obliquity of the ecliptic, all in degrees, using the abridged series good
// to ~0.5".
func nutation(T float64) (deltaPsi, meanObliquity, trueObliquity float64) {
	omega := (125.04452 - 1934.136261*T) * deg2rad
	Ls := (280.4665 + 36000.7698*T) * deg2rad
	Lm := (218.3165 + 481267.8813*T) * deg2rad

	dPsi := -17.20*math.Sin(omega) - 1.32*math.Sin(2*Ls) - 0.23*math.Sin(2*Lm) + 0.21*math.Sin(2*omega)
	dEps := 9.20*math.Cos(omega) + 0.57*math.Cos(2*Ls) + 0.10*math.Cos(2*Lm) - 0.09*math.Cos(2*omega)

	eps0 := 84381.448 - 46.8150*T - 0.00059*T*T + 0.001813*T*T*T
	return dPsi / 3600, eps0 / 3600, (eps0 + dEps) / 3600
}

// eclipticToEquatorial converts ecliptic longitude/latitude to right
// ascension/declination (all degrees) for the given obliquity.
func eclipticToEquatorial(lambda, beta, obliquity float64) (raDeg, decDeg float64) {
	l := lambda * deg2rad
	b := beta * deg2rad
	e := obliquity * deg2rad

	ra := math.Atan2(math.Sin(l)*math.Cos(e)-math.Tan(b)*math.Sin(e), math.Cos(l))
	dec := math.Asin(math.Sin(b)*math.Cos(e) + math.Cos(b)*math.Sin(e)*math.Sin(l))
	return normalizeDegrees(ra * rad2deg), dec * rad2deg
}

// equatorialToEcliptic is the inverse of eclipticToEquatorial.
func equatorialToEcliptic(raDeg, decDeg, obliquity float64) (lambda, beta float64) {
	a := raDeg * deg2rad
	d := decDeg * deg2rad
	e := obliquity * deg2rad

	l := math.Atan2(math.Sin(a)*math.Cos(e)+math.Tan(d)*math.Sin(e), math.Cos(a))
	b := math.Asin(math.Sin(d)*math.Cos(e) - math.Cos(d)*math.Sin(e)*math.Sin(a))
	return normalizeDegrees(l * rad2deg), b * rad2deg
}
