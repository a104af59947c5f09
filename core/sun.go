package core

import "math"

const (
	auKm = 149597870.7
	// aberrationConstantArcsec is the constant of annual aberration.
	aberrationConstantArcsec = 20.4898
)

// sunGeocentric returns the Sun's geometric ecliptic longitude (degrees,
// mean equinox of date) and distance in AU for T Julian centuries of TT.
// Accuracy is about 0.01°.
func sunGeocentric(T float64) (lambda, distanceAU float64) {
	T2 := T * T
	L0 := normalizeDegrees(280.46646 + 36000.76983*T + 0.0003032*T2)
	M := normalizeDegrees(357.52911 + 35999.05029*T - 0.0001537*T2)
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T2

	Mr := M * deg2rad
	C := (1.914602-0.004817*T-0.000014*T2)*math.Sin(Mr) +
		(0.019993-0.000101*T)*math.Sin(2*Mr) +
		0.000289*math.Sin(3*Mr)

	nu := (M + C) * deg2rad
	distanceAU = 1.000001018 * (1 - e*e) / (1 + e*math.Cos(nu))
	return normalizeDegrees(L0 + C), distanceAU
}
