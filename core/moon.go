package core

import "math"

// Periodic terms for the Moon's longitude/distance and latitude (Meeus,
// Astronomical Algorithms, tables 47.A and 47.B). Multiples of D, M, M', F
// followed by the sine coefficient for longitude (1e-6 deg) and the cosine
// coefficient for distance (1e-3 km).
var moonLongDistTerms = [...]struct {
	d, m, mp, f int8
	l, r        float64
}{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
	{2, 1, 0, -2, -399, 0},
	{0, 0, 2, -2, -381, -4421},
	{1, 1, 1, 0, 351, 0},
	{3, 0, -2, 0, -340, 0},
	{4, 0, -3, 0, 330, 0},
	{2, -1, 2, 0, 327, 0},
	{0, 2, 1, 0, -323, 1165},
	{1, 1, -1, 0, 299, 0},
	{2, 0, 3, 0, 294, 0},
	{2, 0, -1, -2, 0, 8752},
}

// Leading terms of table 47.B; the omitted tail is below one arcsecond.
var moonLatTerms = [...]struct {
	d, m, mp, f int8
	b           float64
}{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
	{2, 1, 0, -1, -3359},
	{2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211},
	{2, -1, -1, -1, 2065},
	{0, 1, -1, -1, -1870},
	{4, 0, -1, -1, 1828},
	{0, 1, 0, 1, -1794},
	{0, 0, 0, 3, -1749},
	{0, 1, -1, 1, -1565},
	{1, 0, 0, 1, -1491},
	{0, 1, 1, 1, -1475},
	{0, 1, 1, -1, -1410},
	{0, 1, 0, -1, -1344},
	{1, 0, 0, -1, -1335},
	{0, 0, 3, 1, 1107},
	{4, 0, 0, -1, 1021},
	{4, 0, -1, 1, 833},
}

// moonGeocentric returns the Moon's geocentric ecliptic longitude and
// latitude (degrees, mean equinox of date) and distance in kilometres for T
// Julian centuries of TT since J2000.0.
func moonGeocentric(T float64) (lambda, beta, distanceKm float64) {
	T2 := T * T
	T3 := T2 * T
	T4 := T3 * T

	Lp := normalizeDegrees(218.3164477 + 481267.88123421*T - 0.0015786*T2 + T3/538841 - T4/65194000)
	D := normalizeDegrees(297.8501921 + 445267.1114034*T - 0.0018819*T2 + T3/545868 - T4/113065000)
	M := normalizeDegrees(357.5291092 + 35999.0502909*T - 0.0001536*T2 + T3/24490000)
	Mp := normalizeDegrees(134.9633964 + 477198.8675055*T + 0.0087414*T2 + T3/69699 - T4/14712000)
	F := normalizeDegrees(93.2720950 + 483202.0175233*T - 0.0036539*T2 - T3/3526000 + T4/863310000)

	A1 := normalizeDegrees(119.75 + 131.849*T)
	A2 := normalizeDegrees(53.09 + 479264.290*T)
	A3 := normalizeDegrees(313.45 + 481266.484*T)

	// Eccentricity of Earth's orbit; terms involving M scale by E^|m|.
	E := 1 - 0.002516*T - 0.0000074*T2
	eccentricity := func(m int8) float64 {
		switch m {
		case 1, -1:
			return E
		case 2, -2:
			return E * E
		default:
			return 1
		}
	}

	var sumL, sumR, sumB float64
	for _, term := range moonLongDistTerms {
		arg := (float64(term.d)*D + float64(term.m)*M + float64(term.mp)*Mp + float64(term.f)*F) * deg2rad
		e := eccentricity(term.m)
		sumL += term.l * e * math.Sin(arg)
		sumR += term.r * e * math.Cos(arg)
	}
	for _, term := range moonLatTerms {
		arg := (float64(term.d)*D + float64(term.m)*M + float64(term.mp)*Mp + float64(term.f)*F) * deg2rad
		sumB += term.b * eccentricity(term.m) * math.Sin(arg)
	}

	// Venus, Jupiter and Earth-flattening corrections.
	sumL += 3958*math.Sin(A1*deg2rad) + 1962*math.Sin((Lp-F)*deg2rad) + 318*math.Sin(A2*deg2rad)
	sumB += -2235*math.Sin(Lp*deg2rad) +
		382*math.Sin(A3*deg2rad) +
		175*math.Sin((A1-F)*deg2rad) +
		175*math.Sin((A1+F)*deg2rad) +
		127*math.Sin((Lp-Mp)*deg2rad) -
		115*math.Sin((Lp+Mp)*deg2rad)

	lambda = normalizeDegrees(Lp + sumL/1e6)
	beta = sumB / 1e6
	distanceKm = 385000.56 + sumR/1000
	return lambda, beta, distanceKm
}
