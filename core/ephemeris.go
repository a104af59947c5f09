package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/moonangle/model"
)

// EphemerisProvider computes the apparent position of a reference body as
// seen by an observer at a given instant.
type EphemerisProvider interface {
	Position(t time.Time, observer model.ObserverLocation, body model.Body) model.EquatorialCoordinate
}

// Ephemeris is the analytic Sun/Moon ephemeris. It is stateless and safe for
// concurrent use; the same instant and observer always produce the same result.
type Ephemeris struct{}

// NewEphemeris constructs the analytic ephemeris.
func NewEphemeris() *Ephemeris {
	return &Ephemeris{}
}

// Position returns the topocentric, refraction-corrected right ascension and
// declination of body, referred to the true equator and equinox of t.
// Passing a body other than the Sun or Moon is a programming error.
func (e *Ephemeris) Position(t time.Time, observer model.ObserverLocation, body model.Body) model.EquatorialCoordinate {
	raDeg, decDeg, distanceKm := geocentricApparent(julianCenturiesTT(t), body)

	jd := JulianDate(t)
	raDeg, decDeg = topocentric(raDeg, decDeg, distanceKm, jd, observer)
	raDeg, decDeg = refract(raDeg, decDeg, jd, observer)

	return model.NewEquatorialCoordinate(raDeg/15, decDeg, model.EpochOfDate)
}

// GeocentricPosition returns the apparent geocentric position of body and
// its distance in kilometres.
func GeocentricPosition(t time.Time, body model.Body) (model.EquatorialCoordinate, float64) {
	raDeg, decDeg, distanceKm := geocentricApparent(julianCenturiesTT(t), body)
	return model.NewEquatorialCoordinate(raDeg/15, decDeg, model.EpochOfDate), distanceKm
}

func geocentricApparent(T float64, body model.Body) (raDeg, decDeg, distanceKm float64) {
	dPsi, _, obliquity := nutation(T)

	switch body {
	case model.BodyMoon:
		lambda, beta, dist := moonGeocentric(T)
		raDeg, decDeg = eclipticToEquatorial(lambda+dPsi, beta, obliquity)
		return raDeg, decDeg, dist
	case model.BodySun:
		lambda, distAU := sunGeocentric(T)
		lambda += dPsi - aberrationConstantArcsec/3600/distAU
		raDeg, decDeg = eclipticToEquatorial(lambda, 0, obliquity)
		return raDeg, decDeg, distAU * auKm
	default:
		panic(fmt.Sprintf("core: no ephemeris for body %v", body))
	}
}

// topocentric shifts a geocentric position to the observer's site, which
// matters for the Moon (up to ~1°) and is negligible for the Sun.
func topocentric(raDeg, decDeg, distanceKm, jd float64, observer model.ObserverLocation) (float64, float64) {
	geo := sphericalToVec3(raDeg*deg2rad, decDeg*deg2rad, distanceKm)

	site := satellite.LLAToECI(satellite.LatLong{
		Latitude:  observer.LatitudeDeg * deg2rad,
		Longitude: observer.LongitudeDeg * deg2rad,
	}, observer.ElevationM/1000, jd)

	theta, phi := vec3ToSpherical(geo.Sub(Vec3{X: site.X, Y: site.Y, Z: site.Z}))
	return theta * rad2deg, phi * rad2deg
}

// refract lifts a position by atmospheric refraction for the observer's
// pressure and temperature. Positions more than one degree below the horizon,
// or a zero pressure, are returned unchanged.
func refract(raDeg, decDeg, jd float64, observer model.ObserverLocation) (float64, float64) {
	if observer.PressureHPa <= 0 {
		return raDeg, decDeg
	}

	lst := satellite.ThetaG_JD(jd) + observer.LongitudeDeg*deg2rad
	lat := observer.LatitudeDeg * deg2rad
	hourAngle := lst - raDeg*deg2rad
	dec := decDeg * deg2rad

	// Azimuth measured westward from south.
	az := math.Atan2(math.Cos(dec)*math.Sin(hourAngle),
		math.Cos(dec)*math.Cos(hourAngle)*math.Sin(lat)-math.Sin(dec)*math.Cos(lat))
	alt := math.Asin(math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(hourAngle))

	altDeg := alt * rad2deg
	if altDeg < -1 {
		return raDeg, decDeg
	}
	alt = (altDeg + refractionArcmin(altDeg, observer.PressureHPa, observer.TemperatureC)/60) * deg2rad

	hourAngle = math.Atan2(math.Cos(alt)*math.Sin(az),
		math.Cos(alt)*math.Cos(az)*math.Sin(lat)+math.Sin(alt)*math.Cos(lat))
	dec = math.Asin(math.Sin(lat)*math.Sin(alt) - math.Cos(lat)*math.Cos(alt)*math.Cos(az))

	return normalizeDegrees((lst - hourAngle) * rad2deg), dec * rad2deg
}

// refractionArcmin is Saemundsson's formula for the refraction of an object
// at true altitude altDeg, scaled for pressure (hPa) and temperature (°C).
func refractionArcmin(altDeg, pressureHPa, temperatureC float64) float64 {
	if temperatureC <= -273 {
		temperatureC = model.DefaultTemperatureC
	}
	r := 1.02 / math.Tan((altDeg+10.3/(altDeg+5.11))*deg2rad)
	if r < 0 {
		return 0
	}
	return r * (pressureHPa / 1010) * (283 / (273 + temperatureC))
}
