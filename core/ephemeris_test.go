package core

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/moonangle/model"
)

func centuriesFromJDE(jde float64) float64 {
	return (jde - jdJ2000) / 36525
}

// Meeus, Astronomical Algorithms, example 47.a (1992 April 12, 0h TD).
func TestMoonGeocentric_MeeusExample(t *testing.T) {
	T := centuriesFromJDE(2448724.5)

	lambda, beta, dist := moonGeocentric(T)
	if math.Abs(lambda-133.162655) > 0.001 {
		t.Errorf("lambda = %.6f, want 133.162655", lambda)
	}
	if math.Abs(beta-(-3.229126)) > 0.001 {
		t.Errorf("beta = %.6f, want -3.229126", beta)
	}
	if math.Abs(dist-368409.7) > 1 {
		t.Errorf("distance = %.1f km, want 368409.7", dist)
	}

	ra, dec, _ := geocentricApparent(T, model.BodyMoon)
	if math.Abs(ra-134.688470) > 0.002 {
		t.Errorf("apparent RA = %.6f°, want 134.688470", ra)
	}
	if math.Abs(dec-13.768368) > 0.002 {
		t.Errorf("apparent Dec = %.6f°, want 13.768368", dec)
	}
}

// Meeus example 25.a (1992 October 13, 0h TD).
func TestSunGeocentric_MeeusExample(t *testing.T) {
	T := centuriesFromJDE(2448908.5)

	ra, dec, dist := geocentricApparent(T, model.BodySun)
	if math.Abs(ra-198.38083) > 0.002 {
		t.Errorf("apparent RA = %.5f°, want 198.38083", ra)
	}
	if math.Abs(dec-(-7.78507)) > 0.002 {
		t.Errorf("apparent Dec = %.5f°, want -7.78507", dec)
	}
	if au := dist / auKm; math.Abs(au-0.99766) > 0.0002 {
		t.Errorf("distance = %.5f AU, want 0.99766", au)
	}
}

func TestGeocentricApparent_UnknownBodyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown body")
		}
	}()
	geocentricApparent(0, model.Body(99))
}

func TestPosition_Deterministic(t *testing.T) {
	e := NewEphemeris()
	now := time.Date(2024, 3, 9, 22, 15, 0, 0, time.UTC)
	obs := model.ObserverLocation{LatitudeDeg: 48.1, LongitudeDeg: 11.6, ElevationM: 520, PressureHPa: 950, TemperatureC: 4}

	for _, body := range []model.Body{model.BodyMoon, model.BodySun} {
		a := e.Position(now, obs, body)
		b := e.Position(now, obs, body)
		if a != b {
			t.Fatalf("%v: positions differ between calls: %v vs %v", body, a, b)
		}
		if a.Epoch != model.EpochOfDate {
			t.Fatalf("%v: position epoch = %v, want JNOW", body, a.Epoch)
		}
	}
}

func TestTopocentricParallax(t *testing.T) {
	now := time.Date(2023, 11, 2, 3, 0, 0, 0, time.UTC)
	obs := model.ObserverLocation{LatitudeDeg: -30.2, LongitudeDeg: -70.7, ElevationM: 2200}
	jd := JulianDate(now)
	T := julianCenturiesTT(now)

	ra, dec, dist := geocentricApparent(T, model.BodyMoon)
	tra, tdec := topocentric(ra, dec, dist, jd, obs)
	shift := AngularSeparation(
		model.NewEquatorialCoordinate(ra/15, dec, model.EpochOfDate),
		model.NewEquatorialCoordinate(tra/15, tdec, model.EpochOfDate),
	)
	if shift <= 0 || shift > 1.03 {
		t.Fatalf("lunar parallax shift = %.4f°, want within (0, 1.03]", shift)
	}

	ra, dec, dist = geocentricApparent(T, model.BodySun)
	tra, tdec = topocentric(ra, dec, dist, jd, obs)
	shift = AngularSeparation(
		model.NewEquatorialCoordinate(ra/15, dec, model.EpochOfDate),
		model.NewEquatorialCoordinate(tra/15, tdec, model.EpochOfDate),
	)
	if shift > 0.003 {
		t.Fatalf("solar parallax shift = %.5f°, want < 0.003", shift)
	}
}

func TestRefract_LiftsObjectOnHorizon(t *testing.T) {
	jd := JulianDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	obs := model.ObserverLocation{PressureHPa: 1000, TemperatureC: 0}

	// Hour angle +90° on the equator puts a declination-0 object on the
	// western horizon.
	ra := normalizeDegrees(satellite.ThetaG_JD(jd)*rad2deg - 90)
	rra, rdec := refract(ra, 0, jd, obs)

	want := refractionArcmin(0, 1000, 0) / 60
	got := AngularSeparation(
		model.NewEquatorialCoordinate(ra/15, 0, model.EpochOfDate),
		model.NewEquatorialCoordinate(rra/15, rdec, model.EpochOfDate),
	)
	if math.Abs(got-want) > 1e-4 {
		t.Fatalf("refraction lift = %.5f°, want %.5f°", got, want)
	}
	if want < 0.45 || want > 0.55 {
		t.Fatalf("horizon refraction = %.4f°, want about half a degree", want)
	}
}

func TestRefract_SkipsBelowHorizonAndZeroPressure(t *testing.T) {
	jd := JulianDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	lst := satellite.ThetaG_JD(jd) * rad2deg

	// Anti-meridian on the equator: altitude -90°.
	ra := normalizeDegrees(lst - 180)
	obs := model.ObserverLocation{PressureHPa: 1000}
	if rra, rdec := refract(ra, 0, jd, obs); rra != ra || rdec != 0 {
		t.Fatalf("below-horizon position changed: (%g, %g) -> (%g, %g)", ra, 0.0, rra, rdec)
	}

	ra = normalizeDegrees(lst - 90)
	obs.PressureHPa = 0
	if rra, rdec := refract(ra, 0, jd, obs); rra != ra || rdec != 0 {
		t.Fatalf("zero pressure should disable refraction: (%g, %g) -> (%g, %g)", ra, 0.0, rra, rdec)
	}
}

func TestRefractionArcmin_ScalesWithWeather(t *testing.T) {
	base := refractionArcmin(10, 1010, 10)
	thin := refractionArcmin(10, 505, 10)
	if math.Abs(thin-base/2) > 1e-9 {
		t.Fatalf("half pressure should halve refraction: %g vs %g", thin, base)
	}
	if refractionArcmin(10, 1010, 30) >= base {
		t.Fatalf("warmer air should refract less")
	}
}
