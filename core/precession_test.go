package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/moonangle/model"
)

// Meeus example 21.b: θ Persei from J2000.0 to 2028 November 13.19 TD.
func TestPrecessFromJ2000_MeeusExample(t *testing.T) {
	T := centuriesFromJDE(2462088.69)
	ra, dec := precessFromJ2000(41.054063, 49.227750, T)
	if math.Abs(ra-41.547214) > 1e-5 {
		t.Errorf("ra = %.6f, want 41.547214", ra)
	}
	if math.Abs(dec-49.348483) > 1e-5 {
		t.Errorf("dec = %.6f, want 49.348483", dec)
	}
}

func TestToEpochOfDate_IdentityForJNOW(t *testing.T) {
	c := model.NewEquatorialCoordinate(5.5, 22, model.EpochOfDate)
	if got := ToEpochOfDate(c, time.Now()); got != c {
		t.Fatalf("JNOW coordinate changed: %v -> %v", c, got)
	}
}

func TestToEpochOfDate_ShiftIsSmallAndTagged(t *testing.T) {
	c := model.NewEquatorialCoordinate(5.5, 22, model.EpochJ2000)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := ToEpochOfDate(c, now)
	if got.Epoch != model.EpochOfDate {
		t.Fatalf("epoch = %v, want JNOW", got.Epoch)
	}
	// 25 years of general precession is about 0.35°.
	shift := AngularSeparation(model.NewEquatorialCoordinate(c.RAHours, c.DecDeg, model.EpochOfDate), got)
	if shift < 0.2 || shift > 0.5 {
		t.Fatalf("precession shift = %.4f°, want roughly 0.35°", shift)
	}
}
