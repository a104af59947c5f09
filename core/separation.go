package core

import (
	"math"

	"github.com/signalsfoundry/moonangle/model"
)

// AngularSeparation returns the great-circle distance in degrees between two
// coordinates. Both must already be expressed in the same frame and epoch.
//
// The angle is taken as atan2(|a×b|, a·b) on unit vectors, which stays well
// conditioned close to 0° and 180° where an arccos of the dot product loses
// most of its significant digits.
func AngularSeparation(a, b model.EquatorialCoordinate) float64 {
	va := sphericalToVec3(a.RADegrees()*deg2rad, a.DecDeg*deg2rad, 1)
	vb := sphericalToVec3(b.RADegrees()*deg2rad, b.DecDeg*deg2rad, 1)

	sin := va.Cross(vb).Norm()
	cos := va.Dot(vb)
	if sin == 0 && cos == 0 {
		return 0
	}
	return math.Atan2(sin, cos) * rad2deg
}
