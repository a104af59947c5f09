package core

import "math"

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Vec3 is a Cartesian vector in an equatorial frame. Units depend on the
// caller: unit vectors for directions, kilometres for geocentric positions.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// sphericalToVec3 converts a longitude-like angle theta and latitude-like
// angle phi (both radians) into a vector of length r.
func sphericalToVec3(theta, phi, r float64) Vec3 {
	cosPhi := math.Cos(phi)
	return Vec3{
		X: r * math.Cos(theta) * cosPhi,
		Y: r * math.Sin(theta) * cosPhi,
		Z: r * math.Sin(phi),
	}
}

// vec3ToSpherical is the inverse of sphericalToVec3. theta is returned in
// [0, 2π). A zero vector yields (0, 0).
func vec3ToSpherical(v Vec3) (theta, phi float64) {
	rho := math.Hypot(v.X, v.Y)
	if rho == 0 && v.Z == 0 {
		return 0, 0
	}
	theta = math.Atan2(v.Y, v.X)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	phi = math.Atan2(v.Z, rho)
	return theta, phi
}

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
