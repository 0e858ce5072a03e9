package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldUp is the vertical axis of the scene frame (Y-up)
var WorldUp = NewVector3(0, 1, 0)

// LookRotation returns the orientation of an object at eye looking at center.
// Objects face their local -Z axis with +Y up, as cameras do.
// A degenerate direction yields the identity rotation.
func LookRotation(eye, center Vector3) mgl64.Quat {
	forward := center.Sub(eye)
	if forward.Length() < 1e-9 {
		return mgl64.QuatIdent()
	}
	forward = forward.Normalize()

	up := WorldUp
	if math.Abs(forward.Dot(up)) > 0.999999 {
		// looking straight up or down
		up = NewVector3(0, 0, 1)
	}
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)
	back := forward.Mul(-1)

	m := mgl64.Mat3FromCols(right.Vec(), trueUp.Vec(), back.Vec())
	return mgl64.Mat4ToQuat(m.Mat4()).Normalize()
}

// Rotate applies a rotation to a vector
func Rotate(q mgl64.Quat, v Vector3) Vector3 {
	return FromVec(q.Rotate(v.Vec()))
}

// EulerXYZ decomposes a rotation into intrinsic X, Y, Z angles in radians
func EulerXYZ(q mgl64.Quat) Vector3 {
	q = q.Normalize()
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	m11 := 1 - 2*(y*y+z*z)
	m12 := 2 * (x*y - w*z)
	m13 := 2 * (x*z + w*y)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - w*x)
	m32 := 2 * (y*z + w*x)
	m33 := 1 - 2*(x*x+y*y)

	var e Vector3
	e.Y = math.Asin(clampUnit(m13))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
	}
	return e
}
