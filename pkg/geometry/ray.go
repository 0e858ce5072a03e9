package geometry

import "math"

// Ray is a half-line starting at Origin. Direction is expected to be normalized.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// NewRay creates a ray and normalizes its direction
func NewRay(origin, direction Vector3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) Vector3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ClosestDistance returns the parameter of the point on the ray closest to p
// (clamped to the origin) and the distance between that point and p.
func (r Ray) ClosestDistance(p Vector3) (t, dist float64) {
	t = p.Sub(r.Origin).Dot(r.Direction)
	if t < 0 {
		t = 0
	}
	return t, r.At(t).Distance(p)
}

// IntersectSphere returns the distance to the nearest intersection with a sphere
// in front of the origin. A ray starting inside the sphere reports the exit point.
func (r Ray) IntersectSphere(center Vector3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
