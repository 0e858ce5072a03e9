package geometry

import (
	"math"
	"sort"
)

// Parameterization alphas for CatmullRom
const (
	Uniform     = 0.0
	Centripetal = 0.5
	Chordal     = 1.0
)

// arcDivisions is the resolution of the arc-length lookup table
const arcDivisions = 200

// CatmullRom is an open Catmull-Rom spline through a list of control points.
// Point samples by segment parameter, PointAt by normalized arc length.
type CatmullRom struct {
	points  []Vector3
	alpha   float64
	lengths []float64 // cumulative arc length at arcDivisions+1 samples
}

// NewCatmullRom builds a spline through points. It reports false when fewer
// than 2 points are given; there is no curve in that case.
func NewCatmullRom(points []Vector3, alpha float64) (*CatmullRom, bool) {
	if len(points) < 2 {
		return nil, false
	}
	c := &CatmullRom{
		points: append([]Vector3(nil), points...),
		alpha:  alpha,
	}
	c.lengths = c.arcLengths()
	return c, true
}

// Points returns a copy of the control points
func (c *CatmullRom) Points() []Vector3 {
	return append([]Vector3(nil), c.points...)
}

// Length returns the approximate arc length of the curve
func (c *CatmullRom) Length() float64 {
	return c.lengths[len(c.lengths)-1]
}

// Point samples the curve at t in [0, 1], where each segment between two
// control points spans an equal share of t.
func (c *CatmullRom) Point(t float64) Vector3 {
	t = clamp01(t)
	n := len(c.points)
	p := float64(n-1) * t
	seg := int(math.Floor(p))
	weight := p - float64(seg)
	if seg >= n-1 {
		seg = n - 2
		weight = 1
	}

	var p0, p3 Vector3
	p1 := c.points[seg]
	p2 := c.points[seg+1]
	if seg > 0 {
		p0 = c.points[seg-1]
	} else {
		// extrapolate before the first point
		p0 = p1.Mul(2).Sub(p2)
	}
	if seg+2 < n {
		p3 = c.points[seg+2]
	} else {
		p3 = p2.Mul(2).Sub(p1)
	}

	pow := c.alpha / 2 // applied to squared distances
	dt0 := math.Pow(p0.DistanceSquared(p1), pow)
	dt1 := math.Pow(p1.DistanceSquared(p2), pow)
	dt2 := math.Pow(p2.DistanceSquared(p3), pow)
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	return Vector3{
		X: nonUniform(p0.X, p1.X, p2.X, p3.X, dt0, dt1, dt2, weight),
		Y: nonUniform(p0.Y, p1.Y, p2.Y, p3.Y, dt0, dt1, dt2, weight),
		Z: nonUniform(p0.Z, p1.Z, p2.Z, p3.Z, dt0, dt1, dt2, weight),
	}
}

// PointAt samples the curve at normalized arc length u in [0, 1]
func (c *CatmullRom) PointAt(u float64) Vector3 {
	return c.Point(c.uToT(u))
}

// TangentAt returns the unit tangent at normalized arc length u
func (c *CatmullRom) TangentAt(u float64) Vector3 {
	t := c.uToT(u)
	const delta = 1e-4
	t1, t2 := t-delta, t+delta
	if t1 < 0 {
		t1 = 0
	}
	if t2 > 1 {
		t2 = 1
	}
	return c.Point(t2).Sub(c.Point(t1)).Normalize()
}

// Samples returns n+1 points evenly spaced by arc length
func (c *CatmullRom) Samples(n int) []Vector3 {
	if n < 1 {
		n = 1
	}
	out := make([]Vector3, n+1)
	for i := 0; i <= n; i++ {
		out[i] = c.PointAt(float64(i) / float64(n))
	}
	return out
}

func (c *CatmullRom) arcLengths() []float64 {
	lengths := make([]float64, arcDivisions+1)
	prev := c.Point(0)
	for i := 1; i <= arcDivisions; i++ {
		cur := c.Point(float64(i) / arcDivisions)
		lengths[i] = lengths[i-1] + cur.Distance(prev)
		prev = cur
	}
	return lengths
}

// uToT maps normalized arc length to the segment parameter
func (c *CatmullRom) uToT(u float64) float64 {
	u = clamp01(u)
	total := c.Length()
	if total == 0 {
		return u
	}
	target := u * total
	i := sort.SearchFloat64s(c.lengths, target)
	if i == 0 {
		return 0
	}
	if i > arcDivisions {
		return 1
	}
	before, after := c.lengths[i-1], c.lengths[i]
	frac := 0.0
	if after > before {
		frac = (target - before) / (after - before)
	}
	return (float64(i-1) + frac) / arcDivisions
}

// nonUniform evaluates one coordinate of a non-uniform Catmull-Rom segment
// between x1 and x2 using knot intervals dt0, dt1, dt2.
func nonUniform(x0, x1, x2, x3, dt0, dt1, dt2, t float64) float64 {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	t1 *= dt1
	t2 *= dt1

	c0 := x1
	c1 := t1
	c2 := -3*x1 + 3*x2 - 2*t1 - t2
	c3 := 2*x1 - 2*x2 + t1 + t2
	return c0 + c1*t + c2*t*t + c3*t*t*t
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
