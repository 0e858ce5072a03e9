package geometry

import "math"

// Tube is a triangulated tube following a curve.
// Rings holds the ring centers; Vertices holds Radial vertices per ring.
type Tube struct {
	Rings    []Vector3
	Vertices []Vector3
	Indices  []int
	Radial   int
	Radius   float64
}

// NewTube sweeps a circle of the given radius along the curve.
// tubular is the number of segments along the curve, radial around it.
func NewTube(curve *CatmullRom, tubular, radial int, radius float64) *Tube {
	if tubular < 1 {
		tubular = 1
	}
	if radial < 3 {
		radial = 3
	}

	tube := &Tube{
		Rings:    make([]Vector3, 0, tubular+1),
		Vertices: make([]Vector3, 0, (tubular+1)*radial),
		Indices:  make([]int, 0, tubular*radial*6),
		Radial:   radial,
		Radius:   radius,
	}

	normals, binormals := frames(curve, tubular)
	for i := 0; i <= tubular; i++ {
		center := curve.PointAt(float64(i) / float64(tubular))
		tube.Rings = append(tube.Rings, center)
		n, b := normals[i], binormals[i]
		for j := 0; j < radial; j++ {
			angle := float64(j) / float64(radial) * 2 * math.Pi
			dir := n.Mul(math.Cos(angle)).Add(b.Mul(math.Sin(angle)))
			tube.Vertices = append(tube.Vertices, center.Add(dir.Mul(radius)))
		}
	}

	for i := 0; i < tubular; i++ {
		for j := 0; j < radial; j++ {
			a := i*radial + j
			b := (i+1)*radial + j
			c := (i+1)*radial + (j+1)%radial
			d := i*radial + (j+1)%radial
			tube.Indices = append(tube.Indices, a, b, d, b, c, d)
		}
	}
	return tube
}

// frames computes parallel-transport frames along the curve so the tube
// does not twist where the Frenet normal flips.
func frames(curve *CatmullRom, segments int) (normals, binormals []Vector3) {
	tangents := make([]Vector3, segments+1)
	normals = make([]Vector3, segments+1)
	binormals = make([]Vector3, segments+1)

	for i := 0; i <= segments; i++ {
		tangents[i] = curve.TangentAt(float64(i) / float64(segments))
	}

	// initial normal along the axis least aligned with the first tangent
	t0 := tangents[0]
	axis := NewVector3(1, 0, 0)
	smallest := math.Abs(t0.X)
	if math.Abs(t0.Y) <= smallest {
		smallest = math.Abs(t0.Y)
		axis = NewVector3(0, 1, 0)
	}
	if math.Abs(t0.Z) <= smallest {
		axis = NewVector3(0, 0, 1)
	}
	v := t0.Cross(axis).Normalize()
	normals[0] = t0.Cross(v)
	binormals[0] = t0.Cross(normals[0])

	for i := 1; i <= segments; i++ {
		normals[i] = normals[i-1]
		v := tangents[i-1].Cross(tangents[i])
		if v.Length() > 1e-9 {
			v = v.Normalize()
			theta := math.Acos(clampUnit(tangents[i-1].Dot(tangents[i])))
			normals[i] = rotateAround(normals[i], v, theta)
		}
		binormals[i] = tangents[i].Cross(normals[i])
	}
	return normals, binormals
}

// rotateAround rotates p around a unit axis by angle (Rodrigues)
func rotateAround(p, axis Vector3, angle float64) Vector3 {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return p.Mul(cos).
		Add(axis.Cross(p).Mul(sin)).
		Add(axis.Mul(axis.Dot(p) * (1 - cos)))
}

func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
