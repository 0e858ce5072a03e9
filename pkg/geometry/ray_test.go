package geometry

import (
	"math"
	"testing"
)

func TestRayIntersectSphere(t *testing.T) {
	ray := NewRay(NewVector3(0, 0, 10), NewVector3(0, 0, -1))

	dist, ok := ray.IntersectSphere(NewVector3(0, 0, 0), 1)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(dist-9) > 1e-10 {
		t.Errorf("expected distance 9, got %v", dist)
	}

	if _, ok := ray.IntersectSphere(NewVector3(5, 0, 0), 1); ok {
		t.Error("expected miss for sphere off the ray")
	}
	if _, ok := ray.IntersectSphere(NewVector3(0, 0, 20), 1); ok {
		t.Error("expected miss for sphere behind the origin")
	}
}

func TestRayIntersectSphereFromInside(t *testing.T) {
	ray := NewRay(NewVector3(0, 0, 0), NewVector3(1, 0, 0))

	dist, ok := ray.IntersectSphere(NewVector3(0, 0, 0), 2)
	if !ok || math.Abs(dist-2) > 1e-10 {
		t.Errorf("expected exit distance 2, got %v (hit=%v)", dist, ok)
	}
}

func TestRayClosestDistance(t *testing.T) {
	ray := NewRay(NewVector3(0, 0, 0), NewVector3(0, 0, 2))

	tt, dist := ray.ClosestDistance(NewVector3(3, 0, 5))
	if math.Abs(tt-5) > 1e-10 || math.Abs(dist-3) > 1e-10 {
		t.Errorf("expected t=5 dist=3, got t=%v dist=%v", tt, dist)
	}

	tt, dist = ray.ClosestDistance(NewVector3(0, 4, -3))
	if tt != 0 || math.Abs(dist-5) > 1e-10 {
		t.Errorf("point behind origin should clamp to origin, got t=%v dist=%v", tt, dist)
	}
}
