package cloud

import (
	"image/color"

	"github.com/philipparndt/splatroam/pkg/geometry"
)

// Point is one splat center with its color
type Point struct {
	Position geometry.Vector3
	Color    color.NRGBA
}

// Cloud represents a loaded point cloud
type Cloud struct {
	Name   string
	Points []Point
}

// NewCloud creates an empty point cloud
func NewCloud(name string) *Cloud {
	return &Cloud{
		Name:   name,
		Points: make([]Point, 0),
	}
}

// Add appends a point
func (c *Cloud) Add(p Point) {
	c.Points = append(c.Points, p)
}

// Count returns the number of points
func (c *Cloud) Count() int {
	return len(c.Points)
}

// BoundingBox calculates the bounding box of all points
func (c *Cloud) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, p := range c.Points {
		bbox.Extend(p.Position)
	}
	return bbox
}
