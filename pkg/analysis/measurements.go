package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
)

// CloudResult contains measurements of a point cloud
type CloudResult struct {
	BoundingBox geometry.BoundingBox
	Dimensions  geometry.Vector3
	PointCount  int
	// Density is points per cubic unit of the bounding box (0 when flat)
	Density float64
}

// AnalyzeCloud measures a point cloud
func AnalyzeCloud(c *cloud.Cloud) *CloudResult {
	result := &CloudResult{
		BoundingBox: c.BoundingBox(),
		PointCount:  c.Count(),
	}
	if result.BoundingBox.Empty() {
		return result
	}
	result.Dimensions = result.BoundingBox.Size()
	volume := result.Dimensions.X * result.Dimensions.Y * result.Dimensions.Z
	if volume > 0 {
		result.Density = float64(result.PointCount) / volume
	}
	return result
}

// SegmentInfo describes the straight segment between two consecutive path points
type SegmentInfo struct {
	Start  geometry.Vector3
	End    geometry.Vector3
	Length float64
	Index  int
}

// PathResult contains measurements of a roaming path
type PathResult struct {
	Name        string
	PointCount  int
	BoundingBox geometry.BoundingBox
	Segments    []SegmentInfo
	// PolylineLength is the sum of the straight segments
	PolylineLength float64
	// CurveLength is the arc length of the smoothed curve, 0 if the path is too short
	CurveLength      float64
	MinSegmentLength float64
	MaxSegmentLength float64
	AvgSegmentLength float64
	// Roamable reports whether playback can start on the path
	Roamable bool
}

// AnalyzePath measures a path and the curve built through it with alpha
func AnalyzePath(p pathstore.Path, alpha float64) *PathResult {
	result := &PathResult{
		Name:        p.Name,
		PointCount:  len(p.Points),
		BoundingBox: geometry.NewBoundingBox(),
		Segments:    make([]SegmentInfo, 0, len(p.Points)),
	}
	for _, pt := range p.Points {
		result.BoundingBox.Extend(pt)
	}

	minLength := math.MaxFloat64
	maxLength := 0.0
	for i := 1; i < len(p.Points); i++ {
		length := p.Points[i-1].Distance(p.Points[i])
		result.Segments = append(result.Segments, SegmentInfo{
			Start:  p.Points[i-1],
			End:    p.Points[i],
			Length: length,
			Index:  i - 1,
		})
		result.PolylineLength += length
		minLength = math.Min(minLength, length)
		maxLength = math.Max(maxLength, length)
	}

	if n := len(result.Segments); n > 0 {
		result.MinSegmentLength = minLength
		result.MaxSegmentLength = maxLength
		result.AvgSegmentLength = result.PolylineLength / float64(n)
	}

	if curve, ok := geometry.NewCatmullRom(p.Points, alpha); ok {
		result.CurveLength = curve.Length()
		result.Roamable = true
	}
	return result
}

// FindLongestSegments returns the N longest segments of a path
func FindLongestSegments(result *PathResult, count int) []SegmentInfo {
	segments := make([]SegmentInfo, len(result.Segments))
	copy(segments, result.Segments)

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Length > segments[j].Length
	})

	if count > len(segments) {
		count = len(segments)
	}
	return segments[:count]
}

// FindNearestPoint finds the cloud point nearest to a given position
func FindNearestPoint(c *cloud.Cloud, point geometry.Vector3) (geometry.Vector3, float64, bool) {
	var nearest geometry.Vector3
	minDistance := math.MaxFloat64
	for _, p := range c.Points {
		if d := point.DistanceSquared(p.Position); d < minDistance {
			minDistance = d
			nearest = p.Position
		}
	}
	if len(c.Points) == 0 {
		return nearest, 0, false
	}
	return nearest, math.Sqrt(minDistance), true
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
