package viewer

import (
	"image"
	"image/color"
	"math"
)

// frame is an RGBA image with a depth buffer. Smaller depth is closer.
type frame struct {
	img   *image.RGBA
	depth []float64
}

func newFrame(width, height int, background color.RGBA) *frame {
	f := &frame{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		depth: make([]float64, width*height),
	}
	for i := range f.depth {
		f.depth[i] = math.Inf(1)
	}
	pix := f.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = background.R, background.G, background.B, background.A
	}
	return f
}

func (f *frame) width() int  { return f.img.Rect.Dx() }
func (f *frame) height() int { return f.img.Rect.Dy() }

// plot writes a pixel if it passes the depth test
func (f *frame) plot(x, y int, z float64, col color.RGBA) {
	if x < 0 || y < 0 || x >= f.width() || y >= f.height() {
		return
	}
	idx := y*f.width() + x
	if z < f.depth[idx] {
		f.depth[idx] = z
		f.img.SetRGBA(x, y, col)
	}
}

// fillDisc draws a filled circle at constant depth
func (f *frame) fillDisc(cx, cy, radius, z float64, col color.RGBA) {
	r2 := radius * radius
	for y := int(math.Floor(cy - radius)); y <= int(math.Ceil(cy+radius)); y++ {
		dy := float64(y) + 0.5 - cy
		for x := int(math.Floor(cx - radius)); x <= int(math.Ceil(cx+radius)); x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				f.plot(x, y, z, col)
			}
		}
	}
}

// fillTriangle fills a triangle using a scanline algorithm with depth interpolation
func (f *frame) fillTriangle(x1, y1, z1, x2, y2, z2, x3, y3, z3 float64, col color.RGBA) {
	vertices := [3][3]float64{
		{x1, y1, z1},
		{x2, y2, z2},
		{x3, y3, z3},
	}

	// sort by Y, top to bottom
	if vertices[0][1] > vertices[1][1] {
		vertices[0], vertices[1] = vertices[1], vertices[0]
	}
	if vertices[1][1] > vertices[2][1] {
		vertices[1], vertices[2] = vertices[2], vertices[1]
	}
	if vertices[0][1] > vertices[1][1] {
		vertices[0], vertices[1] = vertices[1], vertices[0]
	}

	edges := [3][2]int{{0, 1}, {1, 2}, {0, 2}}
	top := int(math.Max(0, math.Ceil(vertices[0][1])))
	bottom := int(math.Min(float64(f.height()-1), vertices[2][1]))

	for y := top; y <= bottom; y++ {
		fy := float64(y)
		var xs, zs [2]float64
		n := 0
		for _, e := range edges {
			a, b := vertices[e[0]], vertices[e[1]]
			if a[1] == b[1] || fy < a[1] || fy > b[1] || n == 2 {
				continue
			}
			t := (fy - a[1]) / (b[1] - a[1])
			xs[n] = a[0] + t*(b[0]-a[0])
			zs[n] = a[2] + t*(b[2]-a[2])
			n++
		}
		if n < 2 {
			continue
		}
		if xs[0] > xs[1] {
			xs[0], xs[1] = xs[1], xs[0]
			zs[0], zs[1] = zs[1], zs[0]
		}

		start := int(math.Max(0, math.Ceil(xs[0])))
		end := int(math.Min(float64(f.width()-1), xs[1]))
		for x := start; x <= end; x++ {
			t := 0.0
			if xs[1] != xs[0] {
				t = (float64(x) - xs[0]) / (xs[1] - xs[0])
			}
			f.plot(x, y, zs[0]+t*(zs[1]-zs[0]), col)
		}
	}
}

// drawLine draws a depth-tested line using Bresenham's algorithm
func (f *frame) drawLine(x1, y1 int, z1 float64, x2, y2 int, z2 float64, col color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	steps := max(dx, dy)
	err := dx - dy
	for i := 0; ; i++ {
		z := z1
		if steps > 0 {
			z = z1 + (z2-z1)*float64(i)/float64(steps)
		}
		f.plot(x1, y1, z, col)

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
