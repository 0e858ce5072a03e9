package cloud

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splatRecord(x, y, z float32, r, g, b, a uint8) []byte {
	rec := make([]byte, splatRecordSize)
	binary.LittleEndian.PutUint32(rec[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(rec[4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(rec[8:], math.Float32bits(z))
	binary.LittleEndian.PutUint32(rec[12:], math.Float32bits(0.01))
	rec[24], rec[25], rec[26], rec[27] = r, g, b, a
	rec[28] = 128
	return rec
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"scene.splat": FormatSplat,
		"SCENE.PLY":   FormatPLY,
		"points.xyz":  FormatXYZ,
		"points.txt":  FormatXYZ,
		"model.stl":   FormatUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectFormat(name), name)
	}
}

func TestParseSplat(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(splatRecord(1, 2, 3, 10, 20, 30, 255))
	buf.Write(splatRecord(-1, 0.5, 8, 1, 2, 3, 4))

	var reports []float64
	c, err := ParseReader(&buf, FormatSplat, int64(buf.Len()), func(f float64) { reports = append(reports, f) })
	require.NoError(t, err)
	require.Equal(t, 2, c.Count())
	assert.Equal(t, geometry.NewVector3(1, 2, 3), c.Points[0].Position)
	assert.Equal(t, nrgba(10, 20, 30, 255), c.Points[0].Color)
	assert.Equal(t, geometry.NewVector3(-1, 0.5, 8), c.Points[1].Position)
	assert.Equal(t, 1.0, reports[len(reports)-1])
}

func TestParseSplat_Truncated(t *testing.T) {
	data := append(splatRecord(1, 2, 3, 0, 0, 0, 0), 1, 2, 3)
	_, err := ParseReader(bytes.NewReader(data), FormatSplat, -1, nil)
	assert.Error(t, err)
}

func TestParsePLY_ASCII(t *testing.T) {
	ply := `ply
format ascii 1.0
comment made by hand
element vertex 2
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
element face 1
property list uchar int vertex_indices
end_header
0 1 2 255 0 0
3.5 -4 5 0 128 255
3 0 1 1
`
	c, err := ParseReader(strings.NewReader(ply), FormatUnknown, -1, nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Count())
	assert.Equal(t, geometry.NewVector3(3.5, -4, 5), c.Points[1].Position)
	assert.Equal(t, nrgba(0, 128, 255, 255), c.Points[1].Color)
}

func TestParsePLY_BinarySplat(t *testing.T) {
	header := `ply
format binary_little_endian 1.0
element vertex 1
property float x
property float y
property float z
property double w
property float f_dc_0
property float f_dc_1
property float f_dc_2
property float opacity
end_header
`
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, f := range []float32{1, 2, 3} {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}
	_ = binary.Write(&buf, binary.LittleEndian, float64(9))
	for _, f := range []float32{0, 1, -1, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}

	c, err := ParseReader(&buf, FormatPLY, -1, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.Count())
	assert.Equal(t, geometry.NewVector3(1, 2, 3), c.Points[0].Position)
	col := c.Points[0].Color
	assert.Equal(t, uint8(128), col.R)
	assert.Equal(t, uint8(199), col.G)
	assert.Equal(t, uint8(56), col.B)
	assert.Equal(t, uint8(128), col.A)
}

func TestParsePLY_Errors(t *testing.T) {
	tests := map[string]string{
		"big endian":    "ply\nformat binary_big_endian 1.0\nelement vertex 0\nend_header\n",
		"no x":          "ply\nformat ascii 1.0\nelement vertex 1\nproperty float y\nproperty float z\nend_header\n1 2\n",
		"short vertex":  "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2\n",
		"missing rows":  "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n",
		"no header end": "ply\nformat ascii 1.0\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReader(strings.NewReader(data), FormatPLY, -1, nil)
			assert.Error(t, err)
		})
	}
}

func TestParseXYZ(t *testing.T) {
	data := "# scan\n1 2 3\n\n4 5 6 255 0 10\n"
	c, err := ParseReader(strings.NewReader(data), FormatXYZ, int64(len(data)), nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Count())
	assert.Equal(t, nrgba(255, 255, 255, 255), c.Points[0].Color)
	assert.Equal(t, nrgba(255, 0, 10, 255), c.Points[1].Color)

	_, err = ParseReader(strings.NewReader("1 2\n"), FormatXYZ, -1, nil)
	assert.Error(t, err)
	_, err = ParseReader(strings.NewReader("1 b 3\n"), FormatXYZ, -1, nil)
	assert.Error(t, err)
}

func TestParseReader_UnknownFormat(t *testing.T) {
	_, err := ParseReader(strings.NewReader("solid cube"), FormatUnknown, -1, nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.splat")
	require.NoError(t, os.WriteFile(path, splatRecord(0, 1, 0, 1, 1, 1, 1), 0644))

	c, err := Parse(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "room.splat", c.Name)
	assert.Equal(t, 1, c.Count())

	_, err = Parse(filepath.Join(t.TempDir(), "missing.splat"), nil)
	assert.Error(t, err)
}

func TestOpen_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/hall.xyz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("1 2 3\n4 5 6\n"))
	}))
	defer server.Close()

	c, err := Open(context.Background(), server.URL+"/assets/hall.xyz", nil)
	require.NoError(t, err)
	assert.Equal(t, "hall.xyz", c.Name)
	assert.Equal(t, 2, c.Count())

	_, err = Open(context.Background(), server.URL+"/assets/other.xyz", nil)
	assert.ErrorContains(t, err, "status 404")
}

func TestBoundingBox(t *testing.T) {
	c := NewCloud("c")
	c.Add(Point{Position: geometry.NewVector3(-1, 0, 2)})
	c.Add(Point{Position: geometry.NewVector3(3, 4, -2)})
	bbox := c.BoundingBox()
	assert.Equal(t, geometry.NewVector3(-1, 0, -2), bbox.Min)
	assert.Equal(t, geometry.NewVector3(3, 4, 2), bbox.Max)
}
