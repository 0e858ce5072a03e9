// Package cloud parses point-cloud scene assets: .splat, .ply and .xyz
package cloud

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/philipparndt/splatroam/pkg/geometry"
)

// Format of a point-cloud asset
type Format int

const (
	FormatUnknown Format = iota
	FormatSplat
	FormatPLY
	FormatXYZ
)

func (f Format) String() string {
	switch f {
	case FormatSplat:
		return "splat"
	case FormatPLY:
		return "ply"
	case FormatXYZ:
		return "xyz"
	default:
		return "unknown"
	}
}

// splatRecordSize is the size of one .splat record: position (3 float32),
// scale (3 float32), RGBA (4 uint8), rotation (4 uint8)
const splatRecordSize = 32

// shC0 converts a spherical harmonics DC coefficient to a color channel
const shC0 = 0.28209479177387814

// progressEvery is the number of points between progress reports
const progressEvery = 4096

var ErrUnknownFormat = errors.New("unknown point cloud format")

// Progress receives the loaded fraction in [0, 1]
type Progress func(fraction float64)

// DetectFormat guesses the format from a file name
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".splat":
		return FormatSplat
	case ".ply":
		return FormatPLY
	case ".xyz", ".txt":
		return FormatXYZ
	default:
		return FormatUnknown
	}
}

// Open loads a point cloud from a local file or an http(s) URL
func Open(ctx context.Context, location string, progress Progress) (*Cloud, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return fetch(ctx, location, progress)
	}
	return Parse(location, progress)
}

// Parse reads a point-cloud file and returns a Cloud.
// The format is detected from the extension, or from the header for PLY.
func Parse(filename string, progress Progress) (*Cloud, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	c, err := ParseReader(file, DetectFormat(filename), info.Size(), progress)
	if err != nil {
		return nil, err
	}
	c.Name = filepath.Base(filename)
	return c, nil
}

func fetch(ctx context.Context, location string, progress Progress) (*Cloud, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset request returned status %d", resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	c, err := ParseReader(resp.Body, DetectFormat(name), resp.ContentLength, progress)
	if err != nil {
		return nil, err
	}
	c.Name = name
	return c, nil
}

// ParseReader parses a point cloud of the given format. size is the total
// byte count when known (-1 otherwise); .splat needs it only for progress.
func ParseReader(r io.Reader, format Format, size int64, progress Progress) (*Cloud, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	br := bufio.NewReader(r)

	// PLY files announce themselves
	if magic, err := br.Peek(4); err == nil && (string(magic) == "ply\n" || string(magic) == "ply\r") {
		format = FormatPLY
	}

	var (
		c   *Cloud
		err error
	)
	switch format {
	case FormatSplat:
		c, err = parseSplat(br, size, progress)
	case FormatPLY:
		c, err = parsePLY(br, progress)
	case FormatXYZ:
		c, err = parseXYZ(br, size, progress)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	progress(1)
	return c, nil
}

// parseSplat parses the 32-byte record .splat layout
func parseSplat(reader io.Reader, size int64, progress Progress) (*Cloud, error) {
	c := NewCloud("")
	total := size / splatRecordSize
	if total > 0 {
		c.Points = make([]Point, 0, total)
	}

	record := make([]byte, splatRecordSize)
	for i := int64(0); ; i++ {
		_, err := io.ReadFull(reader, record)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read splat %d: %w", i, err)
		}

		x := math.Float32frombits(binary.LittleEndian.Uint32(record[0:4]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(record[4:8]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(record[8:12]))
		c.Add(Point{
			Position: geometry.NewVector3(float64(x), float64(y), float64(z)),
			Color:    nrgba(record[24], record[25], record[26], record[27]),
		})

		if total > 0 && i%progressEvery == 0 {
			progress(float64(i) / float64(total))
		}
	}
	return c, nil
}

// parseXYZ parses whitespace separated "x y z [r g b]" lines
func parseXYZ(reader io.Reader, size int64, progress Progress) (*Cloud, error) {
	scanner := bufio.NewScanner(reader)
	c := NewCloud("")
	var read int64

	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		read += int64(len(text)) + 1
		fields := strings.Fields(text)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 values", line)
		}

		var v [6]float64
		n := len(fields)
		if n > 6 {
			n = 6
		}
		for i := 0; i < n; i++ {
			f, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = f
		}

		p := Point{Position: geometry.NewVector3(v[0], v[1], v[2]), Color: nrgba(255, 255, 255, 255)}
		if n >= 6 {
			p.Color = nrgba(clampByte(v[3]), clampByte(v[4]), clampByte(v[5]), 255)
		}
		c.Add(p)

		if size > 0 && c.Count()%progressEvery == 0 {
			progress(float64(read) / float64(size))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading XYZ: %w", err)
	}
	return c, nil
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
