package cloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/philipparndt/splatroam/pkg/geometry"
)

type plyProperty struct {
	name string
	kind string
}

type plyHeader struct {
	binary     bool
	vertices   int
	properties []plyProperty
}

// plySizes maps PLY scalar types to their byte size
var plySizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// parsePLY parses the vertex element of an ASCII or binary little-endian PLY
// file. Colors come from red/green/blue or from the f_dc_* coefficients of
// Gaussian splat exports.
func parsePLY(reader *bufio.Reader, progress Progress) (*Cloud, error) {
	header, err := readPLYHeader(reader)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header.properties))
	for i, p := range header.properties {
		index[p.name] = i
	}
	for _, axis := range []string{"x", "y", "z"} {
		if _, ok := index[axis]; !ok {
			return nil, fmt.Errorf("PLY vertex element has no %q property", axis)
		}
	}

	c := NewCloud("")
	c.Points = make([]Point, 0, header.vertices)
	values := make([]float64, len(header.properties))

	var scanner *bufio.Scanner
	if !header.binary {
		scanner = bufio.NewScanner(reader)
	}

	for i := 0; i < header.vertices; i++ {
		if header.binary {
			err = readBinaryVertex(reader, header.properties, values)
		} else {
			err = readASCIIVertex(scanner, values)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}

		c.Add(Point{
			Position: geometry.NewVector3(values[index["x"]], values[index["y"]], values[index["z"]]),
			Color:    plyColor(index, values),
		})
		if i%progressEvery == 0 {
			progress(float64(i) / float64(header.vertices))
		}
	}
	return c, nil
}

func readPLYHeader(reader *bufio.Reader) (plyHeader, error) {
	var (
		h          plyHeader
		inVertex   bool
		seenVertex bool
		seenFmt    bool
	)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return h, fmt.Errorf("failed to read PLY header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "ply", "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return h, fmt.Errorf("invalid PLY format line")
			}
			switch fields[1] {
			case "ascii":
			case "binary_little_endian":
				h.binary = true
			default:
				return h, fmt.Errorf("unsupported PLY format: %s", fields[1])
			}
			seenFmt = true
		case "element":
			if len(fields) < 3 {
				return h, fmt.Errorf("invalid PLY element line")
			}
			if seenVertex {
				// elements after the vertices are not read
				inVertex = false
				continue
			}
			if fields[1] != "vertex" {
				return h, fmt.Errorf("PLY element %q precedes the vertices", fields[1])
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return h, fmt.Errorf("invalid PLY vertex count: %s", fields[2])
			}
			h.vertices = n
			inVertex = true
			seenVertex = true
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) < 3 || fields[1] == "list" {
				return h, fmt.Errorf("unsupported PLY vertex property: %s", strings.TrimSpace(line))
			}
			if _, ok := plySizes[fields[1]]; !ok {
				return h, fmt.Errorf("unknown PLY property type: %s", fields[1])
			}
			h.properties = append(h.properties, plyProperty{name: fields[2], kind: fields[1]})
		case "end_header":
			if !seenFmt {
				return h, fmt.Errorf("PLY header has no format line")
			}
			return h, nil
		default:
			return h, fmt.Errorf("unexpected PLY header line: %s", strings.TrimSpace(line))
		}
	}
}

func readASCIIVertex(scanner *bufio.Scanner, values []float64) error {
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(values) {
			return fmt.Errorf("expected %d values, got %d", len(values), len(fields))
		}
		for i := range values {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return err
			}
			values[i] = v
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

func readBinaryVertex(reader io.Reader, props []plyProperty, values []float64) error {
	var buf [8]byte
	for i, p := range props {
		size := plySizes[p.kind]
		if _, err := io.ReadFull(reader, buf[:size]); err != nil {
			return err
		}
		b := buf[:size]
		switch p.kind {
		case "char", "int8":
			values[i] = float64(int8(b[0]))
		case "uchar", "uint8":
			values[i] = float64(b[0])
		case "short", "int16":
			values[i] = float64(int16(binary.LittleEndian.Uint16(b)))
		case "ushort", "uint16":
			values[i] = float64(binary.LittleEndian.Uint16(b))
		case "int", "int32":
			values[i] = float64(int32(binary.LittleEndian.Uint32(b)))
		case "uint", "uint32":
			values[i] = float64(binary.LittleEndian.Uint32(b))
		case "float", "float32":
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case "double", "float64":
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}
	return nil
}

func plyColor(index map[string]int, values []float64) color.NRGBA {
	if r, ok := index["red"]; ok {
		g, b := index["green"], index["blue"]
		return nrgba(clampByte(values[r]), clampByte(values[g]), clampByte(values[b]), 255)
	}
	if r, ok := index["f_dc_0"]; ok {
		g, b := index["f_dc_1"], index["f_dc_2"]
		alpha := uint8(255)
		if o, ok := index["opacity"]; ok {
			// stored as a logit
			alpha = clampByte(255 / (1 + math.Exp(-values[o])))
		}
		return nrgba(
			clampByte((0.5+shC0*values[r])*255),
			clampByte((0.5+shC0*values[g])*255),
			clampByte((0.5+shC0*values[b])*255),
			alpha,
		)
	}
	return nrgba(255, 255, 255, 255)
}

func nrgba(r, g, b, a uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
