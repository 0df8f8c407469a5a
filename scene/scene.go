package scene

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChristianF88/splatsort/pools"
)

type Format string

const (
	// FormatSplat is the antimatter15 .splat layout: 32 bytes per splat.
	FormatSplat Format = "splat"
	// FormatXYZ is plain text, one "x y z" triple per line.
	FormatXYZ Format = "xyz"
)

// SplatRecordSize is the byte size of one .splat record:
// position 3×float32, scale 3×float32, color 4×uint8, rotation 4×uint8.
const SplatRecordSize = 32

var ErrTruncatedRecord = errors.New("truncated splat record")

// Scene is the sortable part of a splat scene. Positions are interleaved xyz.
// Colors holds 4 bytes (RGBA) per splat and is nil for formats without color.
type Scene struct {
	Source    string
	Format    Format
	Positions []float32
	Colors    []uint8
	Count     int
}

// ParseFormat maps a format name to a Format. Empty input means "infer".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "splat":
		return FormatSplat, nil
	case "xyz", "txt":
		return FormatXYZ, nil
	default:
		return "", fmt.Errorf("unknown scene format %q", s)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer scene format of %s: no extension", path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("cannot infer scene format of %s: %w", path, err)
	}
	return f, nil
}

// Load reads a scene file. An empty format is inferred from the extension.
func Load(path string, format Format) (*Scene, error) {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene %s: %w", path, err)
	}
	defer f.Close()

	var s *Scene
	switch format {
	case FormatSplat:
		s, err = ReadSplat(f)
	case FormatXYZ:
		s, err = ReadXYZ(f)
	default:
		return nil, fmt.Errorf("unknown scene format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// ReadSplat decodes a .splat stream. A trailing partial record is an error.
func ReadSplat(r io.Reader) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%SplatRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedRecord, len(data)%SplatRecordSize)
	}

	n := len(data) / SplatRecordSize
	s := &Scene{
		Format:    FormatSplat,
		Positions: pools.Pools.GetFloat32Slice(3 * n),
		Colors:    make([]uint8, 4*n),
		Count:     n,
	}
	for i := 0; i < n; i++ {
		rec := data[i*SplatRecordSize : (i+1)*SplatRecordSize]
		s.Positions[3*i+0] = math.Float32frombits(binary.LittleEndian.Uint32(rec[0:]))
		s.Positions[3*i+1] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4:]))
		s.Positions[3*i+2] = math.Float32frombits(binary.LittleEndian.Uint32(rec[8:]))
		copy(s.Colors[4*i:4*i+4], rec[24:28])
	}
	return s, nil
}

// Release hands the position buffer back to the pool. The scene must not be
// sorted afterwards.
func (s *Scene) Release() {
	pools.Pools.ReturnFloat32Slice(s.Positions)
	s.Positions = nil
	s.Count = 0
}

// ReadXYZ parses whitespace or comma separated xyz triples, one per line.
// Blank lines and lines starting with '#' are skipped.
func ReadXYZ(r io.Reader) (*Scene, error) {
	s := &Scene{Format: FormatXYZ}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 coordinates, got %d", lineNum, len(fields))
		}
		for _, field := range fields[:3] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate %q: %w", lineNum, field, err)
			}
			s.Positions = append(s.Positions, float32(v))
		}
		s.Count++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteSplat encodes positions as .splat records with unit scale, opaque white
// color and identity rotation. Used to produce fixtures and converted scenes.
func WriteSplat(w io.Writer, positions []float32) error {
	if len(positions)%3 != 0 {
		return fmt.Errorf("positions length %d is not a multiple of 3", len(positions))
	}
	bw := bufio.NewWriter(w)
	var rec [SplatRecordSize]byte
	for i := 0; i < len(positions)/3; i++ {
		binary.LittleEndian.PutUint32(rec[0:], math.Float32bits(positions[3*i+0]))
		binary.LittleEndian.PutUint32(rec[4:], math.Float32bits(positions[3*i+1]))
		binary.LittleEndian.PutUint32(rec[8:], math.Float32bits(positions[3*i+2]))
		for j := 12; j < 24; j += 4 {
			binary.LittleEndian.PutUint32(rec[j:], math.Float32bits(1))
		}
		rec[24], rec[25], rec[26], rec[27] = 255, 255, 255, 255
		// Rotation bytes encode (q-128)/128; identity quaternion is (1, 0, 0, 0)
		rec[28], rec[29], rec[30], rec[31] = 255, 128, 128, 128
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
