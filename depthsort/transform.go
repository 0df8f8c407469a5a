package depthsort

import (
	"fmt"
	"strconv"
	"strings"
)

// ViewTransform is a 4×4 view or view-projection matrix stored column-major,
// the layout WebGL's uniformMatrix4fv expects. Element (row r, column c) lives
// at index c*4+r.
//
// Only the third row contributes to view-space depth: indices 2, 6 and 10.
// The translation term (index 14) is a constant offset for every primitive
// and is dropped, because depth keys only need to preserve ordering.
type ViewTransform [16]float32

// Identity returns the identity transform. Its depth row is (0, 0, 1), so
// primitives sort by their world z coordinate.
func Identity() ViewTransform {
	return ViewTransform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// DepthRow returns the factors applied to x, y and z to obtain view depth.
func (m *ViewTransform) DepthRow() (float32, float32, float32) {
	return m[2], m[6], m[10]
}

// Depth returns the unscaled view-space depth of a point.
func (m *ViewTransform) Depth(x, y, z float32) float64 {
	mx, my, mz := m.DepthRow()
	return float64(mx)*float64(x) + float64(my)*float64(y) + float64(mz)*float64(z)
}

// ParseViewTransform parses 16 comma or whitespace separated numbers in
// column-major order, optionally wrapped in brackets.
func ParseViewTransform(s string) (ViewTransform, error) {
	var m ViewTransform
	s = strings.Trim(strings.TrimSpace(s), "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != len(m) {
		return m, fmt.Errorf("view transform needs %d values, got %d", len(m), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return m, fmt.Errorf("view transform value %d: %w", i, err)
		}
		m[i] = float32(v)
	}
	return m, nil
}

// ViewTransformFromValues converts decoded numbers (float64 or int64, as TOML
// and JSON decoders produce) into a transform.
func ViewTransformFromValues(values []any) (ViewTransform, error) {
	var m ViewTransform
	if len(values) != len(m) {
		return m, fmt.Errorf("view transform needs %d values, got %d", len(m), len(values))
	}
	for i, v := range values {
		switch n := v.(type) {
		case float64:
			m[i] = float32(n)
		case float32:
			m[i] = n
		case int64:
			m[i] = float32(n)
		case int:
			m[i] = float32(n)
		default:
			return m, fmt.Errorf("view transform value %d: unsupported type %T", i, v)
		}
	}
	return m, nil
}
