package depthsort

import "math"

const (
	// FixedPointScale converts view depth to a fixed-point integer with 12
	// fractional bits before normalization.
	FixedPointScale = 4096

	// MaxKey is the largest quantized depth key. Keys fill a 16-bit range
	// inside a uint32 container.
	MaxKey = 0xFFFF
)

// DepthRange reports the fixed-point depth extremes seen by one quantization.
type DepthRange struct {
	Min int32
	Max int32
	// Degenerate is set when every primitive had the same fixed-point depth
	// (or there were none); all keys are 0 in that case.
	Degenerate bool
}

// Quantizer turns view depths into normalized 16-bit sort keys.
type Quantizer struct {
	// Scale is the fixed-point multiplier. Zero means FixedPointScale.
	Scale float64
}

// DefaultQuantizer uses FixedPointScale.
var DefaultQuantizer = Quantizer{Scale: FixedPointScale}

// CalculateDepth writes a depth key per primitive into depthKeys and the
// identity permutation into indices, using DefaultQuantizer.
//
// positions holds n interleaved xyz triples. depthKeys and indices must have
// room for n entries; entries past n are left untouched. Nothing is allocated.
func CalculateDepth(view *ViewTransform, positions []float32, depthKeys, indices []uint32, n int) {
	DefaultQuantizer.Quantize(view, positions, depthKeys, indices, n)
}

// Quantize is CalculateDepth with a configurable scale. It returns the
// fixed-point range the keys were normalized against.
func (q Quantizer) Quantize(view *ViewTransform, positions []float32, depthKeys, indices []uint32, n int) DepthRange {
	if n <= 0 {
		return DepthRange{Degenerate: true}
	}

	scale := q.Scale
	if scale == 0 {
		scale = FixedPointScale
	}

	positions = positions[:3*n]
	depthKeys = depthKeys[:n]
	indices = indices[:n]

	// First pass: fixed-point depth, stored as its two's complement bit pattern
	// until the range is known.
	minDepth := int32(math.MaxInt32)
	maxDepth := int32(math.MinInt32)
	for i := range depthKeys {
		d := view.Depth(positions[3*i], positions[3*i+1], positions[3*i+2])
		raw := saturateInt32(d * scale)
		depthKeys[i] = uint32(raw)
		if raw < minDepth {
			minDepth = raw
		}
		if raw > maxDepth {
			maxDepth = raw
		}
	}

	r := DepthRange{Min: minDepth, Max: maxDepth}
	if minDepth == maxDepth {
		r.Degenerate = true
		for i := range depthKeys {
			depthKeys[i] = 0
			indices[i] = uint32(i)
		}
		return r
	}

	// int64 so a span of the full int32 range cannot overflow.
	invRange := 1 / float64(int64(maxDepth)-int64(minDepth))
	for i := range depthKeys {
		offset := int64(int32(depthKeys[i])) - int64(minDepth)
		key := math.Round(float64(offset) * invRange * MaxKey)
		if key > MaxKey {
			key = MaxKey
		}
		depthKeys[i] = uint32(key)
		indices[i] = uint32(i)
	}
	return r
}

// saturateInt32 rounds v to the nearest integer and clamps it into the int32
// range. NaN maps to 0.
func saturateInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math.Round(v))
}
