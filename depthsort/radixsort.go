package depthsort

const (
	// RadixBits is the digit width of one pass.
	RadixBits = 8
	// RadixBuckets is the number of distinct digit values per pass.
	RadixBuckets = 1 << RadixBits
	// MaxPasses covers a full 32-bit key.
	MaxPasses = 32 / RadixBits
	// QuantizedPasses covers the 16-bit keys produced by CalculateDepth.
	QuantizedPasses = 2
)

// Histogram is per-pass scratch for RadixSortPass. It is reset at the start of
// every pass, so one instance can be reused across passes and frames, but not
// by two passes running at the same time.
type Histogram [RadixBuckets]uint32

// RadixSortPass performs one stable counting-sort pass over the 8-bit digit at
// bitOffset (0, 8, 16 or 24). It reads the permutation in indices and writes
// the reordered permutation to outIndices. Ties keep their input order, which
// is what lets repeated passes from the low digit up converge to a full sort.
//
// indices and outIndices must not alias, and every value in indices must be a
// valid position in depthKeys. hist may be nil, in which case a pass-local
// histogram is used.
func RadixSortPass(depthKeys, indices, outIndices []uint32, hist *Histogram, n int, bitOffset uint) {
	if n <= 0 {
		return
	}
	if hist == nil {
		hist = new(Histogram)
	}

	src := indices[:n]
	dst := outIndices[:n]

	*hist = Histogram{}

	// Count occurrences of each digit
	for _, idx := range src {
		b := (depthKeys[idx] >> bitOffset) & 0xFF
		hist[b]++
	}

	// Convert counts to exclusive starting offsets
	var total uint32
	for b := range hist {
		count := hist[b]
		hist[b] = total
		total += count
	}

	// Scatter in input order
	for _, idx := range src {
		b := (depthKeys[idx] >> bitOffset) & 0xFF
		dst[hist[b]] = idx
		hist[b]++
	}
}

// SortIndices runs passes radix passes over depthKeys, least significant digit
// first, alternating between indices and scratch. It returns the buffer that
// holds the final order (a prefix of length n of either indices or scratch).
//
// passes is clamped to [1, MaxPasses].
func SortIndices(depthKeys, indices, scratch []uint32, hist *Histogram, n, passes int) []uint32 {
	if n <= 0 {
		return indices[:0]
	}
	if passes < 1 {
		passes = 1
	}
	if passes > MaxPasses {
		passes = MaxPasses
	}
	if hist == nil {
		hist = new(Histogram)
	}

	src, dst := indices, scratch
	for p := 0; p < passes; p++ {
		RadixSortPass(depthKeys, src, dst, hist, n, uint(p*RadixBits))
		src, dst = dst, src
	}
	return src[:n]
}

// PassesFor returns how many 8-bit passes are needed to fully order keys no
// larger than maxKey.
func PassesFor(maxKey uint32) int {
	passes := 1
	for maxKey > RadixBuckets-1 && passes < MaxPasses {
		maxKey >>= RadixBits
		passes++
	}
	return passes
}
