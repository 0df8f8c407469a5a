package depthsort

import (
	"fmt"
	"strings"
)

// Order selects the draw order produced from ascending depth keys.
type Order uint8

const (
	// Ascending draws the smallest depth key first.
	Ascending Order = iota
	// Descending draws the largest depth key first.
	Descending
)

// ParseOrder accepts "ascending"/"asc" and "descending"/"desc". An empty
// string is Ascending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort order %q", s)
	}
}

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// Reverse flips the first n entries of indices in place.
func Reverse(indices []uint32, n int) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}
}

// Sort quantizes positions against view and returns the primitive indices in
// the requested order. It allocates its own buffers and is meant for tooling
// and tests; frame loops should hold buffers and call CalculateDepth and
// SortIndices directly.
func Sort(view *ViewTransform, positions []float32, order Order) []uint32 {
	n := len(positions) / 3
	keys := make([]uint32, n)
	indices := make([]uint32, n)
	scratch := make([]uint32, n)

	CalculateDepth(view, positions, keys, indices, n)
	out := SortIndices(keys, indices, scratch, nil, n, QuantizedPasses)
	if order == Descending {
		Reverse(out, n)
	}
	return out
}
