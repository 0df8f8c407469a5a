package pools

import (
	"sync"

	"github.com/ChristianF88/splatsort/depthsort"
)

// maxPooledLen caps the buffers kept for reuse (16M entries, 64MB per
// uint32 buffer) to prevent memory bloat after one unusually large scene.
const maxPooledLen = 1 << 24

// GlobalPools provides centralized buffer pooling for the frame sorters.
// Buffers are returned with length set to the requested size; contents are
// not cleared, since every user overwrites them before reading.
type GlobalPools struct {
	Uint32Slices  sync.Pool
	Float32Slices sync.Pool
	Histograms    sync.Pool
}

// Pools is the global instance of buffer pools
var Pools = &GlobalPools{
	Uint32Slices: sync.Pool{
		New: func() interface{} {
			slice := make([]uint32, 0, 4096)
			return &slice
		},
	},
	Float32Slices: sync.Pool{
		New: func() interface{} {
			slice := make([]float32, 0, 3*4096)
			return &slice
		},
	},
	Histograms: sync.Pool{
		New: func() interface{} {
			return new(depthsort.Histogram)
		},
	},
}

// GetUint32Slice gets a uint32 slice of length n from the pool, growing it
// when the pooled capacity is too small.
func (gp *GlobalPools) GetUint32Slice(n int) []uint32 {
	slicePtr := gp.Uint32Slices.Get().(*[]uint32)
	if cap(*slicePtr) < n {
		return make([]uint32, n)
	}
	return (*slicePtr)[:n]
}

// ReturnUint32Slice returns a uint32 slice to the pool
func (gp *GlobalPools) ReturnUint32Slice(slice []uint32) {
	if slice != nil && cap(slice) <= maxPooledLen {
		emptySlice := slice[:0]
		gp.Uint32Slices.Put(&emptySlice)
	}
}

// GetFloat32Slice gets a float32 slice of length n from the pool
func (gp *GlobalPools) GetFloat32Slice(n int) []float32 {
	slicePtr := gp.Float32Slices.Get().(*[]float32)
	if cap(*slicePtr) < n {
		return make([]float32, n)
	}
	return (*slicePtr)[:n]
}

// ReturnFloat32Slice returns a float32 slice to the pool
func (gp *GlobalPools) ReturnFloat32Slice(slice []float32) {
	if slice != nil && cap(slice) <= 3*maxPooledLen {
		emptySlice := slice[:0]
		gp.Float32Slices.Put(&emptySlice)
	}
}

// GetHistogram gets a radix histogram. RadixSortPass resets it, so it is not
// cleared here.
func (gp *GlobalPools) GetHistogram() *depthsort.Histogram {
	return gp.Histograms.Get().(*depthsort.Histogram)
}

// ReturnHistogram returns a histogram to the pool
func (gp *GlobalPools) ReturnHistogram(h *depthsort.Histogram) {
	if h != nil {
		gp.Histograms.Put(h)
	}
}

// Reset clears all pools (useful for testing)
func (gp *GlobalPools) Reset() {
	gp.Uint32Slices = sync.Pool{New: gp.Uint32Slices.New}
	gp.Float32Slices = sync.Pool{New: gp.Float32Slices.New}
	gp.Histograms = sync.Pool{New: gp.Histograms.New}
}
