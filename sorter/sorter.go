package sorter

import (
	"errors"
	"sync"
	"time"

	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/pools"
)

var ErrClosed = errors.New("sorter is closed")

// Options configures how a Sorter orders one scene.
type Options struct {
	// Passes is the number of 8-bit radix passes; 0 derives it from MaxKey.
	Passes int
	Order  depthsort.Order
	// Quantizer scale; the zero value uses depthsort.FixedPointScale.
	Quantizer depthsort.Quantizer
	// KeepKeys copies the depth keys into every Result.
	KeepKeys bool
}

// Result is the outcome of one frame sort. Order is owned by the caller.
type Result struct {
	Frame            uint64
	View             depthsort.ViewTransform
	Order            []uint32
	Keys             []uint32
	KeyHistogram     depthsort.Histogram // counts per high byte of the 16-bit key
	Range            depthsort.DepthRange
	Passes           int
	QuantizeDuration time.Duration
	SortDuration     time.Duration
}

// Sorter owns the per-frame buffers of one scene: depth keys, two index
// buffers for ping-ponging and the radix histogram. Positions are borrowed
// and never written. Sort calls are serialized.
type Sorter struct {
	mu        sync.Mutex
	positions []float32
	n         int
	opts      Options

	keys    []uint32
	indices []uint32
	scratch []uint32
	hist    *depthsort.Histogram

	frames uint64
	closed bool
}

// New allocates frame buffers for positions (interleaved xyz) from the
// global pools.
func New(positions []float32, opts Options) *Sorter {
	n := len(positions) / 3
	if opts.Passes <= 0 {
		opts.Passes = depthsort.PassesFor(depthsort.MaxKey)
	}
	if opts.Passes > depthsort.MaxPasses {
		opts.Passes = depthsort.MaxPasses
	}
	return &Sorter{
		positions: positions[:3*n],
		n:         n,
		opts:      opts,
		keys:      pools.Pools.GetUint32Slice(n),
		indices:   pools.Pools.GetUint32Slice(n),
		scratch:   pools.Pools.GetUint32Slice(n),
		hist:      pools.Pools.GetHistogram(),
	}
}

// Count returns the number of primitives in the scene.
func (s *Sorter) Count() int {
	return s.n
}

// Options returns the effective options.
func (s *Sorter) Options() Options {
	return s.opts
}

// Sort orders the scene for view and returns a copy of the draw order.
func (s *Sorter) Sort(view *depthsort.ViewTransform) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrClosed
	}
	s.frames++

	res := Result{
		Frame:  s.frames,
		View:   *view,
		Passes: s.opts.Passes,
	}

	start := time.Now()
	res.Range = s.opts.Quantizer.Quantize(view, s.positions, s.keys, s.indices, s.n)
	res.QuantizeDuration = time.Since(start)

	start = time.Now()
	sorted := depthsort.SortIndices(s.keys, s.indices, s.scratch, s.hist, s.n, s.opts.Passes)
	if s.opts.Order == depthsort.Descending {
		depthsort.Reverse(sorted, s.n)
	}
	res.SortDuration = time.Since(start)

	res.Order = append(make([]uint32, 0, s.n), sorted...)
	for _, k := range s.keys[:s.n] {
		res.KeyHistogram[(k>>depthsort.RadixBits)&0xFF]++
	}
	if s.opts.KeepKeys {
		res.Keys = append(make([]uint32, 0, s.n), s.keys[:s.n]...)
	}
	return res, nil
}

// Close returns the frame buffers to the pools. Further Sort calls fail with
// ErrClosed.
func (s *Sorter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	pools.Pools.ReturnUint32Slice(s.keys)
	pools.Pools.ReturnUint32Slice(s.indices)
	pools.Pools.ReturnUint32Slice(s.scratch)
	pools.Pools.ReturnHistogram(s.hist)
	s.keys, s.indices, s.scratch, s.hist = nil, nil, nil, nil
}
