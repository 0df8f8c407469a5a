package sorter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/testutil"
)

func TestSorter_Example(t *testing.T) {
	s := New([]float32{0, 0, 5, 0, 0, 1, 0, 0, 3}, Options{KeepKeys: true})
	defer s.Close()

	view := depthsort.Identity()
	res, err := s.Sort(&view)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	expected := []uint32{1, 2, 0}
	for i, v := range res.Order {
		if v != expected[i] {
			t.Errorf("index %d: expected %d, got %d", i, expected[i], v)
		}
	}
	if res.Passes != depthsort.QuantizedPasses {
		t.Errorf("expected %d passes, got %d", depthsort.QuantizedPasses, res.Passes)
	}
	if res.Frame != 1 {
		t.Errorf("expected frame 1, got %d", res.Frame)
	}
	if len(res.Keys) != 3 || res.Keys[0] != depthsort.MaxKey {
		t.Errorf("unexpected keys %v", res.Keys)
	}

	var total uint32
	for _, c := range res.KeyHistogram {
		total += c
	}
	if total != 3 || res.KeyHistogram[0xFF] != 1 || res.KeyHistogram[0] != 1 {
		t.Errorf("unexpected key histogram totals: total=%d", total)
	}
}

func TestSorter_Descending(t *testing.T) {
	s := New([]float32{0, 0, 5, 0, 0, 1, 0, 0, 3}, Options{Order: depthsort.Descending})
	defer s.Close()

	view := depthsort.Identity()
	res, err := s.Sort(&view)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	expected := []uint32{0, 2, 1}
	for i, v := range res.Order {
		if v != expected[i] {
			t.Errorf("index %d: expected %d, got %d", i, expected[i], v)
		}
	}
	if res.Keys != nil {
		t.Error("keys must not be copied unless KeepKeys is set")
	}
}

func TestSorter_Empty(t *testing.T) {
	s := New(nil, Options{})
	defer s.Close()

	view := depthsort.Identity()
	res, err := s.Sort(&view)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if len(res.Order) != 0 || s.Count() != 0 {
		t.Errorf("expected empty order, got %v", res.Order)
	}
	if !res.Range.Degenerate {
		t.Error("empty scene should report a degenerate range")
	}
}

func TestSorter_MatchesKernel(t *testing.T) {
	positions := testutil.RandomPositions(3, 20000, 80)
	view := depthsort.ViewTransform{
		0.6, 0, 0.8, 0,
		0, 1, 0.1, 0,
		-0.8, 0, 0.6, 0,
		0, 0, -4, 1,
	}

	s := New(positions, Options{Passes: depthsort.MaxPasses})
	defer s.Close()

	// Sort twice: buffers are reused between frames
	for frame := 0; frame < 2; frame++ {
		res, err := s.Sort(&view)
		if err != nil {
			t.Fatalf("Sort failed: %v", err)
		}
		want := depthsort.Sort(&view, positions, depthsort.Ascending)
		for i := range want {
			if res.Order[i] != want[i] {
				t.Fatalf("frame %d: mismatch at %d: sorter=%d kernel=%d", frame, i, res.Order[i], want[i])
			}
		}
	}
}

func TestSorter_ResultIsCopy(t *testing.T) {
	s := New([]float32{0, 0, 2, 0, 0, 1}, Options{})
	defer s.Close()

	view := depthsort.Identity()
	first, _ := s.Sort(&view)

	view[10] = -1
	second, _ := s.Sort(&view)

	if first.Order[0] != 1 || second.Order[0] != 0 {
		t.Errorf("earlier results must not change: first=%v second=%v", first.Order, second.Order)
	}
}

func TestSorter_PassesClamped(t *testing.T) {
	s := New([]float32{0, 0, 1}, Options{Passes: 99})
	defer s.Close()
	if s.Options().Passes != depthsort.MaxPasses {
		t.Errorf("expected passes clamped to %d, got %d", depthsort.MaxPasses, s.Options().Passes)
	}
}

func TestSorter_Closed(t *testing.T) {
	s := New([]float32{0, 0, 1}, Options{})
	s.Close()
	s.Close() // idempotent

	view := depthsort.Identity()
	if _, err := s.Sort(&view); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSorter_ConcurrentCallsSerialized(t *testing.T) {
	positions := testutil.RandomPositions(9, 5000, 10)
	s := New(positions, Options{})
	defer s.Close()

	view := depthsort.Identity()
	want := depthsort.Sort(&view, positions, depthsort.Ascending)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := depthsort.Identity()
			res, err := s.Sort(&v)
			if err != nil {
				t.Errorf("Sort failed: %v", err)
				return
			}
			for i := range want {
				if res.Order[i] != want[i] {
					t.Errorf("mismatch at %d", i)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestThrottle_SortsLatestView(t *testing.T) {
	s := New([]float32{0, 0, 2, 0, 0, 1}, Options{})
	defer s.Close()

	th := NewThrottle(s)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- th.Run(ctx) }()

	flipped := depthsort.Identity()
	flipped[10] = -1
	th.Update(flipped)

	select {
	case res := <-th.Results():
		if res.Order[0] != 0 {
			t.Errorf("expected flipped order [0 1], got %v", res.Order)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, ok := <-th.Results(); ok {
		t.Error("results channel should be closed after Run returns")
	}
}

func TestThrottle_CoalescesUpdates(t *testing.T) {
	s := New([]float32{0, 0, 2, 0, 0, 1}, Options{})
	defer s.Close()

	th := NewThrottle(s)

	// Queue several updates before the loop starts: only the newest is sorted
	for i := 0; i < 10; i++ {
		v := depthsort.Identity()
		v[10] = float32(i)
		th.Update(v)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	select {
	case res := <-th.Results():
		if res.View[10] != 9 {
			t.Errorf("expected newest view to be sorted, got depth factor %v", res.View[10])
		}
		if res.Frame != 1 {
			t.Errorf("expected a single sort, got frame %d", res.Frame)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	// Same view again is not re-sorted
	v := depthsort.Identity()
	v[10] = 9
	th.Update(v)
	select {
	case res := <-th.Results():
		t.Errorf("unexpected re-sort of unchanged view: frame %d", res.Frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestThrottle_StopsWhenSorterClosed(t *testing.T) {
	s := New([]float32{0, 0, 1}, Options{})
	s.Close()

	th := NewThrottle(s)
	th.Update(depthsort.Identity())

	if err := th.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := New([]float32{0, 0, 1}, Options{})
	b := New([]float32{0, 0, 1, 0, 0, 2}, Options{})

	if err := r.Add("garden", a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add("bicycle", b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add("garden", b); err == nil {
		t.Error("expected duplicate name error")
	}

	if got, ok := r.Get("bicycle"); !ok || got.Count() != 2 {
		t.Errorf("Get(bicycle) = %v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "bicycle" || names[1] != "garden" {
		t.Errorf("unexpected names %v", names)
	}

	if !r.Remove("garden") {
		t.Error("Remove(garden) should succeed")
	}
	if r.Remove("garden") {
		t.Error("second Remove(garden) should fail")
	}
	view := depthsort.Identity()
	if _, err := a.Sort(&view); !errors.Is(err, ErrClosed) {
		t.Errorf("removed sorter should be closed, got %v", err)
	}

	r.Close()
	if r.Len() != 0 {
		t.Errorf("expected empty registry after Close, got %d", r.Len())
	}
}
