package pools

import "testing"

func TestGetUint32Slice_Length(t *testing.T) {
	for _, n := range []int{0, 1, 100, 10000} {
		s := Pools.GetUint32Slice(n)
		if len(s) != n {
			t.Errorf("GetUint32Slice(%d): got length %d", n, len(s))
		}
		Pools.ReturnUint32Slice(s)
	}
}

func TestGetFloat32Slice_Length(t *testing.T) {
	for _, n := range []int{0, 3, 300, 30000} {
		s := Pools.GetFloat32Slice(n)
		if len(s) != n {
			t.Errorf("GetFloat32Slice(%d): got length %d", n, len(s))
		}
		Pools.ReturnFloat32Slice(s)
	}
}

func TestReturnUint32Slice_Nil(t *testing.T) {
	// Must not panic or poison the pool
	Pools.ReturnUint32Slice(nil)
	s := Pools.GetUint32Slice(8)
	if len(s) != 8 {
		t.Errorf("expected length 8, got %d", len(s))
	}
}

func TestHistogramPool(t *testing.T) {
	h := Pools.GetHistogram()
	if h == nil {
		t.Fatal("expected histogram, got nil")
	}
	h[0] = 5
	Pools.ReturnHistogram(h)
	Pools.ReturnHistogram(nil)

	h2 := Pools.GetHistogram()
	if h2 == nil {
		t.Fatal("expected histogram, got nil")
	}
}

func TestReset(t *testing.T) {
	Pools.Reset()

	if s := Pools.GetUint32Slice(4); len(s) != 4 {
		t.Errorf("expected length 4 after reset, got %d", len(s))
	}
	if s := Pools.GetFloat32Slice(6); len(s) != 6 {
		t.Errorf("expected length 6 after reset, got %d", len(s))
	}
	if Pools.GetHistogram() == nil {
		t.Error("expected histogram after reset")
	}
}
