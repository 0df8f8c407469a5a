package main

import (
	"fmt"
	"testing"

	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/sorter"
	"github.com/ChristianF88/splatsort/testutil"
)

// orbit returns a view rotated by angle steps around the y axis.
func orbit(step int) depthsort.ViewTransform {
	views := []depthsort.ViewTransform{
		{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, -4, 1},
		{0.6, 0, 0.8, 0, 0, 1, 0, 0, -0.8, 0, 0.6, 0, 0, 0, -4, 1},
		{0, 0, 1, 0, 0, 1, 0, 0, -1, 0, 0, 0, 0, 0, -4, 1},
		{-0.6, 0, 0.8, 0, 0, 1, 0, 0, -0.8, 0, -0.6, 0, 0, 0, -4, 1},
	}
	return views[step%len(views)]
}

// BenchmarkEndToEnd compares the allocating one-shot sort with the pooled
// Sorter that reuses its buffers between frames
func BenchmarkEndToEnd(b *testing.B) {
	sizes := []int{10000, 100000, 1000000}

	for _, size := range sizes {
		positions := testutil.RandomPositions(int64(size), size, 100)

		b.Run(fmt.Sprintf("OneShot_%d_Splats", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				view := orbit(i)
				_ = depthsort.Sort(&view, positions, depthsort.Ascending)
			}
		})

		b.Run(fmt.Sprintf("Sorter_%d_Splats", size), func(b *testing.B) {
			s := sorter.New(positions, sorter.Options{})
			defer s.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				view := orbit(i)
				if _, err := s.Sort(&view); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPasses shows the cost of extra radix passes over the 16-bit keys
func BenchmarkPasses(b *testing.B) {
	positions := testutil.RandomPositions(7, 500000, 100)
	for passes := 1; passes <= depthsort.MaxPasses; passes++ {
		b.Run(fmt.Sprintf("%d_Passes", passes), func(b *testing.B) {
			s := sorter.New(positions, sorter.Options{Passes: passes})
			defer s.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				view := orbit(i)
				if _, err := s.Sort(&view); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
