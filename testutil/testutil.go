package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ChristianF88/splatsort/scene"
)

// RandomPositions returns n interleaved xyz points in [-extent, extent]^3,
// deterministic for a given seed.
func RandomPositions(seed int64, n int, extent float32) []float32 {
	rng := rand.New(rand.NewSource(seed))
	positions := make([]float32, 3*n)
	for i := range positions {
		positions[i] = (rng.Float32()*2 - 1) * extent
	}
	return positions
}

// GenerateTestSplatFile writes positions to a temporary .splat file and
// returns its path. The file is removed when the test ends.
func GenerateTestSplatFile(t testing.TB, positions []float32) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scene.splat")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp splat file: %v", err)
	}
	defer f.Close()

	if err := scene.WriteSplat(f, positions); err != nil {
		t.Fatalf("Failed to write temp splat file: %v", err)
	}
	return path
}

// GenerateTestXYZFile writes positions as a text .xyz file with a header
// comment and returns its path.
func GenerateTestXYZFile(t testing.TB, positions []float32) string {
	t.Helper()

	var content strings.Builder
	content.WriteString("# x y z\n")
	for i := 0; i+2 < len(positions); i += 3 {
		for j := 0; j < 3; j++ {
			if j > 0 {
				content.WriteByte(' ')
			}
			content.WriteString(strconv.FormatFloat(float64(positions[i+j]), 'g', -1, 32))
		}
		content.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), "scene.xyz")
	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		t.Fatalf("Failed to write temp xyz file: %v", err)
	}
	return path
}

// WriteTempFile writes content to name inside a fresh temp dir and returns
// the path.
func WriteTempFile(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file %s: %v", name, err)
	}
	return path
}

// TempFilePath returns a path inside a fresh temp dir. Does not create the
// file.
func TempFilePath(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
