package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/sorter"
)

func sampleResult() sorter.Result {
	res := sorter.Result{
		Frame:            3,
		View:             depthsort.Identity(),
		Order:            []uint32{1, 2, 0},
		Keys:             []uint32{0xFFFF, 0, 0x7FFF},
		Range:            depthsort.DepthRange{Min: 4096, Max: 20480},
		Passes:           2,
		QuantizeDuration: 12 * time.Microsecond,
		SortDuration:     30 * time.Microsecond,
	}
	res.KeyHistogram[0x00] = 1
	res.KeyHistogram[0x7F] = 1
	res.KeyHistogram[0xFF] = 1
	return res
}

func TestNewFrame(t *testing.T) {
	f := NewFrame("garden", sampleResult(), false)

	if f.Scene != "garden" || f.Frame != 3 || f.Primitives != 3 {
		t.Errorf("unexpected frame header: %+v", f)
	}
	if f.QuantizeUS != 12 || f.SortUS != 30 {
		t.Errorf("unexpected timings: quantize=%d sort=%d", f.QuantizeUS, f.SortUS)
	}
	if f.DepthRange.Min != 4096 || f.DepthRange.Max != 20480 || f.DepthRange.Degenerate {
		t.Errorf("unexpected depth range: %+v", f.DepthRange)
	}
	if len(f.KeyBuckets) != 3 || f.KeyBuckets[1].HighByte != 0x7F {
		t.Errorf("unexpected key buckets: %+v", f.KeyBuckets)
	}
	if f.Order != nil {
		t.Error("order must be omitted unless requested")
	}
	if f.ViewProj[10] != 1 {
		t.Errorf("expected identity view, got %v", f.ViewProj)
	}

	withOrder := NewFrame("", sampleResult(), true)
	if len(withOrder.Order) != 3 || withOrder.Order[0] != 1 {
		t.Errorf("expected order [1 2 0], got %v", withOrder.Order)
	}
}

func TestSortOutput_ToJSON_RoundTrip(t *testing.T) {
	out := NewSortOutput("sort", time.Now())
	out.Scene = SceneInfo{File: "garden.splat", Format: "splat", Primitives: 3, LoadTimeMS: 1}
	out.Sort = SortParams{Passes: 2, Order: "ascending", FixedPointScale: 4096}
	out.AddFrame(NewFrame("", sampleResult(), true))
	out.Outputs = &Artifacts{PlotPath: "keys.html"}
	out.AddWarning("degenerate_range", "all primitives share one depth", 1)

	data, err := out.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	var restored SortOutput
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if restored.Metadata.Mode != "sort" {
		t.Errorf("expected mode sort, got %q", restored.Metadata.Mode)
	}
	if restored.Scene.Primitives != 3 || restored.Sort.Order != "ascending" {
		t.Errorf("unexpected scene/sort: %+v %+v", restored.Scene, restored.Sort)
	}
	if len(restored.Frames) != 1 || len(restored.Frames[0].Order) != 3 {
		t.Fatalf("unexpected frames: %+v", restored.Frames)
	}
	if restored.Outputs == nil || restored.Outputs.PlotPath != "keys.html" {
		t.Errorf("unexpected outputs: %+v", restored.Outputs)
	}
	if len(restored.Warnings) != 1 || restored.Warnings[0].Count != 1 {
		t.Errorf("unexpected warnings: %+v", restored.Warnings)
	}
}

func TestSortOutput_EmptySlicesSerialize(t *testing.T) {
	out := NewSortOutput("sort", time.Now())
	data, err := out.ToCompactJSON()
	if err != nil {
		t.Fatalf("ToCompactJSON() error: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"frames":[]`, `"warnings":[]`, `"errors":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"outputs"`) {
		t.Error("outputs should be omitted when nil")
	}
	if strings.Contains(s, "\n") {
		t.Error("compact JSON should not contain newlines")
	}
}

func TestSortOutput_ConcurrentAppends(t *testing.T) {
	out := NewSortOutput("live", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out.AddWarning("w", fmt.Sprintf("warning %d", i), 0)
			out.AddError("e", fmt.Sprintf("error %d", i), 0)
			out.AddFrame(Frame{Frame: uint64(i)})
		}(i)
	}
	wg.Wait()

	if len(out.Warnings) != 50 || len(out.Errors) != 50 || len(out.Frames) != 50 {
		t.Errorf("expected 50 of each, got %d warnings, %d errors, %d frames",
			len(out.Warnings), len(out.Errors), len(out.Frames))
	}
}

func TestUpdateDuration(t *testing.T) {
	start := time.Now().Add(-1500 * time.Millisecond)
	out := NewSortOutput("sort", time.Now())
	out.UpdateDuration(start)
	if out.Metadata.DurationMS < 1500 {
		t.Errorf("expected duration >= 1500ms, got %d", out.Metadata.DurationMS)
	}
}

func TestWritePlain(t *testing.T) {
	out := NewSortOutput("sort", time.Now())
	out.Scene = SceneInfo{File: "garden.splat", Format: "splat", Primitives: 3}
	out.Sort = SortParams{Passes: 2, Order: "ascending", FixedPointScale: 4096}
	out.AddFrame(NewFrame("garden", sampleResult(), true))
	out.AddFrame(Frame{Frame: 4, DepthRange: DepthRange{Degenerate: true}})
	out.Outputs = &Artifacts{RampPath: "ramp.webp"}
	out.AddError("load", "bad record", 2)

	var buf bytes.Buffer
	if err := WritePlain(&buf, out); err != nil {
		t.Fatalf("WritePlain failed: %v", err)
	}
	s := buf.String()
	for _, want := range []string{
		"Scene:      garden.splat (splat)",
		"Primitives: 3",
		"2 pass(es), ascending",
		"Frame 3 [garden]",
		"Depth range: [4096, 20480]",
		"Key buckets in use: 3/256",
		"Order: 1 2 0",
		"degenerate",
		"Key ramp:  ramp.webp",
		"ERROR [load]: bad record",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("plain output missing %q:\n%s", want, s)
		}
	}
}

func TestFormatOrder(t *testing.T) {
	order := make([]uint32, 20)
	for i := range order {
		order[i] = uint32(i)
	}
	got := formatOrder(order, 4)
	if got != "0 1 2 3 ... (16 more)" {
		t.Errorf("unexpected truncated order %q", got)
	}
	if got := formatOrder(order[:2], 4); got != "0 1" {
		t.Errorf("unexpected short order %q", got)
	}
}

func TestPlotKeyHistogram(t *testing.T) {
	var hist depthsort.Histogram
	hist[0] = 10
	hist[0x80] = 25
	hist[0xFF] = 5

	path := filepath.Join(t.TempDir(), "keys.html")
	if err := PlotKeyHistogram(&hist, "test scene", path); err != nil {
		t.Fatalf("PlotKeyHistogram failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read histogram: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "Depth Key Histogram") || !strings.Contains(s, "test scene") {
		t.Error("histogram page is missing its titles")
	}
}

func TestPlotKeyHistogram_BadPath(t *testing.T) {
	var hist depthsort.Histogram
	if err := PlotKeyHistogram(&hist, "x", filepath.Join(t.TempDir(), "missing", "keys.html")); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestKeyRamp(t *testing.T) {
	n := 2048
	keys := make([]uint32, n)
	order := make([]uint32, n)
	for i := 0; i < n; i++ {
		keys[i] = uint32(i * depthsort.MaxKey / (n - 1))
		order[i] = uint32(i)
	}

	img, err := KeyRamp(order, keys)
	if err != nil {
		t.Fatalf("KeyRamp failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != RampWidth || b.Dy() != RampHeight {
		t.Fatalf("unexpected ramp size %v", b)
	}

	left := img.NRGBAAt(0, RampHeight/2)
	right := img.NRGBAAt(RampWidth-1, RampHeight/2)
	if left.R > 16 || right.R < 239 {
		t.Errorf("expected dark-to-bright ramp, got left=%d right=%d", left.R, right.R)
	}
}

func TestKeyRamp_Errors(t *testing.T) {
	if _, err := KeyRamp(nil, nil); err != ErrEmptyRamp {
		t.Errorf("expected ErrEmptyRamp, got %v", err)
	}
	if _, err := KeyRamp([]uint32{5}, []uint32{0}); err == nil {
		t.Error("expected out of range error")
	}
}

func TestWriteKeyRamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.webp")
	if err := WriteKeyRamp(path, []uint32{1, 2, 0}, []uint32{0xFFFF, 0, 0x7FFF}); err != nil {
		t.Fatalf("WriteKeyRamp failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ramp: %v", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Error("ramp file is not a WebP container")
	}
}
