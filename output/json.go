package output

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ChristianF88/splatsort/sorter"
	"github.com/ChristianF88/splatsort/version"
)

// SortOutput represents the complete sort report
type SortOutput struct {
	Metadata Metadata   `json:"metadata"`
	Scene    SceneInfo  `json:"scene"`
	Sort     SortParams `json:"sort"`
	Frames   []Frame    `json:"frames"`
	Outputs  *Artifacts `json:"outputs,omitempty"`
	Warnings []Warning  `json:"warnings"`
	Errors   []Error    `json:"errors"`

	// Mutex for thread-safe warning/error/frame appending
	mu sync.Mutex `json:"-"`
}

// Metadata contains information about the run
type Metadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Mode        string    `json:"mode"`
	Version     string    `json:"version"`
	DurationMS  int64     `json:"duration_ms"`
}

// SceneInfo describes the loaded scene
type SceneInfo struct {
	File       string `json:"file,omitempty"`
	Format     string `json:"format,omitempty"`
	Primitives int    `json:"primitives"`
	LoadTimeMS int64  `json:"load_time_ms"`
}

// SortParams contains the sort configuration in effect
type SortParams struct {
	Passes          int     `json:"passes"`
	Order           string  `json:"order"`
	FixedPointScale float64 `json:"fixed_point_scale"`
}

// Frame is the result of sorting one camera transform
type Frame struct {
	Scene      string      `json:"scene,omitempty"`
	Frame      uint64      `json:"frame"`
	Primitives int         `json:"primitives"`
	QuantizeUS int64       `json:"quantize_us"`
	SortUS     int64       `json:"sort_us"`
	DepthRange DepthRange  `json:"depth_range"`
	KeyBuckets []KeyBucket `json:"key_buckets,omitempty"`
	Order      []uint32    `json:"order,omitempty"`
	ViewProj   [16]float32 `json:"view_proj"`
}

// DepthRange is the fixed-point depth span of a frame
type DepthRange struct {
	Min        int32 `json:"min"`
	Max        int32 `json:"max"`
	Degenerate bool  `json:"degenerate,omitempty"`
}

// KeyBucket counts the primitives whose key shares a high byte
type KeyBucket struct {
	HighByte uint8  `json:"high_byte"`
	Count    uint32 `json:"count"`
}

// Artifacts lists files written alongside the report
type Artifacts struct {
	PlotPath string `json:"plot_path,omitempty"`
	RampPath string `json:"ramp_path,omitempty"`
}

// Warning represents a warning message
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Error represents an error message
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// NewSortOutput creates a new SortOutput with default metadata
func NewSortOutput(mode string, startTime time.Time) *SortOutput {
	return &SortOutput{
		Metadata: Metadata{
			GeneratedAt: time.Now().UTC(),
			Mode:        mode,
			Version:     version.Version,
			DurationMS:  time.Since(startTime).Milliseconds(),
		},
		Frames:   []Frame{},
		Warnings: []Warning{},
		Errors:   []Error{},
	}
}

// NewFrame converts a sorter result. The draw order is only included when
// includeOrder is set; non-empty key buckets always are.
func NewFrame(scene string, res sorter.Result, includeOrder bool) Frame {
	f := Frame{
		Scene:      scene,
		Frame:      res.Frame,
		Primitives: len(res.Order),
		QuantizeUS: res.QuantizeDuration.Microseconds(),
		SortUS:     res.SortDuration.Microseconds(),
		DepthRange: DepthRange{
			Min:        res.Range.Min,
			Max:        res.Range.Max,
			Degenerate: res.Range.Degenerate,
		},
		ViewProj: res.View,
	}
	for hi, count := range res.KeyHistogram {
		if count > 0 {
			f.KeyBuckets = append(f.KeyBuckets, KeyBucket{HighByte: uint8(hi), Count: count})
		}
	}
	if includeOrder {
		f.Order = res.Order
	}
	return f
}

// ToJSON converts the output to pretty-printed JSON
func (o *SortOutput) ToJSON() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// ToCompactJSON converts the output to compact JSON
func (o *SortOutput) ToCompactJSON() ([]byte, error) {
	return json.Marshal(o)
}

// AddFrame appends a frame (thread-safe)
func (o *SortOutput) AddFrame(f Frame) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Frames = append(o.Frames, f)
}

// AddWarning adds a warning to the output (thread-safe)
func (o *SortOutput) AddWarning(warningType, message string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Warnings = append(o.Warnings, Warning{
		Type:    warningType,
		Message: message,
		Count:   count,
	})
}

// AddError adds an error to the output (thread-safe)
func (o *SortOutput) AddError(errorType, message string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Errors = append(o.Errors, Error{
		Type:    errorType,
		Message: message,
		Count:   count,
	})
}

// UpdateDuration updates the duration in metadata
func (o *SortOutput) UpdateDuration(startTime time.Time) {
	o.Metadata.DurationMS = time.Since(startTime).Milliseconds()
}
