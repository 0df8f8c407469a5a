package output

import (
	"fmt"
	"io"
	"strings"
)

// WritePlain formats the report as human-readable text.
func WritePlain(w io.Writer, o *SortOutput) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== splatsort %s (%s) ===\n", o.Metadata.Mode, o.Metadata.Version)
	fmt.Fprintf(&b, "Generated: %s\n", o.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Duration:  %d ms\n\n", o.Metadata.DurationMS)

	if o.Scene.File != "" {
		fmt.Fprintf(&b, "Scene:      %s (%s)\n", o.Scene.File, o.Scene.Format)
	}
	fmt.Fprintf(&b, "Primitives: %d\n", o.Scene.Primitives)
	fmt.Fprintf(&b, "Load time:  %d ms\n\n", o.Scene.LoadTimeMS)

	fmt.Fprintf(&b, "Sort: %d pass(es), %s, fixed-point scale %g\n\n", o.Sort.Passes, o.Sort.Order, o.Sort.FixedPointScale)

	for _, f := range o.Frames {
		if f.Scene != "" {
			fmt.Fprintf(&b, "Frame %d [%s]\n", f.Frame, f.Scene)
		} else {
			fmt.Fprintf(&b, "Frame %d\n", f.Frame)
		}
		fmt.Fprintf(&b, "  Quantize: %d us, sort: %d us\n", f.QuantizeUS, f.SortUS)
		if f.DepthRange.Degenerate {
			b.WriteString("  Depth range: degenerate (all keys 0)\n")
		} else {
			fmt.Fprintf(&b, "  Depth range: [%d, %d]\n", f.DepthRange.Min, f.DepthRange.Max)
		}
		fmt.Fprintf(&b, "  Key buckets in use: %d/256\n", len(f.KeyBuckets))
		if len(f.Order) > 0 {
			fmt.Fprintf(&b, "  Order: %s\n", formatOrder(f.Order, 16))
		}
	}

	if o.Outputs != nil {
		b.WriteString("\n")
		if o.Outputs.PlotPath != "" {
			fmt.Fprintf(&b, "Histogram: %s\n", o.Outputs.PlotPath)
		}
		if o.Outputs.RampPath != "" {
			fmt.Fprintf(&b, "Key ramp:  %s\n", o.Outputs.RampPath)
		}
	}

	for _, warning := range o.Warnings {
		fmt.Fprintf(&b, "WARNING [%s]: %s\n", warning.Type, warning.Message)
	}
	for _, e := range o.Errors {
		fmt.Fprintf(&b, "ERROR [%s]: %s\n", e.Type, e.Message)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatOrder prints at most limit indices.
func formatOrder(order []uint32, limit int) string {
	n := len(order)
	if n > limit {
		n = limit
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%d", order[i])
	}
	s := strings.Join(parts, " ")
	if len(order) > limit {
		s += fmt.Sprintf(" ... (%d more)", len(order)-limit)
	}
	return s
}
