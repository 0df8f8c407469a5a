package tui

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChristianF88/splatsort/config"
	"github.com/ChristianF88/splatsort/output"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const histogramRows = 16

// App represents the TUI application
type App struct {
	app          *tview.Application
	pages        *tview.Pages
	progressView *tview.TextView
	summary      *tview.TextView
	histogram    *tview.TextView
	statusBar    *tview.TextView

	cfg *config.Config

	// Shared mutable state protected by mu (accessed from background goroutines)
	mu           sync.Mutex
	result       *output.SortOutput
	currentFrame int

	sortComplete atomic.Bool
}

// NewApp creates a new TUI application for one sort run
func NewApp(cfg *config.Config) *App {
	a := &App{
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
		cfg:   cfg,
	}
	a.setupUI()
	return a
}

// SetResults hands the finished report to the UI
func (a *App) SetResults(result *output.SortOutput) {
	if result == nil {
		return
	}
	if len(result.Frames) == 0 {
		a.ShowError("Sort completed but produced no frames")
		return
	}

	a.mu.Lock()
	a.result = result
	a.currentFrame = 0
	a.mu.Unlock()

	a.sortComplete.Store(true)

	a.app.QueueUpdateDraw(func() {
		a.displayResults()
		a.pages.SwitchToPage("summary")
		a.updateStatusBar()
	})
}

// ShowError displays an error message in the TUI and stops the progress animation
func (a *App) ShowError(message string) {
	a.app.QueueUpdateDraw(func() {
		a.progressView.SetText(fmt.Sprintf("[red]Error:[white] %s\n\n[yellow]Press 'q' to quit[white]", message))
		a.statusBar.SetText("[red]Sort failed[white] | Press 'q' to quit")
	})
	a.sortComplete.Store(true)
}

func (a *App) setupUI() {
	a.progressView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(false)
	a.progressView.SetBorder(true).SetTitle(" splatsort ").SetTitleAlign(tview.AlignCenter)

	a.summary = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.summary.SetBorder(true).SetTitle(" Summary ")

	a.histogram = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	a.histogram.SetBorder(true).SetTitle(" Depth Key Histogram ")

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetText("[yellow]Sorting...[white] | Press 'q' to quit")
	a.statusBar.SetBorder(false)

	page := func(p tview.Primitive) *tview.Flex {
		return tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(p, 0, 1, true).
			AddItem(a.statusBar, 1, 0, false)
	}
	a.pages.AddPage("progress", page(a.progressView), true, true)
	a.pages.AddPage("summary", page(a.summary), true, false)
	a.pages.AddPage("histogram", page(a.histogram), true, false)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			a.app.Stop()
			return nil
		case 's', 'S':
			if a.sortComplete.Load() {
				a.pages.SwitchToPage("summary")
				a.updateStatusBar()
			}
			return nil
		case 'h', 'H':
			if a.sortComplete.Load() {
				a.pages.SwitchToPage("histogram")
				a.updateStatusBar()
			}
			return nil
		case 'f', 'F':
			if a.sortComplete.Load() {
				a.nextFrame()
			}
			return nil
		}
		return event
	})

	a.app.SetRoot(a.pages, true)
}

// Run starts the event loop; results arrive through SetResults
func (a *App) Run() error {
	go a.animateProgress()
	return a.app.Run()
}

func (a *App) animateProgress() {
	dots := 0
	for !a.sortComplete.Load() {
		var file string
		if a.cfg != nil && a.cfg.Scene != nil {
			file = a.cfg.Scene.File
		}
		content := fmt.Sprintf(`
[white::b]splatsort[white::-]

[yellow]▶[white] Quantizing and sorting%s

[dim]Scene:[white] %s

[dim]Press 'q' to quit[white]
`, strings.Repeat(".", dots%4), file)

		a.app.QueueUpdateDraw(func() {
			a.progressView.SetText(content)
		})
		time.Sleep(200 * time.Millisecond)
		dots++
	}
}

func (a *App) nextFrame() {
	a.mu.Lock()
	if a.result == nil || len(a.result.Frames) < 2 {
		a.mu.Unlock()
		return
	}
	a.currentFrame = (a.currentFrame + 1) % len(a.result.Frames)
	a.mu.Unlock()

	a.displayResults()
	a.updateStatusBar()
}

func (a *App) displayResults() {
	a.mu.Lock()
	result, idx := a.result, a.currentFrame
	a.mu.Unlock()
	if result == nil {
		return
	}

	a.summary.SetText(buildSummaryText(result, idx))
	a.summary.ScrollToBeginning()
	a.histogram.SetText(buildHistogramText(result.Frames[idx].KeyBuckets, 50))
	a.histogram.ScrollToBeginning()
}

func (a *App) updateStatusBar() {
	if !a.sortComplete.Load() {
		a.statusBar.SetText("[yellow]Sorting...[white] | Press 'q' to quit")
		return
	}

	a.mu.Lock()
	frames := 0
	if a.result != nil {
		frames = len(a.result.Frames)
	}
	idx := a.currentFrame
	a.mu.Unlock()

	frontPageName, _ := a.pages.GetFrontPage()
	frameInfo := ""
	if frames > 1 {
		frameInfo = fmt.Sprintf(" | [cyan]Frame %d/%d[white], 'f': next frame", idx+1, frames)
	}
	a.statusBar.SetText(fmt.Sprintf("[green]Sort complete![white] | [yellow]%s[white]%s | 's': summary, 'h': histogram, 'q': quit",
		frontPageName, frameInfo))
}

// buildSummaryText renders the run header and one frame.
func buildSummaryText(result *output.SortOutput, frameIdx int) string {
	var b strings.Builder

	b.WriteString("[white::b]Scene[white::-]\n")
	if result.Scene.File != "" {
		fmt.Fprintf(&b, "  [dim]File:[white]       %s (%s)\n", result.Scene.File, result.Scene.Format)
	}
	fmt.Fprintf(&b, "  [dim]Primitives:[white] %d\n", result.Scene.Primitives)
	fmt.Fprintf(&b, "  [dim]Load time:[white]  %d ms\n\n", result.Scene.LoadTimeMS)

	b.WriteString("[white::b]Sort[white::-]\n")
	fmt.Fprintf(&b, "  [dim]Passes:[white] %d\n", result.Sort.Passes)
	fmt.Fprintf(&b, "  [dim]Order:[white]  %s\n", result.Sort.Order)
	fmt.Fprintf(&b, "  [dim]Scale:[white]  %g\n\n", result.Sort.FixedPointScale)

	if frameIdx >= 0 && frameIdx < len(result.Frames) {
		f := result.Frames[frameIdx]
		fmt.Fprintf(&b, "[white::b]Frame %d[white::-]\n", f.Frame)
		fmt.Fprintf(&b, "  [dim]Quantize:[white] %d µs\n", f.QuantizeUS)
		fmt.Fprintf(&b, "  [dim]Sort:[white]     %d µs\n", f.SortUS)
		if f.DepthRange.Degenerate {
			b.WriteString("  [dim]Depth:[white]    [yellow]degenerate[white] (all keys 0)\n")
		} else {
			fmt.Fprintf(&b, "  [dim]Depth:[white]    %d to %d\n", f.DepthRange.Min, f.DepthRange.Max)
		}
		fmt.Fprintf(&b, "  [dim]Buckets:[white]  %d/256 in use\n", len(f.KeyBuckets))
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n[yellow::b]Warnings[white::-]\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  %s: %s\n", w.Type, w.Message)
		}
	}
	return b.String()
}

// buildHistogramText folds the 256 high-byte buckets into histogramRows bars
// scaled to width characters.
func buildHistogramText(buckets []output.KeyBucket, width int) string {
	var rows [histogramRows]uint32
	per := 256 / histogramRows
	for _, bucket := range buckets {
		rows[int(bucket.HighByte)/per] += bucket.Count
	}

	var maxCount uint32
	for _, c := range rows {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder
	b.WriteString("[dim]keys          near → far[white]\n\n")
	for i, c := range rows {
		bar := 0
		if maxCount > 0 {
			bar = int(uint64(c) * uint64(width) / uint64(maxCount))
		}
		lo := i * per << 8
		hi := ((i+1)*per<<8 - 1)
		fmt.Fprintf(&b, "0x%04X-0x%04X [green]%s[white] %d\n", lo, hi, strings.Repeat("█", bar), c)
	}
	return b.String()
}
