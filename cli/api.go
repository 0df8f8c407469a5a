package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ChristianF88/splatsort/config"
	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/ingestor"
	"github.com/ChristianF88/splatsort/output"
	"github.com/ChristianF88/splatsort/scene"
	"github.com/ChristianF88/splatsort/sorter"
	"github.com/ChristianF88/splatsort/tui"
)

// pollInterval is how long the live loop waits when no batch is pending.
const pollInterval = 10 * time.Millisecond

// OutputConfig contains output formatting options
type OutputConfig struct {
	Compact bool
	Plain   bool
	TUI     bool
}

// SortFromConfig sorts the configured scene once per view. A nil views slice
// sorts the configured camera transform.
func SortFromConfig(cfg *config.Config, views []depthsort.ViewTransform, compact, plain, tui bool) {
	outputConfig := OutputConfig{
		Compact: compact,
		Plain:   plain,
		TUI:     tui,
	}

	if outputConfig.TUI {
		executeTUI(cfg, views)
		return
	}

	result, err := runSort(cfg, views)
	if err != nil {
		result.AddError("sort", err.Error(), 1)
	}
	outputResult(result, outputConfig)
}

// runSort loads the scene, sorts every view and writes the optional
// artifacts. The report is always returned, with partial content on error.
func runSort(cfg *config.Config, views []depthsort.ViewTransform) (*output.SortOutput, error) {
	start := time.Now()
	result := output.NewSortOutput("sort", start)
	result.Sort = output.SortParams{
		Passes:          cfg.Sort.Passes,
		Order:           cfg.Sort.Order,
		FixedPointScale: cfg.Sort.FixedPointScale,
	}

	opts, err := cfg.SortOptions()
	if err != nil {
		return result, err
	}

	format, err := scene.ParseFormat(cfg.Scene.Format)
	if err != nil {
		return result, err
	}
	loadStart := time.Now()
	sc, err := scene.Load(cfg.Scene.File, format)
	if err != nil {
		return result, err
	}
	result.Scene = output.SceneInfo{
		File:       sc.Source,
		Format:     string(sc.Format),
		Primitives: sc.Count,
		LoadTimeMS: time.Since(loadStart).Milliseconds(),
	}

	defer sc.Release()

	s := sorter.New(sc.Positions, opts)
	defer s.Close()
	result.Sort.Passes = s.Options().Passes
	result.Sort.Order = s.Options().Order.String()

	if len(views) == 0 {
		views = []depthsort.ViewTransform{cfg.View()}
	}

	var first sorter.Result
	for i := range views {
		res, err := s.Sort(&views[i])
		if err != nil {
			return result, err
		}
		if i == 0 {
			first = res
		}
		result.AddFrame(output.NewFrame("", res, cfg.Output.IncludeOrder))
		if res.Range.Degenerate && sc.Count > 1 {
			result.AddWarning("degenerate_range", fmt.Sprintf("frame %d: all primitives share one depth, every key is 0", res.Frame), 1)
		}
	}

	if err := writeArtifacts(cfg, result, first); err != nil {
		return result, err
	}

	result.UpdateDuration(start)
	return result, nil
}

// writeArtifacts renders the histogram and ramp of the first frame.
func writeArtifacts(cfg *config.Config, result *output.SortOutput, res sorter.Result) error {
	if cfg.Output.PlotPath == "" && cfg.Output.RampPath == "" {
		return nil
	}
	result.Outputs = &output.Artifacts{}

	if path := cfg.Output.PlotPath; path != "" {
		plotStart := time.Now()
		if err := output.PlotKeyHistogram(&res.KeyHistogram, fmt.Sprintf("%s: depth keys, frame %d", cfg.Scene.File, res.Frame), path); err != nil {
			return err
		}
		result.Outputs.PlotPath = path
		result.AddWarning("info", fmt.Sprintf("Histogram generated in %v at %s", time.Since(plotStart), path), 0)
	}

	if path := cfg.Output.RampPath; path != "" {
		if len(res.Order) == 0 {
			result.AddWarning("ramp_skipped", "scene is empty, no key ramp written", 0)
			return nil
		}
		if err := output.WriteKeyRamp(path, res.Order, res.Keys); err != nil {
			return err
		}
		result.Outputs.RampPath = path
	}
	return nil
}

// executeTUI runs the sort in the background and shows the results in the TUI
func executeTUI(cfg *config.Config, views []depthsort.ViewTransform) {
	app := tui.NewApp(cfg)

	go func() {
		result, err := runSort(cfg, views)
		if err != nil {
			app.ShowError(fmt.Sprintf("Sort failed: %v", err))
			return
		}
		app.SetResults(result)
	}()

	if err := app.Run(); err != nil {
		fmt.Printf("TUI error: %v\n", err)
	}
}

// ============================================================================
// LIVE MODE IMPLEMENTATION
// ============================================================================

// LiveFromConfig runs live mode from a validated config
func LiveFromConfig(cfg *config.Config, compact, plain bool) {
	executeLive(cfg, OutputConfig{Compact: compact, Plain: plain})
}

// liveScene is one registered scene and the throttle that sorts it
type liveScene struct {
	name     string
	scene    *scene.Scene
	throttle *sorter.Throttle
}

// printer serializes report output from the per-scene goroutines
type printer struct {
	mu     sync.Mutex
	config OutputConfig
}

func (p *printer) print(o *output.SortOutput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	outputResult(o, p.config)
}

func (p *printer) info(message string) {
	o := output.NewSortOutput("live", time.Now())
	o.AddWarning("info", message, 0)
	p.print(o)
}

// loadLiveScenes loads every configured scene into the registry.
func loadLiveScenes(cfg *config.Config, registry *sorter.Registry) (map[string]*liveScene, error) {
	opts, err := cfg.SortOptions()
	if err != nil {
		return nil, err
	}

	scenes := make(map[string]*liveScene)
	for name, sceneCfg := range cfg.Scenes() {
		format, err := scene.ParseFormat(sceneCfg.Format)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		sc, err := scene.Load(sceneCfg.File, format)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		s := sorter.New(sc.Positions, opts)
		if err := registry.Add(name, s); err != nil {
			s.Close()
			return nil, err
		}
		scenes[name] = &liveScene{
			name:     name,
			scene:    sc,
			throttle: sorter.NewThrottle(s),
		}
	}
	return scenes, nil
}

// routeEvent finds the scene an event targets. Unnamed events go to the only
// scene when exactly one is loaded.
func routeEvent(scenes map[string]*liveScene, evt ingestor.TransformEvent) (*liveScene, bool) {
	if ls, ok := scenes[evt.Scene]; ok {
		return ls, true
	}
	if evt.Scene == ingestor.DefaultScene && len(scenes) == 1 {
		for _, ls := range scenes {
			return ls, true
		}
	}
	return nil, false
}

// executeLive receives camera transforms and sorts the newest one per scene
func executeLive(cfg *config.Config, outputConfig OutputConfig) {
	out := &printer{config: outputConfig}

	registry := sorter.NewRegistry()
	defer registry.Close()

	scenes, err := loadLiveScenes(cfg, registry)
	if err != nil {
		log.Fatalf("Error loading scenes: %v", err)
	}

	order, _ := depthsort.ParseOrder(cfg.Sort.Order)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One sort loop and one reporter per scene
	var wg sync.WaitGroup
	for _, ls := range scenes {
		wg.Add(2)
		go func(ls *liveScene) {
			defer wg.Done()
			if err := ls.throttle.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				out.info(fmt.Sprintf("sort loop for %s stopped: %v", ls.name, err))
			}
		}(ls)
		go func(ls *liveScene) {
			defer wg.Done()
			for res := range ls.throttle.Results() {
				frameOutput := output.NewSortOutput("live", time.Now().Add(-res.QuantizeDuration-res.SortDuration))
				frameOutput.Scene = output.SceneInfo{
					File:       ls.scene.Source,
					Format:     string(ls.scene.Format),
					Primitives: ls.scene.Count,
				}
				frameOutput.Sort = output.SortParams{
					Passes:          res.Passes,
					Order:           order.String(),
					FixedPointScale: cfg.Sort.FixedPointScale,
				}
				frameOutput.AddFrame(output.NewFrame(ls.name, res, cfg.Output.IncludeOrder))
				out.print(frameOutput)
			}
		}(ls)
	}

	ing, err := ingestor.NewTCPIngestor(":"+cfg.Live.Port, cfg.Live.ReadTimeout)
	if err != nil {
		log.Fatalf("Error creating ingestor: %v", err)
	}

	out.info(fmt.Sprintf("Waiting for clients on %s (%d scene(s) loaded)", ing.Addr(), len(scenes)))

	if err := ing.Accept(); err != nil {
		log.Fatalf("Error accepting connection: %v", err)
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		out.info("Received shutdown signal...")
		ing.Close()
	}()

	for {
		batch, err := ing.ReadBatch()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			errOutput := output.NewSortOutput("live", time.Now())
			errOutput.AddError("read_batch", fmt.Sprintf("read error: %v", err), 1)
			out.print(errOutput)
			break
		}

		if len(batch) == 0 {
			if ing.IsClosed() {
				out.info("Ingestor closed. Exiting loop.")
				break
			}
			time.Sleep(pollInterval)
			continue
		}

		unknown := 0
		for _, evt := range ingestor.LatestPerScene(batch) {
			ls, ok := routeEvent(scenes, evt)
			if !ok {
				unknown++
				continue
			}
			ls.throttle.Update(evt.View)
		}
		if unknown > 0 {
			warnOutput := output.NewSortOutput("live", time.Now())
			warnOutput.AddWarning("unknown_scene", "transforms received for scenes that are not loaded", unknown)
			out.print(warnOutput)
		}
	}

	cancel()
	wg.Wait()
}

// ============================================================================
// OUTPUT FUNCTIONS - Unified output handling
// ============================================================================

// outputResult is the unified output function that handles all output formats
func outputResult(result *output.SortOutput, outputConfig OutputConfig) {
	if outputConfig.Plain {
		if err := output.WritePlain(os.Stdout, result); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write plain output: %v\n", err)
		}
		return
	}

	var jsonBytes []byte
	var err error

	if outputConfig.Compact {
		jsonBytes, err = result.ToCompactJSON()
	} else {
		jsonBytes, err = result.ToJSON()
	}

	if err != nil {
		fmt.Printf(`{"error": "failed to marshal JSON output: %v"}`, err)
		return
	}
	fmt.Println(string(jsonBytes))
}
