package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChristianF88/splatsort/config"
	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/ingestor"
	"github.com/ChristianF88/splatsort/scene"
	"github.com/ChristianF88/splatsort/version"
	cli "github.com/urfave/cli/v2"
)

// parseDate attempts to parse the build date
func parseDate(d string) time.Time {
	t, err := time.Parse(time.RFC3339, d)
	if err != nil {
		return time.Now()
	}
	return t
}

// Shared flag definitions to eliminate duplication
var (
	// Configuration flags
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to configuration file (mutually exclusive with other flags)",
	}

	// Scene flags
	sceneFlag = &cli.StringFlag{
		Name:  "scene",
		Usage: "Path to the scene file (.splat or .xyz)",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Scene format: splat or xyz (inferred from the file extension when empty)",
	}

	// Camera flags
	viewProjFlag = &cli.StringFlag{
		Name:  "viewProj",
		Usage: "Column-major 4x4 view-projection matrix: 16 comma separated numbers (default identity)",
	}
	viewsFlag = &cli.StringFlag{
		Name:  "views",
		Usage: "Path to a camera path file with one 16-number transform per line; sorts one frame per line",
	}

	// Sort flags
	passesFlag = &cli.IntFlag{
		Name:  "passes",
		Usage: "Number of 8-bit radix passes (1-4, 0 derives it from the key range)",
		Value: 0,
	}
	orderFlag = &cli.StringFlag{
		Name:  "order",
		Usage: "Draw order: ascending (near to far) or descending (far to near)",
		Value: "ascending",
	}
	fixedPointScaleFlag = &cli.Float64Flag{
		Name:  "fixedPointScale",
		Usage: "Fixed-point multiplier applied to view depth before normalization",
		Value: depthsort.FixedPointScale,
	}

	// Output flags
	plotPathFlag = &cli.StringFlag{
		Name:  "plotPath",
		Usage: "Path where to save the key histogram (e.g., '/path/to/keys.html'). If not provided, no plot will be generated.",
	}
	rampPathFlag = &cli.StringFlag{
		Name:  "rampPath",
		Usage: "Path where to save the key ramp image (e.g., '/path/to/ramp.webp')",
	}
	includeOrderFlag = &cli.BoolFlag{
		Name:  "includeOrder",
		Usage: "Include the full draw order in the report",
		Value: false,
	}
	compactFlag = &cli.BoolFlag{
		Name:  "compact",
		Usage: "Output compact JSON (no pretty printing)",
		Value: false,
	}
	plainFlag = &cli.BoolFlag{
		Name:  "plain",
		Usage: "Output plain text format for easy readability",
		Value: false,
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Launch TUI (Terminal User Interface) mode",
		Value: false,
	}

	// Live-specific flags
	portFlag = &cli.StringFlag{
		Name:  "port",
		Usage: "Port to listen on for lumberjack clients",
		Value: config.DefaultPort,
	}
	readTimeoutFlag = &cli.DurationFlag{
		Name:  "readTimeout",
		Usage: "Read timeout for client connections",
		Value: config.DefaultReadTimeout,
	}
)

// Shared validation functions
func validateConfigModeFlags(c *cli.Context, allowedFlags []string) error {
	// Create a map for quick lookup of allowed flags
	allowed := make(map[string]bool)
	for _, flag := range allowedFlags {
		allowed[flag] = true
	}

	// Check all possible flags
	flagsToCheck := []string{
		"scene", "format", "viewProj", "views", "passes", "order", "fixedPointScale",
		"plotPath", "rampPath", "includeOrder", "port", "readTimeout",
		"tui", "compact", "plain",
	}

	for _, flag := range flagsToCheck {
		if c.IsSet(flag) && !allowed[flag] {
			return fmt.Errorf("when using --config, only %v flags are allowed", allowedFlags)
		}
	}
	return nil
}

func validateOutputPath(kind, path string) error {
	if path != "" {
		dir := filepath.Dir(path)
		if dir == "." {
			dir, _ = os.Getwd()
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("%s directory does not exist: %s", kind, dir)
		}
	}
	return nil
}

func validateSceneFileExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("scene file does not exist: %s", path)
	}
	return nil
}

// configFromFlags builds the same Config a file would produce.
func configFromFlags(c *cli.Context) (*config.Config, error) {
	cfg := config.New()
	cfg.Scene.File = c.String("scene")
	cfg.Scene.Format = c.String("format")
	cfg.Sort.Passes = c.Int("passes")
	cfg.Sort.Order = c.String("order")
	cfg.Sort.FixedPointScale = c.Float64("fixedPointScale")
	cfg.Output.PlotPath = c.String("plotPath")
	cfg.Output.RampPath = c.String("rampPath")
	cfg.Output.IncludeOrder = c.Bool("includeOrder")
	cfg.Live.Port = c.String("port")
	cfg.Live.ReadTimeout = c.Duration("readTimeout")

	if s := c.String("viewProj"); s != "" {
		view, err := depthsort.ParseViewTransform(s)
		if err != nil {
			return nil, fmt.Errorf("invalid viewProj: %w", err)
		}
		cfg.Camera.ViewProj = &view
	}

	if _, err := scene.ParseFormat(cfg.Scene.Format); err != nil {
		return nil, err
	}
	if _, err := depthsort.ParseOrder(cfg.Sort.Order); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Command handler functions to reduce deep nesting

// handleSortCommand processes the sort command
func handleSortCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath != "" {
		return handleSortConfigMode(c, configPath)
	}
	return handleSortFlagsMode(c)
}

// handleSortConfigMode handles sort command when using config file
func handleSortConfigMode(c *cli.Context, configPath string) error {
	// Validate only allowed flags in config mode
	if err := validateConfigModeFlags(c, []string{"tui", "compact", "plain"}); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateSort(); err != nil {
		return fmt.Errorf("invalid sort configuration: %w", err)
	}
	if err := validateOutputPath("plot", cfg.Output.PlotPath); err != nil {
		return err
	}
	if err := validateOutputPath("ramp", cfg.Output.RampPath); err != nil {
		return err
	}

	SortFromConfig(cfg, nil, c.Bool("compact"), c.Bool("plain"), c.Bool("tui"))
	return nil
}

// handleSortFlagsMode handles sort command when using CLI flags only
func handleSortFlagsMode(c *cli.Context) error {
	if !c.IsSet("scene") {
		return fmt.Errorf("scene is required when not using --config")
	}
	if err := validateSceneFileExists(c.String("scene")); err != nil {
		return err
	}
	if c.IsSet("viewProj") && c.IsSet("views") {
		return fmt.Errorf("viewProj and views are mutually exclusive")
	}

	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSort(); err != nil {
		return err
	}

	var views []depthsort.ViewTransform
	if path := c.String("views"); path != "" {
		if views, err = ingestor.ParseViewFile(path); err != nil {
			return fmt.Errorf("error reading views: %w", err)
		}
		if len(views) == 0 {
			return fmt.Errorf("views file contains no transforms: %s", path)
		}
	}

	if err := validateOutputPath("plot", cfg.Output.PlotPath); err != nil {
		return err
	}
	if err := validateOutputPath("ramp", cfg.Output.RampPath); err != nil {
		return err
	}

	SortFromConfig(cfg, views, c.Bool("compact"), c.Bool("plain"), c.Bool("tui"))
	return nil
}

// handleLiveCommand processes the live command
func handleLiveCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath != "" {
		return handleLiveConfigMode(c, configPath)
	}
	return handleLiveFlagsMode(c)
}

// handleLiveConfigMode handles live command when using config file
func handleLiveConfigMode(c *cli.Context, configPath string) error {
	if err := validateConfigModeFlags(c, []string{"compact", "plain"}); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateLive(); err != nil {
		return fmt.Errorf("invalid live configuration: %w", err)
	}

	LiveFromConfig(cfg, c.Bool("compact"), c.Bool("plain"))
	return nil
}

// handleLiveFlagsMode handles live command when using CLI flags only
func handleLiveFlagsMode(c *cli.Context) error {
	if !c.IsSet("scene") {
		return fmt.Errorf("scene is required when not using --config")
	}
	if err := validateSceneFileExists(c.String("scene")); err != nil {
		return err
	}

	// Multiple scenes and output artifacts need a config file
	if c.IsSet("plotPath") || c.IsSet("rampPath") {
		return fmt.Errorf("plotPath and rampPath are not supported in live mode")
	}

	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateLive(); err != nil {
		return err
	}

	LiveFromConfig(cfg, c.Bool("compact"), c.Bool("plain"))
	return nil
}

var App = &cli.App{
	Name:     "splatsort",
	Usage:    "Depth-sort splat scenes for back-to-front rendering, from files or live camera updates",
	Version:  version.Version,
	Compiled: parseDate(version.Date),
	Commands: []*cli.Command{
		{
			Name:  "sort",
			Usage: "Sort a scene for one camera transform or a camera path",
			Flags: []cli.Flag{
				// Configuration
				configFlag,
				// Scene and camera
				sceneFlag,
				formatFlag,
				viewProjFlag,
				viewsFlag,
				// Sort parameters
				passesFlag,
				orderFlag,
				fixedPointScaleFlag,
				// Output flags
				plotPathFlag,
				rampPathFlag,
				includeOrderFlag,
				compactFlag,
				plainFlag,
				tuiFlag,
			},
			Action: handleSortCommand,
		},
		{
			Name:  "live",
			Usage: "Sort scenes for camera transforms received over lumberjack",
			Flags: []cli.Flag{
				// Configuration
				configFlag,
				// Live-specific flags
				portFlag,
				readTimeoutFlag,
				// Scene
				sceneFlag,
				formatFlag,
				// Sort parameters
				passesFlag,
				orderFlag,
				fixedPointScaleFlag,
				// Output flags
				plotPathFlag,
				rampPathFlag,
				includeOrderFlag,
				compactFlag,
				plainFlag,
			},
			Action: handleLiveCommand,
		},
	},
}
