package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/ChristianF88/splatsort/scene"
	"github.com/ChristianF88/splatsort/sorter"
)

const (
	DefaultPort        = "5044"
	DefaultReadTimeout = 5 * time.Second
)

type SceneConfig struct {
	File   string `toml:"file"`
	Format string `toml:"format"`
}

type SortConfig struct {
	Passes          int     `toml:"passes"`
	Order           string  `toml:"order"`
	FixedPointScale float64 `toml:"fixedPointScale"`
}

type CameraConfig struct {
	// ViewProj is column-major; nil means identity.
	ViewProj *depthsort.ViewTransform `toml:"viewProj"`
}

type OutputConfig struct {
	PlotPath     string `toml:"plotPath"`
	RampPath     string `toml:"rampPath"`
	IncludeOrder bool   `toml:"includeOrder"`
}

type LiveConfig struct {
	Port        string        `toml:"port"`
	ReadTimeout time.Duration `toml:"readTimeout"`
}

type Config struct {
	Scene      *SceneConfig            `toml:"scene"`
	Sort       *SortConfig             `toml:"sort"`
	Camera     *CameraConfig           `toml:"camera"`
	Output     *OutputConfig           `toml:"output"`
	Live       *LiveConfig             `toml:"live"`
	LiveScenes map[string]*SceneConfig `toml:"-"`
}

// New returns a Config with every section present and defaults applied.
func New() *Config {
	cfg := &Config{LiveScenes: make(map[string]*SceneConfig)}
	cfg.fillDefaults()
	return cfg
}

func LoadConfig(configPath string) (*Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]any
	if _, err := toml.Decode(string(configData), &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := &Config{
		LiveScenes: make(map[string]*SceneConfig),
	}

	for key, value := range rawConfig {
		section, ok := value.(map[string]any)
		if !ok {
			continue
		}
		switch key {
		case "scene":
			config.Scene = parseSceneConfig(section)
		case "sort":
			if config.Sort, err = parseSortConfig(section); err != nil {
				return nil, err
			}
		case "camera":
			if config.Camera, err = parseCameraConfig(section); err != nil {
				return nil, err
			}
		case "output":
			config.Output = parseOutputConfig(section)
		case "live":
			if config.Live, err = parseLiveConfig(section); err != nil {
				return nil, err
			}
			// Nested tables are additional scenes served in live mode
			for subKey, subValue := range section {
				if sceneMap, ok := subValue.(map[string]any); ok {
					config.LiveScenes[subKey] = parseSceneConfig(sceneMap)
				}
			}
		}
	}

	config.fillDefaults()
	return config, nil
}

func (c *Config) fillDefaults() {
	if c.Scene == nil {
		c.Scene = &SceneConfig{}
	}
	if c.Sort == nil {
		c.Sort = &SortConfig{}
	}
	if c.Sort.FixedPointScale == 0 {
		c.Sort.FixedPointScale = depthsort.FixedPointScale
	}
	if c.Camera == nil {
		c.Camera = &CameraConfig{}
	}
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Live == nil {
		c.Live = &LiveConfig{}
	}
	if c.Live.Port == "" {
		c.Live.Port = DefaultPort
	}
	if c.Live.ReadTimeout == 0 {
		c.Live.ReadTimeout = DefaultReadTimeout
	}
	if c.LiveScenes == nil {
		c.LiveScenes = make(map[string]*SceneConfig)
	}
}

func parseSceneConfig(m map[string]any) *SceneConfig {
	config := &SceneConfig{}
	if v, ok := m["file"].(string); ok {
		config.File = v
	}
	if v, ok := m["format"].(string); ok {
		config.Format = v
	}
	return config
}

func parseSortConfig(m map[string]any) (*SortConfig, error) {
	config := &SortConfig{}
	if v, ok := m["passes"].(int64); ok {
		config.Passes = int(v)
	}
	if v, ok := m["order"].(string); ok {
		if _, err := depthsort.ParseOrder(v); err != nil {
			return nil, fmt.Errorf("invalid sort.order: %w", err)
		}
		config.Order = v
	}
	switch v := m["fixedPointScale"].(type) {
	case int64:
		config.FixedPointScale = float64(v)
	case float64:
		config.FixedPointScale = v
	}
	return config, nil
}

func parseCameraConfig(m map[string]any) (*CameraConfig, error) {
	config := &CameraConfig{}
	switch v := m["viewProj"].(type) {
	case []any:
		view, err := depthsort.ViewTransformFromValues(v)
		if err != nil {
			return nil, fmt.Errorf("invalid camera.viewProj: %w", err)
		}
		config.ViewProj = &view
	case string:
		view, err := depthsort.ParseViewTransform(v)
		if err != nil {
			return nil, fmt.Errorf("invalid camera.viewProj: %w", err)
		}
		config.ViewProj = &view
	}
	return config, nil
}

func parseOutputConfig(m map[string]any) *OutputConfig {
	config := &OutputConfig{}
	if v, ok := m["plotPath"].(string); ok {
		config.PlotPath = v
	}
	if v, ok := m["rampPath"].(string); ok {
		config.RampPath = v
	}
	if v, ok := m["includeOrder"].(bool); ok {
		config.IncludeOrder = v
	}
	return config
}

func parseLiveConfig(m map[string]any) (*LiveConfig, error) {
	config := &LiveConfig{}
	switch v := m["port"].(type) {
	case string:
		config.Port = v
	case int64:
		config.Port = fmt.Sprintf("%d", v)
	}
	if v, ok := m["readTimeout"].(string); ok {
		duration, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid readTimeout %q: %w", v, err)
		}
		config.ReadTimeout = duration
	}
	return config, nil
}

// View returns the configured camera transform, or identity.
func (c *Config) View() depthsort.ViewTransform {
	if c.Camera != nil && c.Camera.ViewProj != nil {
		return *c.Camera.ViewProj
	}
	return depthsort.Identity()
}

// SortOptions converts the sort section into sorter options.
func (c *Config) SortOptions() (sorter.Options, error) {
	order, err := depthsort.ParseOrder(c.Sort.Order)
	if err != nil {
		return sorter.Options{}, err
	}
	return sorter.Options{
		Passes:    c.Sort.Passes,
		Order:     order,
		Quantizer: depthsort.Quantizer{Scale: c.Sort.FixedPointScale},
		KeepKeys:  c.Output.RampPath != "",
	}, nil
}

func (c *Config) validateSortSection() error {
	if c.Sort == nil {
		return fmt.Errorf("sort configuration section is required")
	}
	if c.Sort.Passes < 0 || c.Sort.Passes > depthsort.MaxPasses {
		return fmt.Errorf("passes must be between 0 and %d, got %d", depthsort.MaxPasses, c.Sort.Passes)
	}
	if c.Sort.FixedPointScale <= 0 {
		return fmt.Errorf("fixedPointScale must be positive, got %v", c.Sort.FixedPointScale)
	}
	if _, err := depthsort.ParseOrder(c.Sort.Order); err != nil {
		return err
	}
	return nil
}

func validateSceneConfig(name string, s *SceneConfig) error {
	if s == nil || s.File == "" {
		return fmt.Errorf("file is required in %s configuration", name)
	}
	if _, err := scene.ParseFormat(s.Format); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if _, err := os.Stat(s.File); os.IsNotExist(err) {
		return fmt.Errorf("scene file does not exist: %s", s.File)
	}
	return nil
}

func (c *Config) ValidateSort() error {
	if err := validateSceneConfig("scene", c.Scene); err != nil {
		return err
	}
	return c.validateSortSection()
}

func (c *Config) ValidateLive() error {
	if c.Live == nil {
		return fmt.Errorf("live configuration section is required")
	}
	if c.Live.Port == "" {
		return fmt.Errorf("port is required in live configuration")
	}
	if c.Live.ReadTimeout <= 0 {
		return fmt.Errorf("readTimeout must be positive in live configuration")
	}

	// At least one scene to sort: the default one or a named live scene
	if (c.Scene == nil || c.Scene.File == "") && len(c.LiveScenes) == 0 {
		return fmt.Errorf("at least one scene is required in live mode (e.g., [scene] or [live.scene_name])")
	}
	if c.Scene != nil && c.Scene.File != "" {
		if err := validateSceneConfig("scene", c.Scene); err != nil {
			return err
		}
	}
	for name, s := range c.LiveScenes {
		if err := validateSceneConfig("live."+name, s); err != nil {
			return err
		}
	}
	return c.validateSortSection()
}

// Scenes returns every scene to load, keyed by name. The [scene] section is
// registered as "default".
func (c *Config) Scenes() map[string]*SceneConfig {
	out := make(map[string]*SceneConfig, len(c.LiveScenes)+1)
	if c.Scene != nil && c.Scene.File != "" {
		out["default"] = c.Scene
	}
	for name, s := range c.LiveScenes {
		out[name] = s
	}
	return out
}
