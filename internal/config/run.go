package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/sweep"
)

// RunFile is a sweep run description loaded from JSON or YAML. Every field
// is optional; the Get* methods supply defaults for omitted fields, so a
// partial file is safe.
type RunFile struct {
	Benchmark *string `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`

	Level   *int `json:"level,omitempty" yaml:"level,omitempty"`
	Repeats *int `json:"repeats,omitempty" yaml:"repeats,omitempty"`
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`

	MaxRepeats  *int    `json:"max_repeats,omitempty" yaml:"max_repeats,omitempty"`
	Progression *string `json:"progression,omitempty" yaml:"progression,omitempty"` // level_first, repeats_first or alternating

	Timeout       *string `json:"timeout,omitempty" yaml:"timeout,omitempty"`               // duration string like "2s"
	FlushInterval *string `json:"flush_interval,omitempty" yaml:"flush_interval,omitempty"` // duration string like "10s"

	Cache          *bool   `json:"cache,omitempty" yaml:"cache,omitempty"`
	CachePath      *string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
	RunTag         *string `json:"run_tag,omitempty" yaml:"run_tag,omitempty"`
	OverwriteCache *bool   `json:"overwrite_cache,omitempty" yaml:"overwrite_cache,omitempty"`
	ClearCache     *bool   `json:"clear_cache,omitempty" yaml:"clear_cache,omitempty"`
	CacheOnly      *bool   `json:"cache_only,omitempty" yaml:"cache_only,omitempty"`
	PassRepeat     *bool   `json:"pass_repeat,omitempty" yaml:"pass_repeat,omitempty"`

	// Vars re-declares swept variables, e.g. {"x": "0:20"}.
	Vars map[string]interface{} `json:"vars,omitempty" yaml:"vars,omitempty"`
	// Consts pins variables to a single value, e.g. {"gain": 2}.
	Consts map[string]interface{} `json:"consts,omitempty" yaml:"consts,omitempty"`
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// LoadRunFile loads a RunFile from a .json, .yaml or .yml file.
func LoadRunFile(path string) (*RunFile, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	rf := &RunFile{}
	if ext == ".json" {
		if err := json.Unmarshal(data, rf); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, rf); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := rf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return rf, nil
}

// Validate checks that the configuration values are valid.
func (c *RunFile) Validate() error {
	if c.Timeout != nil && *c.Timeout != "" {
		d, err := time.ParseDuration(*c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", *c.Timeout, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must be non-negative, got %s", d)
		}
	}
	if c.FlushInterval != nil && *c.FlushInterval != "" {
		d, err := time.ParseDuration(*c.FlushInterval)
		if err != nil {
			return fmt.Errorf("invalid flush_interval '%s': %w", *c.FlushInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("flush_interval must be non-negative, got %s", d)
		}
	}
	if c.Progression != nil && *c.Progression != "" {
		if _, err := sweep.ParseProgression(*c.Progression); err != nil {
			return err
		}
	}
	for name := range c.Vars {
		if _, ok := c.Consts[name]; ok {
			return fmt.Errorf("%s is both swept and const", name)
		}
	}
	return c.ToRunConfig().Validate()
}

// GetLevel returns the level or the default of 2.
func (c *RunFile) GetLevel() int {
	if c.Level == nil {
		return 2
	}
	return *c.Level
}

// GetRepeats returns the repeat count or the default of 1.
func (c *RunFile) GetRepeats() int {
	if c.Repeats == nil {
		return 1
	}
	return *c.Repeats
}

// GetMaxRepeats returns the repeat target of a progressive run, or 0 when
// repeats do not grow.
func (c *RunFile) GetMaxRepeats() int {
	if c.MaxRepeats == nil {
		return 0
	}
	return *c.MaxRepeats
}

// GetProgression returns the stage order, level_first by default.
func (c *RunFile) GetProgression() sweep.Progression {
	if c.Progression == nil {
		return sweep.LevelFirst
	}
	p, err := sweep.ParseProgression(*c.Progression)
	if err != nil {
		return sweep.LevelFirst
	}
	return p
}

// GetWorkers returns the worker count or the default of 1.
func (c *RunFile) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetTimeout parses the per-evaluation timeout. Zero means unbounded.
func (c *RunFile) GetTimeout() time.Duration {
	return parseDuration(c.Timeout)
}

// GetFlushInterval parses the flush interval. Zero disables periodic flushes.
func (c *RunFile) GetFlushInterval() time.Duration {
	return parseDuration(c.FlushInterval)
}

// GetCache returns whether the cache is enabled, true by default.
func (c *RunFile) GetCache() bool {
	if c.Cache == nil {
		return true
	}
	return *c.Cache
}

// GetCachePath returns the cache database path.
func (c *RunFile) GetCachePath() string {
	if c.CachePath == nil || *c.CachePath == "" {
		return cache.DefaultPath
	}
	return *c.CachePath
}

// GetPassRepeat returns whether the repeat index reaches the benchmark,
// true by default.
func (c *RunFile) GetPassRepeat() bool {
	if c.PassRepeat == nil {
		return true
	}
	return *c.PassRepeat
}

func getBool(p *bool) bool { return p != nil && *p }

func getString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func parseDuration(s *string) time.Duration {
	if s == nil || *s == "" {
		return 0
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0
	}
	return d
}

// ToRunConfig converts the file to a run configuration.
func (c *RunFile) ToRunConfig() sweep.RunConfig {
	return sweep.RunConfig{
		Repeats:        c.GetRepeats(),
		Level:          c.GetLevel(),
		MaxRepeats:     c.GetMaxRepeats(),
		Progression:    c.GetProgression(),
		Workers:        c.GetWorkers(),
		CacheEnabled:   c.GetCache(),
		Timeout:        c.GetTimeout(),
		FlushInterval:  c.GetFlushInterval(),
		RunTag:         getString(c.RunTag),
		OverwriteCache: getBool(c.OverwriteCache),
		ClearCache:     getBool(c.ClearCache),
		CacheOnly:      getBool(c.CacheOnly),
		PassRepeat:     c.GetPassRepeat(),
	}
}

// Apply re-declares the variables of space named in Vars and Consts.
func (c *RunFile) Apply(space *sweep.Space) (*sweep.Space, error) {
	var overrides []sweep.Variable
	for _, name := range sortedKeys(c.Vars) {
		base, ok := space.Variable(name)
		if !ok {
			return nil, fmt.Errorf("vars: unknown variable %q", name)
		}
		v, err := sweep.ParseOverride(base, specString(c.Vars[name]))
		if err != nil {
			return nil, fmt.Errorf("vars: %w", err)
		}
		overrides = append(overrides, v)
	}
	for _, name := range sortedKeys(c.Consts) {
		base, ok := space.Variable(name)
		if !ok {
			return nil, fmt.Errorf("consts: unknown variable %q", name)
		}
		v, err := sweep.ParseConst(base, specString(c.Consts[name]))
		if err != nil {
			return nil, fmt.Errorf("consts: %w", err)
		}
		overrides = append(overrides, v)
	}
	if len(overrides) == 0 {
		return space, nil
	}
	return space.With(overrides...)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// specString renders a decoded scalar the way it would be typed on the
// command line.
func specString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []interface{}:
		s := ""
		for i, e := range x {
			if i > 0 {
				s += ","
			}
			s += specString(e)
		}
		return s
	default:
		return fmt.Sprint(x)
	}
}
