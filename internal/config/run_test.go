package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/sweep"
)

func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyRunFileDefaults(t *testing.T) {
	rf := &RunFile{}
	cfg := rf.ToRunConfig()
	want := sweep.DefaultRunConfig()
	if cfg != want {
		t.Errorf("ToRunConfig() = %+v, want %+v", cfg, want)
	}
	if rf.GetCachePath() != cache.DefaultPath {
		t.Errorf("GetCachePath() = %q, want %q", rf.GetCachePath(), cache.DefaultPath)
	}
	if err := rf.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadRunFileJSON(t *testing.T) {
	path := writeFile(t, "run.json", `{
  "benchmark": "quadratic",
  "level": 4,
  "repeats": 3,
  "workers": 8,
  "timeout": "2s",
  "flush_interval": "500ms",
  "cache_path": "/tmp/c.db",
  "run_tag": "ci",
  "pass_repeat": false,
  "vars": {"x": "0:20"},
  "consts": {"a": 2.5}
}`)
	rf, err := LoadRunFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if rf.Benchmark == nil || *rf.Benchmark != "quadratic" {
		t.Errorf("Expected benchmark quadratic, got %v", rf.Benchmark)
	}
	cfg := rf.ToRunConfig()
	if cfg.Level != 4 || cfg.Repeats != 3 || cfg.Workers != 8 {
		t.Errorf("unexpected sizes: %+v", cfg)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.FlushInterval != 500*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 500ms", cfg.FlushInterval)
	}
	if cfg.RunTag != "ci" || cfg.PassRepeat {
		t.Errorf("unexpected tag/pass_repeat: %+v", cfg)
	}
	if rf.GetCachePath() != "/tmp/c.db" {
		t.Errorf("GetCachePath() = %q", rf.GetCachePath())
	}
}

func TestLoadRunFileYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
benchmark: switches
level: 1
cache: false
vars:
  n: [1, 4]
  mode: fast|slow
consts:
  warm: true
`)
	rf, err := LoadRunFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if rf.GetCache() {
		t.Error("Expected cache disabled")
	}

	space, err := sweep.NewSpace([]sweep.Variable{
		sweep.IntValues("n", 1, 2, 4, 8),
		sweep.Enum("mode", "slow", "medium", "fast"),
		sweep.Bool("warm"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := rf.Apply(space)
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	axes, err := got.Axes(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(axes) != 2 {
		t.Fatalf("Expected 2 axes, got %d", len(axes))
	}
	if len(axes[0].Values) != 2 || axes[0].Values[1] != 4 {
		t.Errorf("n axis = %v, want [1 4]", axes[0].Values)
	}
	if len(axes[1].Values) != 2 || axes[1].Values[0] != "fast" {
		t.Errorf("mode axis = %v, want [fast slow]", axes[1].Values)
	}
	if got.Consts()["warm"] != true {
		t.Errorf("warm const = %v, want true", got.Consts()["warm"])
	}
}

func TestLoadRunFileProgression(t *testing.T) {
	path := writeFile(t, "run.yml", `
repeats: 2
max_repeats: 6
progression: repeats_first
`)
	rf, err := LoadRunFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	cfg := rf.ToRunConfig()
	if cfg.Repeats != 2 || cfg.MaxRepeats != 6 || cfg.TargetRepeats() != 6 {
		t.Errorf("unexpected repeats: %+v", cfg)
	}
	if cfg.Progression != sweep.RepeatsFirst {
		t.Errorf("Progression = %v, want repeats_first", cfg.Progression)
	}
}

func TestApplyNoOverrides(t *testing.T) {
	space, err := sweep.NewSpace([]sweep.Variable{sweep.Float("x", 0, 1)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := (&RunFile{}).Apply(space)
	if err != nil || got != space {
		t.Errorf("Apply() = %v, %v; want the same space", got, err)
	}

	_, err = (&RunFile{Vars: map[string]interface{}{"y": "0:1"}}).Apply(space)
	if err == nil {
		t.Error("Expected error for unknown variable")
	}
	_, err = (&RunFile{Consts: map[string]interface{}{"x": "abc"}}).Apply(space)
	if err == nil {
		t.Error("Expected error for unparsable const")
	}
}

func TestRunFileValidate(t *testing.T) {
	tests := []struct {
		name    string
		rf      RunFile
		wantErr string
	}{
		{"bad timeout", RunFile{Timeout: ptrString("soon")}, "invalid timeout"},
		{"negative flush", RunFile{FlushInterval: ptrString("-1s")}, "flush_interval"},
		{"zero repeats", RunFile{Repeats: ptrInt(0)}, "repeats"},
		{"level too high", RunFile{Level: ptrInt(13)}, "level"},
		{"cache only without cache", RunFile{Cache: ptrBool(false), CacheOnly: ptrBool(true)}, "cache"},
		{"max repeats below repeats", RunFile{Repeats: ptrInt(3), MaxRepeats: ptrInt(2)}, "max_repeats"},
		{"unknown progression", RunFile{Progression: ptrString("balanced")}, "progression"},
		{"swept and const", RunFile{
			Vars:   map[string]interface{}{"x": "0:1"},
			Consts: map[string]interface{}{"x": 1.0},
		}, "both swept and const"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rf.Validate()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRunFileRejects(t *testing.T) {
	if _, err := LoadRunFile(writeFile(t, "run.toml", "level = 2")); err == nil {
		t.Error("Expected error for .toml extension")
	}
	if _, err := LoadRunFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := LoadRunFile(writeFile(t, "bad.json", "{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := LoadRunFile(writeFile(t, "bad.yaml", "level: [1")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
	if _, err := LoadRunFile(writeFile(t, "invalid.yml", "workers: 0\n")); err == nil {
		t.Error("Expected validation error")
	}

	big := writeFile(t, "big.json", `{"run_tag":"`+strings.Repeat("x", maxFileSize)+`"}`)
	if _, err := LoadRunFile(big); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}
