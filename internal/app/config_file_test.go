package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigFile_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	y := filepath.Join(dir, "refcheck.yaml")
	writeFile(t, y, `
template: EDM
nameWords: [van, der]
anystyle:
  path: /usr/bin/anystyle
  timeout: 30s
cache:
  dir: /var/cache/refcheck
  maxEntries: 50
output:
  pdf: true
`)
	fc, err := LoadConfigFile(y)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if fc.Anystyle.Timeout != 30*time.Second || fc.Cache.MaxEntries != 50 || !fc.Output.PDF {
		t.Fatalf("unexpected yaml config: %+v", fc)
	}

	j := filepath.Join(dir, "refcheck.json")
	writeFile(t, j, `{"template":"JEDM","output":{"ledger":"runs.db"}}`)
	fc, err = LoadConfigFile(j)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if fc.Template != "JEDM" || fc.Output.Ledger != "runs.db" {
		t.Fatalf("unexpected json config: %+v", fc)
	}
}

// Flags beat env, env beats the file, the file beats defaults.
func TestConfigPrecedence(t *testing.T) {
	var fc FileConfig
	fc.Template = "JEDM"
	fc.Anystyle.Path = "/file/anystyle"
	fc.Cache.Dir = "/file/cache"
	fc.OutputDir = "/file/out"

	t.Setenv("ANYSTYLE_PATH", "/env/anystyle")
	t.Setenv("CACHE_DIR", "")
	t.Setenv("REFCHECK_TEMPLATE", "")
	t.Setenv("REFCHECK_OUTPUT_DIR", "")

	cfg := Config{OutputDir: DefaultOutputDir, AnystylePath: DefaultAnystylePath, CacheDir: DefaultCacheDir}
	ApplyFileConfig(&cfg, fc)
	ApplyEnvOverrides(&cfg)
	cfg.OutputDir = "/flag/out" // explicit flag applied last

	if cfg.Template != "JEDM" || cfg.CacheDir != "/file/cache" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.AnystylePath != "/env/anystyle" {
		t.Fatalf("env should beat file: %q", cfg.AnystylePath)
	}
	if cfg.OutputDir != "/flag/out" {
		t.Fatalf("flag should win: %q", cfg.OutputDir)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{InputPath: "p.html", OutputDir: ".", AnystylePath: "anystyle"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"no input", func(c *Config) { c.InputPath = " " }, "input path"},
		{"no output", func(c *Config) { c.OutputDir = "" }, "output directory"},
		{"no parser", func(c *Config) { c.AnystylePath = "" }, "anystyle path"},
		{"bad template", func(c *Config) { c.Template = "ACM" }, "unsupported"},
		{"negative", func(c *Config) { c.ParserTimeout = -time.Second }, "negative"},
	}
	for _, tc := range cases {
		cfg := ok
		tc.mut(&cfg)
		err := ValidateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: got %v, want error containing %q", tc.name, err, tc.want)
		}
	}
}
