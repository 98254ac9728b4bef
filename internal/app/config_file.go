package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/refcheck/internal/citation"
)

// Defaults applied by the CLI before the config file is read. ApplyFileConfig
// treats a field still holding its default as unset.
const (
	DefaultOutputDir    = "."
	DefaultAnystylePath = "anystyle"
	DefaultCacheDir     = ".refcheck-cache"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Input     string   `yaml:"input" json:"input"`
	OutputDir string   `yaml:"outputDir" json:"outputDir"`
	Template  string   `yaml:"template" json:"template"`
	Tex       bool     `yaml:"tex" json:"tex"`
	Catalog   string   `yaml:"catalog" json:"catalog"`
	NameWords []string `yaml:"nameWords" json:"nameWords"`
	Verbose   bool     `yaml:"verbose" json:"verbose"`

	Anystyle struct {
		Path    string        `yaml:"path" json:"path"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"anystyle" json:"anystyle"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Output struct {
		PDF    bool   `yaml:"pdf" json:"pdf"`
		Markup string `yaml:"markup" json:"markup"`
		Ledger string `yaml:"ledger" json:"ledger"`
	} `yaml:"output" json:"output"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// unset or still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if (cfg.OutputDir == "" || cfg.OutputDir == DefaultOutputDir) && fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if cfg.Template == "" && fc.Template != "" {
		cfg.Template = fc.Template
	}
	if !cfg.Tex && fc.Tex {
		cfg.Tex = true
	}
	if cfg.CatalogPath == "" && fc.Catalog != "" {
		cfg.CatalogPath = fc.Catalog
	}
	if len(cfg.NameWords) == 0 && len(fc.NameWords) > 0 {
		cfg.NameWords = append([]string{}, fc.NameWords...)
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if (cfg.AnystylePath == "" || cfg.AnystylePath == DefaultAnystylePath) && fc.Anystyle.Path != "" {
		cfg.AnystylePath = fc.Anystyle.Path
	}
	if cfg.ParserTimeout == 0 && fc.Anystyle.Timeout > 0 {
		cfg.ParserTimeout = fc.Anystyle.Timeout
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if !cfg.EnablePDF && fc.Output.PDF {
		cfg.EnablePDF = true
	}
	if cfg.MarkupOutput == "" && fc.Output.Markup != "" {
		cfg.MarkupOutput = fc.Output.Markup
	}
	if cfg.LedgerPath == "" && fc.Output.Ledger != "" {
		cfg.LedgerPath = fc.Output.Ledger
	}
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output directory is required")
	}
	if strings.TrimSpace(cfg.AnystylePath) == "" {
		return errors.New("config: anystyle path is required (or set ANYSTYLE_PATH)")
	}
	if cfg.Template != "" {
		if _, err := citation.ParseTemplate(cfg.Template); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if cfg.ParserTimeout < 0 || cfg.CacheMaxAge < 0 || cfg.CacheMaxEntries < 0 || cfg.CacheMaxBytes < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
