package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(envKey))
		}
	}
	setString(&cfg.AnystylePath, "ANYSTYLE_PATH")
	setString(&cfg.Template, "REFCHECK_TEMPLATE")
	setString(&cfg.OutputDir, "REFCHECK_OUTPUT_DIR")
	setString(&cfg.CatalogPath, "REFCHECK_CATALOG")
	setString(&cfg.LedgerPath, "REFCHECK_LEDGER")
	setString(&cfg.CacheDir, "CACHE_DIR")

	if len(cfg.NameWords) == 0 {
		cfg.NameWords = splitList(os.Getenv("REFCHECK_NAME_WORDS"))
	}
	if cfg.CacheMaxAge == 0 {
		if d, ok := envDuration("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.ParserTimeout == 0 {
		if d, ok := envDuration("ANYSTYLE_TIMEOUT"); ok {
			cfg.ParserTimeout = d
		}
	}
	if cfg.CacheMaxEntries == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
			cfg.CacheMaxEntries = n
		}
	}
	if cfg.CacheMaxBytes == 0 {
		if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CACHE_MAX_BYTES")), 10, 64); err == nil && n > 0 {
			cfg.CacheMaxBytes = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if v, ok := envBool(envKey); ok && v {
			*dst = true
		}
	}
	setBool(&cfg.Tex, "TEX")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.EnablePDF, "REFCHECK_PDF")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over a
// config file while flags, applied afterwards, stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.AnystylePath, "ANYSTYLE_PATH")
	setString(&cfg.Template, "REFCHECK_TEMPLATE")
	setString(&cfg.OutputDir, "REFCHECK_OUTPUT_DIR")
	setString(&cfg.CatalogPath, "REFCHECK_CATALOG")
	setString(&cfg.LedgerPath, "REFCHECK_LEDGER")
	setString(&cfg.CacheDir, "CACHE_DIR")

	if words := splitList(os.Getenv("REFCHECK_NAME_WORDS")); len(words) > 0 {
		cfg.NameWords = words
	}
	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if d, ok := envDuration("ANYSTYLE_TIMEOUT"); ok {
		cfg.ParserTimeout = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
		cfg.CacheMaxEntries = n
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CACHE_MAX_BYTES")), 10, 64); err == nil && n > 0 {
		cfg.CacheMaxBytes = n
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if v, ok := envBool(envKey); ok {
			*dst = v
		}
	}
	setBool(&cfg.Tex, "TEX")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.EnablePDF, "REFCHECK_PDF")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
