// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-notes/internal/analysis"
	"github.com/pdiddy/pdf-notes/internal/convert"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

const (
	configName = "pdf-notes"
	envPrefix  = "PDF_NOTES"

	defaultInputDir   = "./pdfs"
	defaultOutputFile = "extracted_notes.md"
	defaultLogFile    = "processing.log"
)

// legacyEnv maps config keys to the unprefixed environment variables
// accepted for compatibility with existing .env files.
var legacyEnv = map[string]string{
	"analysis.endpoint": "AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT",
	"analysis.api_key":  "AZURE_DOCUMENT_INTELLIGENCE_KEY",
	"batch.input_dir":   "PDF_FOLDER_PATH",
	"batch.output_file": "OUTPUT_FILE",
}

// configureViper sets defaults, environment bindings, and config file search
// paths on v, then reads the config file if one exists. It returns the path
// of the file used, or "" when none was found.
func configureViper(v *viper.Viper, cfgFile string) (string, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return "", err
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.model", analysis.DefaultModel)
	v.SetDefault("analysis.api_version", analysis.DefaultAPIVersion)
	v.SetDefault("analysis.poll_interval", analysis.DefaultPollInterval)
	v.SetDefault("analysis.poll_timeout", analysis.DefaultPollTimeout)
	v.SetDefault("analysis.timeout", analysis.DefaultTimeout)
	v.SetDefault("analysis.max_retries", 5)

	v.SetDefault("batch.input_dir", defaultInputDir)
	v.SetDefault("batch.output_file", defaultOutputFile)
	v.SetDefault("batch.call_delay", convert.DefaultCallDelay)
	v.SetDefault("batch.preflight", false)

	v.SetDefault("cache.backend", string(types.CacheJSON))
	v.SetDefault("cache.path", "")

	v.SetDefault("log.file", defaultLogFile)
	v.SetDefault("log.level", "info")
}

// loadConfig resolves the effective configuration from v.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		Analysis: types.AnalysisConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("analysis.timeout"),
				UserAgent: fmt.Sprintf("pdf-notes/%s", version),
			},
			Endpoint:     v.GetString("analysis.endpoint"),
			APIKey:       v.GetString("analysis.api_key"),
			Model:        v.GetString("analysis.model"),
			APIVersion:   v.GetString("analysis.api_version"),
			PollInterval: v.GetDuration("analysis.poll_interval"),
			PollTimeout:  v.GetDuration("analysis.poll_timeout"),
			MaxRetries:   v.GetInt("analysis.max_retries"),
		},
		Batch: types.BatchConfig{
			InputDir:   v.GetString("batch.input_dir"),
			OutputFile: v.GetString("batch.output_file"),
			CallDelay:  v.GetDuration("batch.call_delay"),
			Preflight:  v.GetBool("batch.preflight"),
		},
		Cache: types.CacheConfig{
			Backend: types.CacheBackend(strings.ToLower(v.GetString("cache.backend"))),
			Path:    v.GetString("cache.path"),
		},
		Log: types.LogConfig{
			File:  v.GetString("log.file"),
			Level: v.GetString("log.level"),
		},
	}

	switch cfg.Cache.Backend {
	case types.CacheJSON, types.CacheSQLite:
	default:
		return cfg, fmt.Errorf("unsupported cache backend %q: use json or sqlite", cfg.Cache.Backend)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return cfg, err
	}
	if cfg.Batch.CallDelay < 0 {
		return cfg, fmt.Errorf("batch.call_delay must not be negative")
	}
	return cfg, nil
}

// parseLevel converts a level name (debug, info, warn, error) to a slog level.
func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q: use debug, info, warn, or error", s)
	}
	return l, nil
}
