// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves service credentials that are kept out of the
// config file: a dotenv file and a directory of plain-text key files.
//
// In the key directory each file is one secret: the filename is the key name
// and the trimmed contents are the value. Recognized keys are
// docintel-endpoint and docintel-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/pdf-notes/pkg/types"
)

const (
	// DefaultDir is the key directory consulted when none is configured.
	DefaultDir = ".secrets"
	// DefaultDotEnv is the dotenv file consulted when none is configured.
	DefaultDotEnv = ".env"

	KeyEndpoint = "docintel-endpoint"
	KeyAPIKey   = "docintel-key"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings and skipped.
func Load(dir string, log *slog.Logger) (Secrets, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// LoadDotEnv loads variables from the dotenv files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Apply fills the endpoint and API key in cfg from s when cfg leaves them
// empty. Values already set by flags, environment, or config win.
func (s Secrets) Apply(cfg *types.AnalysisConfig) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = s[KeyEndpoint]
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = s[KeyAPIKey]
	}
}
