// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-notes/internal/cache"
	"github.com/pdiddy/pdf-notes/internal/convert"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the extraction cache",
	Long: `Cache works on the per-file extraction cache that lets runs skip
unchanged PDFs. Use subcommands to list cached documents or prune records
whose PDF no longer exists.`,
}

// --- list subcommand ---

var cacheListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List cached documents",
	SilenceUsage: true,
	RunE:         runCacheList,
}

func runCacheList(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg.Cache, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	return writeRecords(cmd.OutOrStdout(), c.Records(), format)
}

// listEntry is the listing view of a cache record; content is omitted.
type listEntry struct {
	Name        string    `json:"name" yaml:"name"`
	Path        string    `json:"path" yaml:"path"`
	Pages       int       `json:"pages" yaml:"pages"`
	Size        int64     `json:"size" yaml:"size"`
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

func writeRecords(w io.Writer, records []cache.Record, format string) error {
	entries := make([]listEntry, len(records))
	for i, r := range records {
		entries[i] = listEntry{
			Name:        r.Name,
			Path:        r.Path,
			Pages:       r.PageCount,
			Size:        r.Size,
			ProcessedAt: r.ProcessedAt,
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No cached documents.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %5s  %10s  %s\n", "Name", "Pages", "Size", "Processed")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range entries {
		name := e.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%-40s  %5d  %10s  %s\n",
			name, e.Pages, convert.FormatSize(e.Size), e.ProcessedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "\n%d documents\n", len(entries))
	return nil
}

// --- prune subcommand ---

var cachePruneCmd = &cobra.Command{
	Use:          "prune",
	Short:        "Remove cache records whose PDF no longer exists",
	SilenceUsage: true,
	RunE:         runCachePrune,
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg.Cache, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	removed := c.Prune(cache.FileExists)
	if err := store.Save(cmd.Context(), c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d record(s); %d remain in %s\n", removed, c.Len(), store.Location())
	return nil
}

// --- shared helpers ---

// openStore opens the configured cache store. The returned close function
// releases any database handle.
func openStore(cfg types.CacheConfig, log *slog.Logger) (cache.Store, func() error, error) {
	switch cfg.Backend {
	case types.CacheSQLite:
		path := cfg.Path
		if path == "" {
			path = cache.DefaultSQLitePath
		}
		s, err := cache.OpenSQLiteStoreOrReset(path, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case types.CacheJSON, "":
		return cache.NewJSONStore(cfg.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

func init() {
	// Shared with run, so registered on the root command.
	rootCmd.PersistentFlags().String("cache-backend", "", "cache store: json or sqlite (default json)")
	rootCmd.PersistentFlags().String("cache-path", "", "cache file location")
	viper.BindPFlag("cache.backend", rootCmd.PersistentFlags().Lookup("cache-backend"))
	viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache-path"))

	cacheListCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	rootCmd.AddCommand(cacheCmd)
}
