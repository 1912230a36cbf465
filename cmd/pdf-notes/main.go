// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-notes CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-notes/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the pdf-notes CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-notes",
	Short: "Extract notes from a folder of PDFs into one Markdown file",
	Long: `pdf-notes sends each PDF in a folder to Azure AI Document Intelligence,
converts the layout it returns into Markdown, and combines every document
into a single notes file. Results are cached by file size and modification
time, so unchanged PDFs are never analyzed twice.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := secrets.LoadDotEnv(envFile); err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-notes.yaml or ~/.config/pdf-notes/pdf-notes.yaml)")
	rootCmd.PersistentFlags().String("env-file", secrets.DefaultDotEnv, "dotenv file with service credentials")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if used, err := configureViper(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	} else if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
