// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-notes/internal/analysis"
	"github.com/pdiddy/pdf-notes/internal/convert"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract every new or changed PDF and write the notes file",
	Long: `Run scans the input folder for PDFs, oldest first, and analyzes each
one that is new or changed since the last run. Unchanged PDFs reuse their
cached Markdown. All documents are written to one notes file with a summary
header.

A failure on one PDF is logged and counted; the run continues. Missing
credentials, a missing or empty input folder, and an unusable cache store
stop the run with a non-zero exit status. Ctrl-C stops after the current
document; the cache and notes file are still written.`,
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	runCmd.Flags().StringP("input", "i", "", "folder of PDFs (default ./pdfs)")
	runCmd.Flags().StringP("output", "o", "", "notes file to write (default extracted_notes.md)")
	runCmd.Flags().Bool("preflight", false, "parse each PDF locally before uploading it")
	runCmd.Flags().Duration("call-delay", 0, "pause after each successful analysis (default 500ms)")
	runCmd.Flags().Duration("poll-timeout", 0, "maximum wait for one document (default 5m)")
	runCmd.Flags().String("log-level", "", "log level: debug, info, warn, error")

	for key, flag := range map[string]string{
		"batch.input_dir":       "input",
		"batch.output_file":     "output",
		"batch.preflight":       "preflight",
		"batch.call_delay":      "call-delay",
		"analysis.poll_timeout": "poll-timeout",
		"log.level":             "log-level",
	} {
		viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	loadedSecrets.Apply(&cfg.Analysis)

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	runID := uuid.NewString()
	log = log.With("run_id", runID)

	client, err := analysis.New(cfg.Analysis, log)
	if err != nil {
		log.Error("missing or invalid service credentials",
			"hint", "set AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT and AZURE_DOCUMENT_INTELLIGENCE_KEY in .env",
			"error", err)
		return err
	}

	store, closeStore, err := openStore(cfg.Cache, log)
	if err != nil {
		log.Error("opening cache failed", "error", err)
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := convert.NewBatch(client, store, convert.Options{
		CallDelay: cfg.Batch.CallDelay,
		Preflight: cfg.Batch.Preflight,
		RunID:     runID,
	}, log)

	sum, err := batch.Run(ctx, cfg.Batch.InputDir, cfg.Batch.OutputFile)
	if err != nil {
		log.Error("run aborted", "input", cfg.Batch.InputDir, "error", err)
		return err
	}

	log.Info("run finished",
		slog.Int("processed", sum.Processed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Int("pages", sum.Pages),
		slog.Duration("elapsed", sum.Elapsed))
	sum.Report(cmd.OutOrStdout())
	return nil
}
