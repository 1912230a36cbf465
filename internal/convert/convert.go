// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs a folder of PDFs through document analysis and
// combines the formatted results into one Markdown artifact. Unchanged files
// are served from the extraction cache.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pdf-notes/internal/cache"
	"github.com/pdiddy/pdf-notes/internal/format"
	"github.com/pdiddy/pdf-notes/internal/pdfinfo"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

// DefaultCallDelay is the pause after each successful analysis call.
const DefaultCallDelay = 500 * time.Millisecond

// Analyzer extracts the layout of a PDF. The analysis client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, pdfPath string) (*types.AnalysisResult, error)
}

// Options tune a batch run.
type Options struct {
	// CallDelay is slept after each successful analysis. Zero disables it.
	CallDelay time.Duration
	// Preflight parses each PDF locally before it is uploaded.
	Preflight bool
	// RunID tags the summary.
	RunID string
}

// Summary is the outcome of a batch run.
type Summary struct {
	RunID     string
	Total     int
	Processed int
	Skipped   int
	Failed    int
	// Pages counts pages extracted in this run, excluding cache hits.
	Pages int
	// Documents is the number of blocks in the artifact.
	Documents     int
	OutputWritten bool
	OutputPath    string
	Interrupted   bool
	Elapsed       time.Duration
}

// HasFailures reports whether any file failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Report writes the human-readable end-of-run block to w.
func (s Summary) Report(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	if s.Interrupted {
		fmt.Fprintln(w, "PROCESSING INTERRUPTED")
	} else {
		fmt.Fprintln(w, "PROCESSING COMPLETE")
	}
	fmt.Fprintln(w, rule)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Total files: %d\n", s.Total)
	fmt.Fprintf(w, "  Processed: %d\n", s.Processed)
	fmt.Fprintf(w, "  Skipped (already processed): %d\n", s.Skipped)
	fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Total pages extracted: %d\n", s.Pages)
	fmt.Fprintf(w, "Total time: %.2fs\n", s.Elapsed.Seconds())
	if s.Processed > 0 {
		fmt.Fprintf(w, "Average time per document: %.2fs\n", s.Elapsed.Seconds()/float64(s.Processed))
	}
	switch {
	case s.OutputWritten:
		fmt.Fprintf(w, "Output: %s (%d documents)\n", s.OutputPath, s.Documents)
	case s.Documents == 0:
		fmt.Fprintln(w, "Output: none (no documents to write)")
	default:
		fmt.Fprintf(w, "Output: not written to %s\n", s.OutputPath)
	}
	fmt.Fprintln(w, rule)
}

// Batch processes a folder of PDFs sequentially.
type Batch struct {
	analyzer Analyzer
	store    cache.Store
	opts     Options
	log      *slog.Logger

	now       func() time.Time
	pageCount func(path string) (int, error)
}

// NewBatch returns a batch that analyzes cache misses with a and persists
// the cache through store. A nil logger discards log output.
func NewBatch(a Analyzer, store cache.Store, opts Options, log *slog.Logger) *Batch {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Batch{
		analyzer:  a,
		store:     store,
		opts:      opts,
		log:       log,
		now:       time.Now,
		pageCount: pdfinfo.Check,
	}
}

// Run discovers the PDFs in inputDir, extracts each one that changed since
// the last run, and writes the combined artifact to outputPath.
//
// Only a missing or empty input folder, or a cache that exists but cannot be
// read, is returned as an error. A corrupt cache starts fresh. Per-file
// failures, cache save failures, and artifact write failures are logged and
// reflected in the summary. When ctx is cancelled the loop stops, and the
// cache and artifact are still written from what was gathered.
func (b *Batch) Run(ctx context.Context, inputDir, outputPath string) (Summary, error) {
	start := b.now()
	sum := Summary{RunID: b.opts.RunID, OutputPath: outputPath}

	inputs, err := Discover(inputDir)
	if err != nil {
		return sum, err
	}
	sum.Total = len(inputs)

	b.log.Info("processing started",
		"files", len(inputs),
		"size", FormatSize(TotalSize(inputs)),
		"output", outputPath)

	// Save below replaces the whole store, so load it regardless of ctx.
	c, err := cache.LoadOrEmpty(context.WithoutCancel(ctx), b.store, b.log)
	if err != nil {
		return sum, err
	}

	var blocks []string
	pages := 0
	for i, in := range inputs {
		if ctx.Err() != nil {
			b.log.Warn("run interrupted", "remaining", len(inputs)-i)
			break
		}
		name := filepath.Base(in.Path)

		fresh, err := c.IsFresh(in.Path)
		if err != nil {
			b.log.Error("processing failed", "file", name, "error", err)
			sum.Failed++
			continue
		}
		if fresh {
			rec, _ := c.Lookup(in.Path)
			if rec.Content != "" {
				blocks = append(blocks, rec.Content)
				pages += rec.PageCount
			}
			sum.Skipped++
			b.log.Info("skipped, already processed", "file", name)
			continue
		}

		b.log.Info("processing", "file", name, "index", i+1, "of", len(inputs))
		block, n, err := b.extract(ctx, in)
		if err != nil && ctx.Err() != nil {
			b.log.Warn("run interrupted", "file", name, "remaining", len(inputs)-i)
			break
		}
		if err != nil {
			b.log.Error("processing failed", "file", name, "error", err)
			sum.Failed++
			continue
		}

		blocks = append(blocks, block)
		c.Put(in.Path, in.Info, block, n)
		sum.Processed++
		sum.Pages += n
		pages += n
		b.log.Info("extracted", "file", name, "pages", n)

		if i < len(inputs)-1 {
			sleep(ctx, b.opts.CallDelay)
		}
	}

	sum.Interrupted = ctx.Err() != nil

	// Persist even after cancellation.
	saveCtx := context.WithoutCancel(ctx)
	if err := b.store.Save(saveCtx, c); err != nil {
		b.log.Error("saving cache failed", "path", b.store.Location(), "error", err)
	}

	sum.Documents = len(blocks)
	if len(blocks) == 0 {
		b.log.Warn("no documents to write", "output", outputPath)
	} else {
		artifact := renderArtifact(b.now(), blocks, pages)
		if err := cache.WriteFileAtomic(outputPath, []byte(artifact), 0o644); err != nil {
			b.log.Error("writing output failed", "output", outputPath, "error", err)
		} else {
			sum.OutputWritten = true
			b.log.Info("output saved", "output", outputPath, "documents", len(blocks), "pages", pages)
		}
	}

	sum.Elapsed = b.now().Sub(start)
	return sum, nil
}

// extract analyzes one PDF and returns its document block and page count.
func (b *Batch) extract(ctx context.Context, in Input) (string, int, error) {
	if b.opts.Preflight {
		n, err := b.pageCount(in.Path)
		if err != nil {
			return "", 0, fmt.Errorf("preflight: %w", err)
		}
		b.log.Debug("preflight ok", "file", filepath.Base(in.Path), "pages", n)
	}

	result, err := b.analyzer.Analyze(ctx, in.Path)
	if err != nil {
		return "", 0, err
	}
	return documentBlock(filepath.Base(in.Path), format.Format(result)), result.PageCount(), nil
}

// documentBlock prefixes content with the file name as a top-level heading.
func documentBlock(name, content string) string {
	return "\n\n# " + name + "\n\n" + content
}

// renderArtifact builds the combined output: a summary header followed by
// the document blocks in discovery order.
func renderArtifact(generated time.Time, blocks []string, pages int) string {
	var b strings.Builder
	b.WriteString("# Extracted PDF Notes\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total Documents:** %d\n", len(blocks))
	fmt.Fprintf(&b, "**Total Pages:** %d\n", pages)
	b.WriteString("---\n")
	b.WriteString(strings.Join(blocks, "\n"))
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
