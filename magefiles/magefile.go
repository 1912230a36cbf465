//go:build mage

// Package main contains Mage build targets for pdf-notes developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a run expects.
var projectDirs = []string{
	"pdfs",
	".secrets",
}

// Init creates the working directories and a starter config file.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}
	fmt.Println("Project initialized. Put credentials in .env or .secrets/ and PDFs in pdfs/.")
	return nil
}

const (
	binDir     = "bin"
	binName    = "pdf-notes"
	cmdPkg     = "./cmd/pdf-notes"
	configFile = "pdf-notes.yaml"
)

const sampleConfig = `# pdf-notes configuration. Environment variables (PDF_NOTES_*) override it.
analysis:
  model: prebuilt-layout
  poll_timeout: 5m
batch:
  input_dir: ./pdfs
  output_file: extracted_notes.md
  call_delay: 500ms
cache:
  backend: json
log:
  file: processing.log
  level: info
`

// Build compiles the CLI binary into bin/, stamping the version from
// the VERSION environment variable when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. CGO is required by the SQLite cache store.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Run builds the binary and processes the pdfs/ folder.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "run")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
