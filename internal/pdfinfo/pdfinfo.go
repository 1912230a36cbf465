// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfinfo inspects PDF files locally before they are uploaded.
package pdfinfo

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrNoPages means the file parsed as a PDF but declares no pages.
var ErrNoPages = errors.New("pdfinfo: document has no pages")

// PageCount opens the PDF at path and returns its declared page count.
// Files that fail to parse return an error rather than panicking.
func PageCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return r.NumPage(), nil
}

// Check returns the page count, or an error when the file is unreadable or
// has zero pages.
func Check(path string) (int, error) {
	n, err := PageCount(path)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	return n, nil
}
