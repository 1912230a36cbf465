// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInputDir means the input folder is missing or not a directory.
	ErrInputDir = errors.New("convert: input folder not found")

	// ErrNoInput means the input folder holds no PDF files.
	ErrNoInput = errors.New("convert: no PDF files found")
)

// Input is one discovered PDF.
type Input struct {
	Path    string
	Info    fs.FileInfo
	Created time.Time
}

// Discover lists the PDF files directly inside dir (no recursion), ordered
// by creation time, oldest first. Files created at the same instant keep
// lexical path order. The extension match is case-insensitive and only
// regular files, or symlinks to them, are returned.
func Discover(dir string) ([]Input, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputDir, dir, err)
	}

	var inputs []Input
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		inputs = append(inputs, Input{Path: path, Info: fi, Created: creationTime(path, fi)})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, dir)
	}

	sortByCreation(inputs)
	return inputs, nil
}

func sortByCreation(inputs []Input) {
	sort.SliceStable(inputs, func(i, j int) bool {
		if !inputs[i].Created.Equal(inputs[j].Created) {
			return inputs[i].Created.Before(inputs[j].Created)
		}
		return inputs[i].Path < inputs[j].Path
	})
}

// TotalSize sums the byte sizes of inputs.
func TotalSize(inputs []Input) int64 {
	var n int64
	for _, in := range inputs {
		n += in.Info.Size()
	}
	return n
}

// FormatSize renders a byte count with two decimals in the largest unit
// that keeps the value under 1024.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}
