// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders a document-analysis result as Markdown, inferring
// heading levels from paragraph roles or line shape and rendering tables as
// pipe tables.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/pdf-notes/pkg/types"
)

const (
	// headingMaxLen is the exclusive rune length below which a line or
	// paragraph may be treated as a heading.
	headingMaxLen = 60

	// majorHeadingMaxLen is the exclusive rune length below which a
	// line-based heading gets the higher level.
	majorHeadingMaxLen = 30

	// pageSeparator is emitted after each page on the line-based path.
	pageSeparator = "\n---\n"
)

// Format converts an analysis result into Markdown.
//
// When the result provides paragraphs, the paragraph view is rendered and the
// line view is ignored entirely. Otherwise each page's lines are rendered,
// followed by a page separator. Tables are appended in both cases.
func Format(result *types.AnalysisResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	if result.HasParagraphs() {
		writeParagraphs(&b, result.Paragraphs)
	} else {
		writePages(&b, result.Pages)
	}

	if result.HasTables() {
		for i, t := range result.Tables {
			writeTable(&b, i+1, t)
		}
	}
	return b.String()
}

// writePages renders the line-based fallback view.
func writePages(b *strings.Builder, pages []types.Page) {
	for _, page := range pages {
		for _, line := range page.Lines {
			content := strings.TrimSpace(line.Content)
			if content == "" {
				continue
			}
			n := utf8.RuneCountInString(content)
			switch {
			case n < headingMaxLen && (isUpper(content) || isTitle(content)):
				if n < majorHeadingMaxLen {
					fmt.Fprintf(b, "\n## %s\n", content)
				} else {
					fmt.Fprintf(b, "\n### %s\n", content)
				}
			default:
				b.WriteString(content)
				b.WriteByte('\n')
			}
		}
		b.WriteString(pageSeparator)
	}
}

// writeParagraphs renders the paragraph view.
func writeParagraphs(b *strings.Builder, paragraphs []types.Paragraph) {
	for _, p := range paragraphs {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			continue
		}
		switch {
		case p.Role == types.RoleTitle || (utf8.RuneCountInString(content) < headingMaxLen && isUpper(content)):
			fmt.Fprintf(b, "\n## %s\n", content)
		case p.Role == types.RoleSectionHeading:
			fmt.Fprintf(b, "\n### %s\n", content)
		default:
			b.WriteString(content)
			b.WriteByte('\n')
		}
	}
}
